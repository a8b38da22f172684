// Package ws consumes a realtime listing change feed over a websocket.
// Each text message is one change event in the webhook JSON shape.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gymdex/internal/usecase/indexsync"
)

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
	readLimit         = 1 << 20
)

// EventHandler applies one change event.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev indexsync.Event) (indexsync.Outcome, error)
}

// Consumer reads change events from url and hands them to the synchronizer.
// Events are processed one at a time in arrival order.
type Consumer struct {
	url        string
	header     http.Header
	handler    EventHandler
	logger     *zap.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewConsumer creates a change feed consumer.
func NewConsumer(url string, handler EventHandler, logger *zap.Logger) *Consumer {
	return &Consumer{
		url:        url,
		header:     http.Header{},
		handler:    handler,
		logger:     logger,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
}

// WithHeader adds a header sent on every dial, e.g. the feed credential.
func (c *Consumer) WithHeader(key, value string) *Consumer {
	if value != "" {
		c.header.Set(key, value)
	}
	return c
}

// WithBackoff configures the reconnect delay bounds.
func (c *Consumer) WithBackoff(minDelay, maxDelay time.Duration) *Consumer {
	if minDelay > 0 {
		c.minBackoff = minDelay
	}
	if maxDelay >= c.minBackoff {
		c.maxBackoff = maxDelay
	}
	return c
}

// Run consumes the feed until ctx is cancelled, reconnecting with
// exponential backoff. Missed events are recovered by the next reindex.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.minBackoff
	for {
		handled, err := c.ConsumeOnce(ctx)
		if ctx.Err() != nil {
			return nil //nolint:nilerr // cancellation is the normal way out
		}
		if handled > 0 {
			backoff = c.minBackoff
		}
		c.logger.Warn("Change feed disconnected",
			zap.String("url", c.url),
			zap.Int("handled", handled),
			zap.Duration("retry_in", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

// ConsumeOnce holds one connection until it closes and returns how many
// events were read. A normal close from the feed returns a nil error.
func (c *Consumer) ConsumeOnce(ctx context.Context) (int, error) {
	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{HTTPHeader: c.header})
	if err != nil {
		return 0, fmt.Errorf("dial change feed: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	c.logger.Info("Change feed connected", zap.String("url", c.url))

	handled := 0
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return handled, nil
			}
			return handled, fmt.Errorf("read change feed: %w", err)
		}
		handled++
		if typ != websocket.MessageText {
			c.logger.Warn("Change feed sent a non-text message; skipped")
			continue
		}
		c.apply(ctx, data)
	}
}

// apply handles one message. Bad events and failed applies are logged and
// skipped so one poisoned event cannot stall the feed.
func (c *Consumer) apply(ctx context.Context, data []byte) {
	ev, err := indexsync.ParseEvent(data)
	if err != nil {
		c.logger.Warn("Invalid change event", zap.Error(err))
		return
	}
	outcome, err := c.handler.HandleEvent(ctx, ev)
	if err != nil {
		c.logger.Error("Change event failed",
			zap.String("type", string(ev.Type)),
			zap.String("table", ev.Table),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("Change event applied",
		zap.String("type", string(ev.Type)),
		zap.String("table", ev.Table),
		zap.String("outcome", string(outcome)),
	)
}
