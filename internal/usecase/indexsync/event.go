package indexsync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/gymdex/internal/domain"
)

// EventType is the kind of row change.
type EventType string

// Change event types.
const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Tables whose changes affect search documents.
const (
	TableListings          = "listings"
	TableListingAttributes = "listing_attributes"
)

// Event is a row change notification, delivered at least once and unordered.
type Event struct {
	Type      EventType       `json:"type"`
	Table     string          `json:"table"`
	Schema    string          `json:"schema,omitempty"`
	Record    json.RawMessage `json:"record,omitempty"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

// row is the part of a changed record the synchronizer looks at.
type row struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ListingID string `json:"listing_id"`
}

// ParseEvent decodes and validates a change event.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %w", domain.ErrInvalidEvent, err)
	}
	ev.Type = EventType(strings.ToUpper(string(ev.Type)))
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Validate checks the event type and that the record needed for it is present.
func (e *Event) Validate() error {
	switch e.Type {
	case EventInsert, EventUpdate:
		if isNull(e.Record) {
			return fmt.Errorf("%w: %s without record", domain.ErrInvalidEvent, e.Type)
		}
	case EventDelete:
		if isNull(e.OldRecord) && isNull(e.Record) {
			return fmt.Errorf("%w: DELETE without old_record", domain.ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidEvent, e.Type)
	}
	return nil
}

func (e *Event) record() (*row, error)    { return decodeRow(e.Record) }
func (e *Event) oldRecord() (*row, error) { return decodeRow(e.OldRecord) }

// listingID is the id of the listing a change refers to.
func (e *Event) listingID() (string, error) {
	for _, raw := range []json.RawMessage{e.Record, e.OldRecord} {
		r, err := decodeRow(raw)
		if err != nil {
			return "", err
		}
		if r == nil {
			continue
		}
		id := r.ID
		if e.Table == TableListingAttributes {
			id = r.ListingID
		}
		if id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no listing id in %s event", domain.ErrInvalidEvent, e.Type)
}

func decodeRow(raw json.RawMessage) (*row, error) {
	if isNull(raw) {
		return nil, nil
	}
	var r row
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: record: %w", domain.ErrInvalidEvent, err)
	}
	return &r, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
