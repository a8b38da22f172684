package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gymdex/internal/config"
	dbRedis "github.com/kailas-cloud/gymdex/internal/db/redis"
	"github.com/kailas-cloud/gymdex/internal/domain/collection"
	"github.com/kailas-cloud/gymdex/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/gymdex/internal/logger"
	"github.com/kailas-cloud/gymdex/internal/metrics"
	collectionrepo "github.com/kailas-cloud/gymdex/internal/repository/collection"
	documentrepo "github.com/kailas-cloud/gymdex/internal/repository/document"
	listingrepo "github.com/kailas-cloud/gymdex/internal/repository/listing"
	searchrepo "github.com/kailas-cloud/gymdex/internal/repository/search"
	chiTransport "github.com/kailas-cloud/gymdex/internal/transport/chi"
	wsTransport "github.com/kailas-cloud/gymdex/internal/transport/ws"
	collectionuc "github.com/kailas-cloud/gymdex/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/gymdex/internal/usecase/health"
	"github.com/kailas-cloud/gymdex/internal/usecase/indexsync"
	searchuc "github.com/kailas-cloud/gymdex/internal/usecase/search"
	"github.com/kailas-cloud/gymdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting gymdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("listings_driver", cfg.Listings.Driver),
	)

	metrics.RegisterGymdexMetrics()

	coll, err := collection.New(cfg.Index.KeyPrefix, cfg.Index.Collection)
	if err != nil {
		logger.Fatal("Invalid collection", zap.Error(err))
	}

	// Search reads and index writes use separate clients: reads fail fast,
	// bulk writes are allowed to take longer.
	readStore, err := newStore(cfg, cfg.Index.ReadTimeout())
	if err != nil {
		logger.Fatal("Failed to create read store", zap.Error(err))
	}
	defer readStore.Close()

	writeStore, err := newStore(cfg, cfg.Index.WriteTimeout())
	if err != nil {
		logger.Fatal("Failed to create write store", zap.Error(err))
	}
	defer writeStore.Close()

	ctx := context.Background()
	if err := readStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index service not ready", zap.Error(err))
	}
	logger.Info("Connected to index service")

	collSvc := collectionuc.New(collectionrepo.New(writeStore, coll), coll, logger)
	if err := collSvc.Ensure(ctx, false); err != nil {
		logger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	dict := query.DefaultDictionary()
	if cfg.Search.AliasFile != "" {
		dict, err = query.LoadDictionary(cfg.Search.AliasFile, dict)
		if err != nil {
			logger.Fatal("Failed to load location aliases", zap.Error(err))
		}
	}
	logger.Info("Location dictionary loaded", zap.String("version", dict.Version()), zap.Int("aliases", dict.Len()))

	searchRepo := searchrepo.New(readStore, coll, cfg.Index.RelevanceWindow).WithFacetLimit(cfg.Index.FacetLimit)
	searchSvc := searchuc.New(searchRepo, query.NewParser(dict), logger).
		WithAutocompleteLimit(cfg.Index.AutocompleteLimit)

	// Pass nil interfaces (not typed nil pointers) when sync is not configured.
	var (
		syncer         chiTransport.Synchronizer
		listingsPinger healthuc.Pinger
		syncSvc        *indexsync.Service
	)
	if cfg.Listings.DSN != "" {
		if err := cfg.ValidateWriter(); err != nil {
			logger.Fatal("Index synchronization misconfigured", zap.Error(err))
		}
		listings, err := listingrepo.Open(ctx, cfg.Listings.Driver, cfg.Listings.DSN)
		if err != nil {
			logger.Fatal("Failed to open listing store", zap.Error(err))
		}
		defer func() { _ = listings.Close() }()
		if cfg.Listings.Migrate {
			if err := listings.Migrate(ctx); err != nil {
				logger.Fatal("Failed to migrate listing store", zap.Error(err))
			}
		}

		syncSvc = indexsync.New(listings, documentrepo.New(writeStore, coll), logger).
			WithBatchSize(cfg.Sync.BatchSize)
		syncer = syncSvc
		listingsPinger = listings
	} else {
		logger.Warn("listings.dsn not set; running read-only without index synchronization")
	}

	healthSvc := healthuc.New(readStore, listingsPinger)

	server := chiTransport.NewServer(searchSvc, syncer, collSvc, healthSvc, logger).
		WithPageSizes(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize)
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:       cfg.Auth.APIKeys,
		WebhookSecret: cfg.Sync.WebhookSecret,
	}, logger)

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	if cfg.Sync.FeedURL != "" && syncSvc != nil {
		consumer := wsTransport.NewConsumer(cfg.Sync.FeedURL, syncSvc, logger).
			WithHeader(chiTransport.WebhookSecretHeader, cfg.Sync.WebhookSecret)
		go func() { _ = consumer.Run(feedCtx) }()
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopFeed()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newStore(cfg config.Config, timeout time.Duration) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:        cfg.Database.Addrs,
		Username:     cfg.Database.Username,
		Password:     cfg.Database.Password,
		DB:           cfg.Database.DB,
		DialTimeout:  timeout,
		WriteTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	return store, nil
}
