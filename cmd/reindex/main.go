// Command reindex rebuilds the listings search index from the Listing Store.
//
//	ENV=prod reindex [-recreate [-yes]] [-batch-size N]
//
// Exit status is 1 when the run cannot complete; per-listing import failures
// are reported but do not fail the run.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gymdex/internal/config"
	dbRedis "github.com/kailas-cloud/gymdex/internal/db/redis"
	"github.com/kailas-cloud/gymdex/internal/domain/collection"
	logpkg "github.com/kailas-cloud/gymdex/internal/logger"
	"github.com/kailas-cloud/gymdex/internal/metrics"
	collectionrepo "github.com/kailas-cloud/gymdex/internal/repository/collection"
	documentrepo "github.com/kailas-cloud/gymdex/internal/repository/document"
	listingrepo "github.com/kailas-cloud/gymdex/internal/repository/listing"
	collectionuc "github.com/kailas-cloud/gymdex/internal/usecase/collection"
	"github.com/kailas-cloud/gymdex/internal/usecase/indexsync"
	"github.com/kailas-cloud/gymdex/internal/version"
)

// maxReportedFailures caps the failures echoed to stdout; all are logged.
const maxReportedFailures = 20

type options struct {
	recreate    bool
	yes         bool
	batchSize   int
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("reindex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&o.recreate, "recreate", false, "drop the index and all its documents before reindexing")
	fs.BoolVar(&o.yes, "yes", false, "do not ask for confirmation of -recreate")
	fs.IntVar(&o.batchSize, "batch-size", 0, "listings per batch (default: sync.batch_size)")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.batchSize < 0 || o.batchSize > 1000 {
		return options{}, fmt.Errorf("-batch-size must be between 1 and 1000")
	}
	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return 1
	}
	if err := cfg.ValidateWriter(); err != nil {
		fmt.Fprintln(stderr, "reindex:", err)
		return 1
	}
	if opts.batchSize > 0 {
		cfg.Sync.BatchSize = opts.batchSize
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(stderr, "failed to create logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.RegisterGymdexMetrics()

	coll, err := collection.New(cfg.Index.KeyPrefix, cfg.Index.Collection)
	if err != nil {
		logger.Error("Invalid collection", zap.Error(err))
		return 1
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:        cfg.Database.Addrs,
		Username:     cfg.Database.Username,
		Password:     cfg.Database.Password,
		DB:           cfg.Database.DB,
		DialTimeout:  cfg.Index.WriteTimeout(),
		WriteTimeout: cfg.Index.WriteTimeout(),
	})
	if err != nil {
		logger.Error("Failed to create index store", zap.Error(err))
		return 1
	}
	defer store.Close()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Error("Index service not ready", zap.Error(err))
		return 1
	}

	listings, err := listingrepo.Open(ctx, cfg.Listings.Driver, cfg.Listings.DSN)
	if err != nil {
		logger.Error("Failed to open listing store", zap.Error(err))
		return 1
	}
	defer func() { _ = listings.Close() }()

	collSvc := collectionuc.New(collectionrepo.New(store, coll), coll, logger)

	if opts.recreate && !opts.yes {
		info, err := collSvc.Info(ctx)
		if err != nil {
			logger.Error("Failed to inspect collection", zap.Error(err))
			return 1
		}
		if info.Exists {
			prompt := fmt.Sprintf("Drop index %s and its %d documents?", info.Index, info.Documents)
			if !confirm(stdin, stdout, prompt) {
				fmt.Fprintln(stdout, "Aborted.")
				return 0
			}
		}
	}
	if err := collSvc.Ensure(ctx, opts.recreate); err != nil {
		logger.Error("Failed to ensure collection", zap.Error(err))
		return 1
	}

	syncSvc := indexsync.New(listings, documentrepo.New(store, coll), logger).WithBatchSize(cfg.Sync.BatchSize)

	logger.Info("Reindex started",
		zap.String("version", version.Version),
		zap.String("index", coll.IndexName()),
		zap.Int("batch_size", cfg.Sync.BatchSize),
		zap.Bool("recreate", opts.recreate),
	)
	report, err := syncSvc.Reindex(ctx, func(indexed, total int) {
		logger.Info("Reindex progress", zap.String("progress", progressLine(indexed, total)))
	})
	printReport(stdout, &report)
	if err != nil {
		logger.Error("Reindex failed", zap.Error(err))
		return 1
	}

	info, err := collSvc.Info(ctx)
	if err != nil {
		logger.Error("Failed to count documents", zap.Error(err))
		return 1
	}
	fmt.Fprintf(stdout, "Collection %s now holds %d documents\n", info.Name, info.Documents)
	return 0
}

// progressLine renders "indexed/total (pct%)".
func progressLine(indexed, total int) string {
	pct := 100.0
	if total > 0 {
		pct = float64(indexed) * 100 / float64(total)
	}
	return fmt.Sprintf("%d/%d (%.1f%%)", indexed, total, pct)
}

// confirm asks a yes/no question; anything but y/yes is a no.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func printReport(w io.Writer, r *indexsync.Report) {
	fmt.Fprintf(w, "Requested %d, indexed %d, failed %d, skipped %d in %d batches (%s)\n",
		r.Requested, r.Succeeded, r.Failed, r.Skipped, r.Batches, r.Duration.Round(time.Millisecond))
	for i, f := range r.Failures {
		if i == maxReportedFailures {
			fmt.Fprintf(w, "  ... and %d more\n", len(r.Failures)-maxReportedFailures)
			break
		}
		fmt.Fprintf(w, "  %s: %s\n", f.ID, f.Reason)
	}
}
