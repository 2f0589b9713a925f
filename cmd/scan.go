package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hdcnetworks/leadscan/internal/api"
	"github.com/hdcnetworks/leadscan/internal/clock/system"
	"github.com/hdcnetworks/leadscan/internal/config"
	"github.com/hdcnetworks/leadscan/internal/filter"
	"github.com/hdcnetworks/leadscan/internal/hash/sha256"
	"github.com/hdcnetworks/leadscan/internal/id/uuid"
	"github.com/hdcnetworks/leadscan/internal/ingest"
	"github.com/hdcnetworks/leadscan/internal/leads"
	"github.com/hdcnetworks/leadscan/internal/logging"
	"github.com/hdcnetworks/leadscan/internal/metrics"
	"github.com/hdcnetworks/leadscan/internal/notify/pubsub"
	"github.com/hdcnetworks/leadscan/internal/notify/smtp"
	"github.com/hdcnetworks/leadscan/internal/search/google"
	"github.com/hdcnetworks/leadscan/internal/storage/gcs"
	"github.com/hdcnetworks/leadscan/internal/storage/local"
	"github.com/hdcnetworks/leadscan/internal/storage/memory"
	"github.com/hdcnetworks/leadscan/internal/storage/postgres"
)

var (
	dryRun      bool
	queriesFile string
)

// newScanCmd creates the 'scan' subcommand: one full ingestion pass.
func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one ingestion pass over the configured queries",
		Long: `Executes every configured search query, filters and deduplicates
the results, stores new leads, and delivers the run report. A partial
failure (some queries or writes failing) does not fail the command;
only a configuration error or an expired run deadline does.`,
		RunE: runScan,
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "use an in-memory store and skip report delivery")
	cmd.Flags().StringVar(&queriesFile, "queries-file", "", "file with one search query per line, replacing the configured query list")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if queriesFile != "" {
		queries, err := readQueriesFile(queriesFile)
		if err != nil {
			return err
		}
		cfg.Queries = queries
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	searcher, err := google.New(google.Config{
		APIKey:         cfg.Search.APIKey,
		EngineID:       cfg.Search.EngineID,
		NumResults:     cfg.Search.NumResults,
		Timeout:        time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
		RequestsPerSec: cfg.Search.RequestsPerSec,
	})
	if err != nil {
		return fmt.Errorf("build search client: %w", err)
	}

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	archive, archiveCleanup, err := buildArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer archiveCleanup()

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}

	publisher, publishCleanup, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer publishCleanup()

	stopOps := startOpsListener(cfg, logger)
	defer stopOps()

	ing, err := ingest.New(ingest.Deps{
		Searcher: searcher,
		Store:    store,
		Filter: filter.New(filter.Config{
			JunkDomains:         cfg.Filter.JunkDomains,
			ImportantSuffixes:   cfg.Filter.ImportantSuffixes,
			LocationKeywords:    cfg.Filter.LocationKeywords,
			OpportunityKeywords: cfg.Filter.OpportunityKeywords,
		}),
		Hasher:    sha256.New(),
		Clock:     system.New(),
		IDGen:     uuid.New(),
		Notifier:  notifier,
		Publisher: publisher,
		Archive:   archive,
	}, ingest.Config{
		Timeout:       cfg.Run.Timeout(),
		Concurrency:   cfg.Run.Concurrency,
		ArchivePrefix: cfg.Archive.Prefix,
	}, logger)
	if err != nil {
		return fmt.Errorf("build ingestor: %w", err)
	}

	summary, err := ing.Run(ctx, cfg.Queries)
	if err != nil {
		return fmt.Errorf("ingestion run: %w", err)
	}

	logger.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("queries", summary.QueriesAttempted),
		zap.Int("failed_queries", summary.QueriesFailed),
		zap.Int("stored", summary.Stored),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("filtered", summary.Filtered),
	)
	if summary.PartialFailure() {
		logger.Warn("run finished with partial failures",
			zap.Int("failed_queries", summary.QueriesFailed),
			zap.Int("persist_errors", summary.PersistErrors),
		)
	}
	return nil
}

// readQueriesFile loads one query per line. Blank lines and lines
// starting with # are skipped.
func readQueriesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}
	var queries []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("queries file %s contains no queries", path)
	}
	return queries, nil
}

func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (leads.Store, error) {
	if dryRun {
		logger.Info("dry run: storing leads in memory")
		return memory.NewLeadStore(), nil
	}
	switch cfg.Store.Backend {
	case "memory":
		return memory.NewLeadStore(), nil
	case "postgres":
		store, err := postgres.NewLeadStore(ctx, postgres.LeadStoreConfig{
			DSN:      cfg.Store.DSN,
			Table:    cfg.Store.Table,
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("build lead store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildArchive(ctx context.Context, cfg config.Config) (leads.BlobStore, func(), error) {
	noop := func() {}
	switch cfg.Archive.Backend {
	case "", "none":
		return nil, noop, nil
	case "local":
		store, err := local.New(local.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			return nil, noop, fmt.Errorf("build local archive: %w", err)
		}
		return store, noop, nil
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("build gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.Archive.Bucket})
		if err != nil {
			client.Close()
			return nil, noop, fmt.Errorf("build gcs archive: %w", err)
		}
		return store, func() { client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

func buildNotifier(cfg config.Config, logger *zap.Logger) (leads.Notifier, error) {
	if dryRun || !cfg.Notify.Enabled() {
		if dryRun && cfg.Notify.Enabled() {
			logger.Info("dry run: skipping report delivery")
		}
		return nil, nil
	}
	notifier, err := smtp.New(smtp.Config{
		Host:     cfg.Notify.Host,
		Port:     cfg.Notify.Port,
		Username: cfg.Notify.Username,
		Password: cfg.Notify.Password,
		From:     cfg.Notify.From,
		To:       cfg.Notify.To,
	})
	if err != nil {
		return nil, fmt.Errorf("build notifier: %w", err)
	}
	return notifier, nil
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (leads.Publisher, func(), error) {
	noop := func() {}
	if dryRun || !cfg.Publish.Enabled() {
		return nil, noop, nil
	}
	client, err := gcpubsub.NewClient(ctx, cfg.Publish.ProjectID)
	if err != nil {
		return nil, noop, fmt.Errorf("build pubsub client: %w", err)
	}
	topic := client.Topic(cfg.Publish.TopicName)
	cleanup := func() {
		topic.Stop()
		if cerr := client.Close(); cerr != nil {
			logger.Warn("close pubsub client", zap.Error(cerr))
		}
	}
	return pubsub.New(topic), cleanup, nil
}

// startOpsListener serves /healthz and /metrics for the duration of
// the run when ops.listen_addr is configured. The returned function
// shuts the listener down.
func startOpsListener(cfg config.Config, logger *zap.Logger) func() {
	if cfg.Ops.ListenAddr == "" {
		return func() {}
	}

	srv := &http.Server{
		Addr:              cfg.Ops.ListenAddr,
		Handler:           api.NewServer(logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("ops listener started", zap.String("addr", cfg.Ops.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops listener error", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("ops listener shutdown error", zap.Error(err))
		}
	}
}
