package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sparkify/internal/config"
	"sparkify/internal/etl"
	"sparkify/internal/logging"
	"sparkify/internal/metrics"
	"sparkify/internal/metrics/datadog"
	"sparkify/internal/metrics/prompush"
	"sparkify/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "sparkify/internal/storage/all"
)

// main is the entry point for the ETL binary. It loads the configuration,
// optionally initializes a metrics backend, and loads the song and log data
// into the warehouse.
func main() {
	var (
		cfgPath  string
		validate bool
	)

	flag.StringVar(&cfgPath, "config", "", "YAML config path (environment only when empty)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("Configuration is invalid: %v", cfgPath)
	}

	// If validate flag is set, only validate the configuration and exit
	if validate {
		fmt.Fprintf(os.Stderr, "Configuration is valid: %v\n", cfgPath)
		os.Exit(0)
	}

	runID := uuid.NewString()
	logger, err := logging.New(cfg.Log.Level, *verbose)
	if err != nil {
		fatalf("init logger: %v", err)
	}
	logger = logger.With(zap.String("run_id", runID))
	defer func() { _ = logger.Sync() }()

	flush := setupMetrics(cfg, runID, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	sum, err := run(ctx, cfg, runID, logger)
	stop()
	flush()

	if sum != nil && *verbose {
		_, _ = sum.WriteTo(os.Stderr)
	}
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run connects to the configured backend, bootstraps the schema if asked to
// and executes one Runner.
func run(ctx context.Context, cfg *config.Config, runID string, logger *zap.Logger) (*etl.Summary, error) {
	dsn, err := cfg.Storage.ConnString()
	if err != nil {
		return nil, err
	}
	policy, err := storage.ParseConflictPolicy(cfg.Storage.OnConflict)
	if err != nil {
		return nil, err
	}

	logger.Info("connecting",
		zap.String("kind", cfg.Storage.Kind),
		zap.String("dsn", logging.SanitizeConnectionString(dsn)),
		zap.String("on_conflict", string(policy)))

	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: dsn, OnConflict: policy})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Storage.Kind, err)
	}
	defer repo.Close()

	if cfg.Storage.AutoCreateSchema {
		if err := storage.EnsureSchema(ctx, cfg.Storage.Kind, repo); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	r := etl.NewRunner(repo, etl.Options{
		Job:          cfg.Job,
		RunID:        runID,
		SongDataPath: cfg.SongDataPath,
		LogDataPath:  cfg.LogDataPath,
		FileExt:      cfg.FileExt,
	}, logger)

	sum, err := r.Run(ctx)
	if sum != nil {
		logger.Info("completed",
			zap.Duration("elapsed", sum.Duration),
			zap.Int("inserted", sum.TotalInserted()),
			zap.Int("failed", sum.TotalFailed()))
	}
	return sum, err
}

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it. Backend failures only disable metrics.
func setupMetrics(cfg *config.Config, runID string, logger *zap.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL, runID)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  "sparkify.",
			GlobalTags: []string{"job:" + cfg.Job, "run_id:" + runID},
		})
	case "", "none":
		// metrics disabled; nop backend remains
		logger.Debug("metrics disabled")
		return func() {}
	default:
		logger.Warn("unknown metrics backend; metrics disabled", zap.String("backend", cfg.Metrics.Backend))
		return func() {}
	}
	if err != nil {
		logger.Warn("metrics backend init failed; using nop", zap.String("backend", cfg.Metrics.Backend), zap.Error(err))
		return func() {}
	}

	logger.Info("metrics enabled", zap.String("backend", cfg.Metrics.Backend))
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics flush error", zap.Error(err))
		}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
