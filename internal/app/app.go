// Package app assembles the long-lived services of one crawl run: the fetcher,
// the record sink, the engine, and the optional metrics endpoint.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/config"
	"github.com/JakeFAU/catalog-scraper/internal/crawler"
	"github.com/JakeFAU/catalog-scraper/internal/engine"
	collyfetcher "github.com/JakeFAU/catalog-scraper/internal/fetcher/colly"
	"github.com/JakeFAU/catalog-scraper/internal/id/uuid"
	"github.com/JakeFAU/catalog-scraper/internal/metrics"
	"github.com/JakeFAU/catalog-scraper/internal/record"
	"github.com/JakeFAU/catalog-scraper/internal/sink"
	"github.com/JakeFAU/catalog-scraper/internal/spider/muztorg"
)

// Factories builds the swappable collaborators. Tests replace them to run the
// app against fixtures instead of the network.
type Factories struct {
	Fetcher  func(cfg collyfetcher.Config, logger *zap.Logger) crawler.Fetcher
	Sink     func(format sink.Format, opts sink.Options) (crawler.Sink, error)
	Registry func() crawler.Registry
}

// DefaultFactories wires the colly fetcher, the format-selected sink, and the
// muztorg parsers.
func DefaultFactories() Factories {
	return Factories{
		Fetcher: func(cfg collyfetcher.Config, logger *zap.Logger) crawler.Fetcher {
			return collyfetcher.New(cfg, logger)
		},
		Sink:     sink.New,
		Registry: muztorg.Registry,
	}
}

// App holds the services for a single crawl.
type App struct {
	runID   string
	logger  *zap.Logger
	start   crawler.Task
	sink    crawler.Sink
	engine  *engine.Engine
	metrics *metrics.Server
}

// New validates cfg and builds every service. No page is fetched and no backend
// is contacted here; the sink acquires its backend when the run starts.
func New(cfg config.Config, logger *zap.Logger, f Factories) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultFactories()
	if f.Fetcher == nil {
		f.Fetcher = defaults.Fetcher
	}
	if f.Sink == nil {
		f.Sink = defaults.Sink
	}
	if f.Registry == nil {
		f.Registry = defaults.Registry
	}

	runID := uuid.NewRunID()
	logger = logger.With(zap.String("run_id", runID))

	format, err := cfg.Format()
	if err != nil {
		return nil, err
	}

	registry := f.Registry()
	start := crawler.Task{URL: cfg.Crawl.StartURL, Parser: crawler.ParserID(cfg.Crawl.Parser)}
	if _, err := registry.Lookup(start.Parser); err != nil {
		return nil, fmt.Errorf("start task: %w", err)
	}

	schema := record.ProductSchema()
	if cfg.Postgres.Table != "" {
		schema.Table = cfg.Postgres.Table
	}
	s, err := f.Sink(format, sink.Options{
		Path: cfg.Output.Path,
		Postgres: sink.PostgresOptions{
			DSN:      cfg.Postgres.DSN,
			Schema:   schema,
			MaxConns: cfg.Postgres.MaxConns,
		},
		Mongo: sink.MongoOptions{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
			Timeout:    cfg.MongoTimeout(),
		},
		Logger: logger.Named("sink"),
	})
	if err != nil {
		return nil, fmt.Errorf("init sink: %w", err)
	}

	fetcher := f.Fetcher(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	}, logger.Named("fetcher"))

	a := &App{
		runID:  runID,
		logger: logger,
		start:  start,
		sink:   s,
		engine: engine.New(fetcher, registry, metrics.NewObserver(), logger.Named("engine")),
	}

	if cfg.Metrics.Addr != "" {
		srv, err := metrics.Start(cfg.Metrics.Addr, logger.Named("metrics"))
		if err != nil {
			return nil, fmt.Errorf("init metrics server: %w", err)
		}
		a.metrics = srv
	}

	logger.Info("Application services initialized",
		zap.String("format", string(format)),
		zap.String("output", cfg.Output.Path),
		zap.Stringer("start", start),
	)
	return a, nil
}

// RunID identifies this run in logs.
func (a *App) RunID() string {
	return a.runID
}

// Logger returns the run-scoped logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Run crawls from the configured start task until the queue drains or a
// failure aborts the run.
func (a *App) Run(ctx context.Context) (engine.Stats, error) {
	err := a.engine.Run(ctx, a.start, a.sink)
	stats := a.engine.Stats()
	fields := []zap.Field{
		zap.Int("pages", stats.Pages),
		zap.Int("records", stats.Records),
		zap.Int("enqueued", stats.Enqueued),
		zap.Int("dropped", stats.Dropped),
	}
	if err != nil {
		a.logger.Error("Crawl aborted", append(fields, zap.Error(err))...)
		return stats, fmt.Errorf("run crawl: %w", err)
	}
	a.logger.Info("Run summary", fields...)
	return stats, nil
}

// Close stops the metrics endpoint and flushes the logger.
func (a *App) Close(ctx context.Context) {
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Warn("Error stopping metrics server", zap.Error(err))
		}
	}
	// Sync fails on terminals; nothing useful can be done about it.
	_ = a.logger.Sync()
}
