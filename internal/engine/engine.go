// Package engine implements the crawl loop: it pops tasks breadth-first, fetches
// them, runs their parsers, and routes each parser output either back into the
// work queue or into the record sink.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
	"github.com/JakeFAU/catalog-scraper/internal/queue/memory"
)

// Stats summarizes one crawl run.
type Stats struct {
	Pages    int
	Records  int
	Enqueued int
	Dropped  int
}

// Engine drives a single-threaded, breadth-first crawl.
type Engine struct {
	fetcher  crawler.Fetcher
	registry crawler.Registry
	observer crawler.Observer
	logger   *zap.Logger
	stats    Stats
}

// New constructs an Engine. A nil observer or logger disables that concern.
func New(
	fetcher crawler.Fetcher,
	registry crawler.Registry,
	observer crawler.Observer,
	logger *zap.Logger,
) *Engine {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		fetcher:  fetcher,
		registry: registry,
		observer: observer,
		logger:   logger,
	}
}

// Stats returns the counters of the most recent Run.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Run crawls from start until no work remains. The sink is opened before the
// first fetch and closed exactly once when the loop ends, whatever the outcome.
func (e *Engine) Run(ctx context.Context, start crawler.Task, sink crawler.Sink) (err error) {
	if e.fetcher == nil {
		return errors.New("engine has no fetcher")
	}
	if sink == nil {
		return errors.New("engine has no sink")
	}
	if start.IsZero() {
		return errors.New("start task requires a url and a parser")
	}
	e.stats = Stats{}
	tasks := memory.NewQueue(start)

	defer func() {
		// Close must still run after cancellation, so detach it from ctx.
		cerr := sink.Close(context.WithoutCancel(ctx))
		if cerr == nil {
			return
		}
		if err == nil {
			err = fmt.Errorf("close sink: %w", cerr)
			return
		}
		e.logger.Warn("Failed to close sink", zap.Error(cerr))
	}()

	if err := sink.Open(ctx); err != nil {
		return fmt.Errorf("open sink: %w", err)
	}

	for tasks.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl canceled: %w", err)
		}
		task, _ := tasks.Dequeue()
		if err := e.process(ctx, task, tasks, sink); err != nil {
			return err
		}
	}

	e.logger.Info("Crawl finished",
		zap.Int("pages", e.stats.Pages),
		zap.Int("records", e.stats.Records),
		zap.Int("dropped_tasks", e.stats.Dropped),
	)
	return nil
}

func (e *Engine) process(ctx context.Context, task crawler.Task, tasks *memory.Queue, sink crawler.Sink) error {
	e.logger.Info("Crawling", zap.String("url", task.URL), zap.String("parser", string(task.Parser)))

	parser, err := e.registry.Lookup(task.Parser)
	if err != nil {
		return fmt.Errorf("resolve parser for %s: %w", task.URL, err)
	}

	page, err := e.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		if errors.Is(err, crawler.ErrFetchFailure) {
			return fmt.Errorf("fetch %s: %w", task.URL, err)
		}
		return fmt.Errorf("fetch %s: %w: %w", task.URL, crawler.ErrFetchFailure, err)
	}
	e.stats.Pages++
	e.observer.PageFetched(task.Parser, page)

	outputs, err := parser.Parse(ctx, page)
	if err != nil {
		return fmt.Errorf("parse %s with %s: %w", task.URL, task.Parser, err)
	}

	for _, out := range outputs {
		if rec := out.Record(); rec != nil {
			if err := sink.Submit(ctx, rec); err != nil {
				return fmt.Errorf("submit record from %s: %w", task.URL, err)
			}
			e.stats.Records++
			e.observer.RecordSubmitted()
			continue
		}
		next := out.Task()
		if next.IsZero() {
			e.stats.Dropped++
			e.observer.TaskDropped()
			continue
		}
		tasks.Enqueue(next)
		e.stats.Enqueued++
		e.observer.TaskEnqueued(next)
	}
	return nil
}

type nopObserver struct{}

func (nopObserver) PageFetched(crawler.ParserID, crawler.Page) {}
func (nopObserver) RecordSubmitted()                           {}
func (nopObserver) TaskEnqueued(crawler.Task)                  {}
func (nopObserver) TaskDropped()                               {}
