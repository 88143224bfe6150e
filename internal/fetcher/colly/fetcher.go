// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
)

const defaultTimeout = 15 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBodySize caps the bytes read per response; 0 keeps colly's default.
	MaxBodySize int
}

// Fetcher implements crawler.Fetcher with one synchronous colly visit per call.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

type fetchOutcome struct {
	page crawler.Page
	err  error
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	// Every task is fetched, even when another task already named the same URL.
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	if cfg.MaxBodySize > 0 {
		c.MaxBodySize = cfg.MaxBodySize
	}
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch performs a GET for rawURL. Transport errors and HTTP statuses >= 400
// are returned as errors wrapping crawler.ErrFetchFailure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (crawler.Page, error) {
	collector := f.buildCollector()
	outcome := &fetchOutcome{}
	f.configureCollectorHooks(collector, rawURL, outcome)

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return crawler.Page{}, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return crawler.Page{}, fmt.Errorf("%w: colly visit %s: %w", crawler.ErrFetchFailure, rawURL, err)
		}
		if outcome.err != nil {
			return crawler.Page{}, fmt.Errorf("%w: colly response %s: %w", crawler.ErrFetchFailure, rawURL, outcome.err)
		}
		if outcome.page.FinalURL == "" {
			return crawler.Page{}, fmt.Errorf("%w: colly fetch %s produced no response", crawler.ErrFetchFailure, rawURL)
		}
		f.logger.Debug("Fetched page",
			zap.String("url", rawURL),
			zap.String("final_url", outcome.page.FinalURL),
			zap.Int("status_code", outcome.page.StatusCode),
			zap.Int("bytes", outcome.page.ContentLength()),
		)
		return outcome.page, nil
	}
}

func (f *Fetcher) buildCollector() *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, rawURL string, outcome *fetchOutcome) {
	hooks.OnResponse(func(r *colly.Response) {
		page := crawler.Page{
			URL:        rawURL,
			FinalURL:   rawURL,
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
		if r.Headers != nil {
			page.Headers = r.Headers.Clone()
		}
		if r.Request != nil && r.Request.URL != nil {
			page.FinalURL = r.Request.URL.String()
		}
		outcome.page = page
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode > 0 {
			err = fmt.Errorf("status %d: %w", r.StatusCode, err)
		}
		outcome.err = err
	})
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
