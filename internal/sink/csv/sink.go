// Package csvsink writes records as comma-separated rows with a single header.
package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
	"github.com/JakeFAU/catalog-scraper/internal/output"
)

// Config controls where rows are written.
type Config struct {
	Path string
	// Open resolves Path; output.Open when nil.
	Open output.Opener
}

// Sink writes one CSV row per record. The first record's field names become
// the header row.
type Sink struct {
	cfg    Config
	logger *zap.Logger

	dst           io.WriteCloser
	writer        *csv.Writer
	headerWritten bool
	closed        bool
}

// New constructs a CSV sink. Nothing is opened until Open.
func New(cfg Config, logger *zap.Logger) *Sink {
	if cfg.Open == nil {
		cfg.Open = output.Open
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{cfg: cfg, logger: logger}
}

// Open creates the destination.
func (s *Sink) Open(ctx context.Context) error {
	if s.dst != nil || s.closed {
		return fmt.Errorf("%w: csv sink already opened", crawler.ErrSinkState)
	}
	dst, err := s.cfg.Open(ctx, s.cfg.Path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", crawler.ErrBackendUnavailable, s.cfg.Path, err)
	}
	s.dst = dst
	s.writer = csv.NewWriter(dst)
	s.logger.Debug("CSV sink opened", zap.String("path", s.cfg.Path))
	return nil
}

// Submit writes the header (first call only) and one data row.
func (s *Sink) Submit(_ context.Context, rec crawler.Record) error {
	if s.writer == nil || s.closed {
		return fmt.Errorf("%w: csv sink is not open", crawler.ErrSinkState)
	}
	fields := rec.Fields()
	if !s.headerWritten {
		header := make([]string, len(fields))
		for i, f := range fields {
			header[i] = f.Name
		}
		if err := s.writer.Write(header); err != nil {
			return fmt.Errorf("%w: write csv header: %w", crawler.ErrWriteFailure, err)
		}
		s.headerWritten = true
	}
	row := make([]string, len(fields))
	for i, f := range fields {
		if f.Value != nil {
			row[i] = *f.Value
		}
	}
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("%w: write csv row: %w", crawler.ErrWriteFailure, err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("%w: flush csv row: %w", crawler.ErrWriteFailure, err)
	}
	return nil
}

// Close flushes pending rows and releases the destination. It is a no-op when
// the sink was never opened or is already closed.
func (s *Sink) Close(context.Context) error {
	if s.closed || s.dst == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	s.writer.Flush()
	flushErr := s.writer.Error()
	closeErr := s.dst.Close()
	if flushErr != nil {
		return fmt.Errorf("flush csv: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", s.cfg.Path, closeErr)
	}
	s.logger.Debug("CSV sink closed", zap.String("path", s.cfg.Path))
	return nil
}
