// Package jsonlsink writes records as line-delimited JSON objects.
package jsonlsink

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
	"github.com/JakeFAU/catalog-scraper/internal/output"
)

// Config controls where lines are written.
type Config struct {
	Path string
	// Open resolves Path; output.Open when nil.
	Open output.Opener
}

// Sink encodes each record as one self-contained JSON line.
type Sink struct {
	cfg    Config
	logger *zap.Logger

	dst    io.WriteCloser
	buf    *bufio.Writer
	closed bool
}

// New constructs a JSON lines sink.
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
		return fmt.Errorf("%w: jsonl sink already opened", crawler.ErrSinkState)
	}
	dst, err := s.cfg.Open(ctx, s.cfg.Path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", crawler.ErrBackendUnavailable, s.cfg.Path, err)
	}
	s.dst = dst
	s.buf = bufio.NewWriter(dst)
	s.logger.Debug("JSON lines sink opened", zap.String("path", s.cfg.Path))
	return nil
}

// Submit writes rec as a single line and flushes it.
func (s *Sink) Submit(_ context.Context, rec crawler.Record) error {
	if s.buf == nil || s.closed {
		return fmt.Errorf("%w: jsonl sink is not open", crawler.ErrSinkState)
	}
	line, err := crawler.MarshalRecord(rec)
	if err != nil {
		return fmt.Errorf("%w: encode record: %w", crawler.ErrWriteFailure, err)
	}
	if _, err := s.buf.Write(line); err != nil {
		return fmt.Errorf("%w: write line: %w", crawler.ErrWriteFailure, err)
	}
	if err := s.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: write line: %w", crawler.ErrWriteFailure, err)
	}
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("%w: flush line: %w", crawler.ErrWriteFailure, err)
	}
	return nil
}

// Close flushes and releases the destination. It is a no-op when the sink was
// never opened or is already closed.
func (s *Sink) Close(context.Context) error {
	if s.closed || s.dst == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	flushErr := s.buf.Flush()
	closeErr := s.dst.Close()
	if flushErr != nil {
		return fmt.Errorf("flush jsonl: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", s.cfg.Path, closeErr)
	}
	return nil
}
