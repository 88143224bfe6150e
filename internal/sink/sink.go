// Package sink maps output format tokens to record sink implementations.
package sink

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
	"github.com/JakeFAU/catalog-scraper/internal/output"
	"github.com/JakeFAU/catalog-scraper/internal/record"
	csvsink "github.com/JakeFAU/catalog-scraper/internal/sink/csv"
	jsonlsink "github.com/JakeFAU/catalog-scraper/internal/sink/jsonl"
	mongosink "github.com/JakeFAU/catalog-scraper/internal/sink/mongo"
	"github.com/JakeFAU/catalog-scraper/internal/sink/postgres"
)

// ErrUnsupportedFormat reports an output format token with no sink behind it.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format selects a sink variant.
type Format string

// Recognized output formats.
const (
	FormatCSV      Format = "csv"
	FormatJL       Format = "jl"
	FormatPostgres Format = "postgres"
	FormatMongo    Format = "mongo"
)

// Formats lists every recognized format token.
func Formats() []Format {
	return []Format{FormatCSV, FormatJL, FormatPostgres, FormatMongo}
}

// ParseFormat normalizes a user-supplied token.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
}

// PostgresOptions configures the relational sink.
type PostgresOptions struct {
	DSN      string
	Schema   record.Schema
	MaxConns int32
}

// MongoOptions configures the document sink.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Options carries the settings of every variant; New reads only the ones its
// format needs.
type Options struct {
	// Path is the destination of file-backed formats; output.Stdout selects standard output.
	Path     string
	Opener   output.Opener
	Postgres PostgresOptions
	Mongo    MongoOptions
	Logger   *zap.Logger
}

// New constructs the sink for format. It performs no I/O; backends are
// acquired by the sink's Open.
func New(format Format, opts Options) (crawler.Sink, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch format {
	case FormatCSV:
		return csvsink.New(csvsink.Config{Path: opts.Path, Open: opts.Opener}, logger.Named("csv")), nil
	case FormatJL:
		return jsonlsink.New(jsonlsink.Config{Path: opts.Path, Open: opts.Opener}, logger.Named("jsonl")), nil
	case FormatPostgres:
		s, err := postgres.New(postgres.Config{
			DSN:      opts.Postgres.DSN,
			Schema:   opts.Postgres.Schema,
			MaxConns: opts.Postgres.MaxConns,
		}, logger.Named("postgres"))
		if err != nil {
			return nil, fmt.Errorf("configure postgres sink: %w", err)
		}
		return s, nil
	case FormatMongo:
		s, err := mongosink.New(mongosink.Config{
			URI:        opts.Mongo.URI,
			Database:   opts.Mongo.Database,
			Collection: opts.Mongo.Collection,
			Timeout:    opts.Mongo.Timeout,
		}, logger.Named("mongo"))
		if err != nil {
			return nil, fmt.Errorf("configure mongo sink: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
