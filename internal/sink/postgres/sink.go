// Package postgres stores records as rows of a predeclared Postgres table.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
	"github.com/JakeFAU/catalog-scraper/internal/record"
)

var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Pool is the subset of *pgxpool.Pool the sink needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Connector dials the database described by cfg.
type Connector func(ctx context.Context, cfg Config) (Pool, error)

// Config controls the Postgres connection and target table.
type Config struct {
	DSN             string
	Schema          record.Schema
	MaxConns        int32
	MaxConnLifetime time.Duration
	// Connect dials the pool; a pgxpool connector when nil.
	Connect Connector
}

// Sink inserts one row per record.
type Sink struct {
	cfg    Config
	logger *zap.Logger

	pool   Pool
	closed bool
}

// New validates cfg and constructs a sink. No connection is made until Open.
func New(cfg Config, logger *zap.Logger) (*Sink, error) {
	if strings.TrimSpace(cfg.DSN) == "" && cfg.Connect == nil {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	if !validIdentifier.MatchString(cfg.Schema.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Schema.Table)
	}
	if len(cfg.Schema.Columns) == 0 {
		return nil, fmt.Errorf("table %s declares no columns", cfg.Schema.Table)
	}
	for _, name := range cfg.Schema.ColumnNames() {
		if !validIdentifier.MatchString(name) {
			return nil, fmt.Errorf("invalid column name %q", name)
		}
	}
	if cfg.Schema.PrimaryKey != "" && !validIdentifier.MatchString(cfg.Schema.PrimaryKey) {
		return nil, fmt.Errorf("invalid primary key %q", cfg.Schema.PrimaryKey)
	}
	if cfg.Connect == nil {
		cfg.Connect = connectPool
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{cfg: cfg, logger: logger}, nil
}

// Open connects, pings, and creates the table if it does not exist.
func (s *Sink) Open(ctx context.Context) error {
	if s.pool != nil || s.closed {
		return fmt.Errorf("%w: postgres sink already opened", crawler.ErrSinkState)
	}
	pool, err := s.cfg.Connect(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("%w: connect postgres: %w", crawler.ErrBackendUnavailable, err)
	}
	s.pool = pool
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping postgres: %w", crawler.ErrBackendUnavailable, err)
	}
	if _, err := pool.Exec(ctx, CreateTableSQL(s.cfg.Schema)); err != nil {
		return fmt.Errorf("%w: create table %s: %w", crawler.ErrBackendUnavailable, s.cfg.Schema.Table, err)
	}
	s.logger.Debug("Postgres sink opened", zap.String("table", s.cfg.Schema.Table))
	return nil
}

// Submit inserts rec. The column list comes from the record's own fields, so a
// record that does not fit the table is rejected by the database.
func (s *Sink) Submit(ctx context.Context, rec crawler.Record) error {
	if s.pool == nil || s.closed {
		return fmt.Errorf("%w: postgres sink is not open", crawler.ErrSinkState)
	}
	query, args := InsertSQL(s.cfg.Schema.Table, rec)
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insert into %s: %w", crawler.ErrWriteFailure, s.cfg.Schema.Table, err)
	}
	return nil
}

// Close releases the pool. It is a no-op when the sink was never opened or is
// already closed.
func (s *Sink) Close(context.Context) error {
	if s.closed || s.pool == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	s.pool.Close()
	s.logger.Debug("Postgres sink closed", zap.String("table", s.cfg.Schema.Table))
	return nil
}

// CreateTableSQL renders the idempotent DDL for schema.
func CreateTableSQL(schema record.Schema) string {
	defs := make([]string, 0, len(schema.Columns)+1)
	if schema.PrimaryKey != "" {
		defs = append(defs, quote(schema.PrimaryKey)+" SERIAL PRIMARY KEY")
	}
	for _, c := range schema.Columns {
		def := quote(c.Name) + " " + c.Type
		if c.NotNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quote(schema.Table), strings.Join(defs, ",\n\t"))
}

// InsertSQL renders a parameterized INSERT for rec and returns its arguments.
func InsertSQL(table string, rec crawler.Record) (string, []any) {
	fields := rec.Fields()
	cols := make([]string, len(fields))
	params := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = quote(f.Name)
		params[i] = fmt.Sprintf("$%d", i+1)
		args[i] = f.Value
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(cols, ", "), strings.Join(params, ", "))
	return query, args
}

func quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

func connectPool(ctx context.Context, cfg Config) (Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}
