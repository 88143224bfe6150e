// Package mongosink stores records as documents of a MongoDB collection.
package mongosink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
)

// Collection is the subset of *mongo.Collection the sink needs.
type Collection interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Client is the subset of *mongo.Client the sink needs.
type Client interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Collection(database, name string) Collection
	Disconnect(ctx context.Context) error
}

// Connector dials the deployment described by cfg.
type Connector func(ctx context.Context, cfg Config) (Client, error)

// Config controls the MongoDB connection and target collection.
type Config struct {
	URI        string
	Database   string
	Collection string
	// Timeout bounds server selection and the open-time ping.
	Timeout time.Duration
	// Connect dials the client; the official driver when nil.
	Connect Connector
}

// Sink inserts one document per record. The collection is assumed to exist.
type Sink struct {
	cfg    Config
	logger *zap.Logger

	client Client
	coll   Collection
	closed bool
}

// New validates cfg and constructs a sink. No connection is made until Open.
func New(cfg Config, logger *zap.Logger) (*Sink, error) {
	if strings.TrimSpace(cfg.URI) == "" && cfg.Connect == nil {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("mongo collection is required")
	}
	if cfg.Connect == nil {
		cfg.Connect = connectClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{cfg: cfg, logger: logger}, nil
}

// Open connects and pings the primary.
func (s *Sink) Open(ctx context.Context) error {
	if s.client != nil || s.closed {
		return fmt.Errorf("%w: mongo sink already opened", crawler.ErrSinkState)
	}
	client, err := s.cfg.Connect(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("%w: connect mongo: %w", crawler.ErrBackendUnavailable, err)
	}
	s.client = client

	pingCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: ping mongo: %w", crawler.ErrBackendUnavailable, err)
	}
	s.coll = client.Collection(s.cfg.Database, s.cfg.Collection)
	s.logger.Debug("Mongo sink opened",
		zap.String("database", s.cfg.Database),
		zap.String("collection", s.cfg.Collection),
	)
	return nil
}

// Submit inserts rec as one document.
func (s *Sink) Submit(ctx context.Context, rec crawler.Record) error {
	if s.coll == nil || s.closed {
		return fmt.Errorf("%w: mongo sink is not open", crawler.ErrSinkState)
	}
	if _, err := s.coll.InsertOne(ctx, Document(rec)); err != nil {
		return fmt.Errorf("%w: insert into %s.%s: %w", crawler.ErrWriteFailure, s.cfg.Database, s.cfg.Collection, err)
	}
	return nil
}

// Close disconnects the client. It is a no-op when the sink was never opened
// or is already closed.
func (s *Sink) Close(ctx context.Context) error {
	if s.closed || s.client == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// Document converts rec into an ordered BSON document. Absent values are stored as null.
func Document(rec crawler.Record) bson.D {
	fields := rec.Fields()
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		var v any
		if f.Value != nil {
			v = *f.Value
		}
		doc = append(doc, bson.E{Key: f.Name, Value: v})
	}
	return doc
}

type driverClient struct {
	client *mongo.Client
}

func (c driverClient) Ping(ctx context.Context, rp *readpref.ReadPref) error {
	return c.client.Ping(ctx, rp)
}

func (c driverClient) Collection(database, name string) Collection {
	return c.client.Database(database).Collection(name)
}

func (c driverClient) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func connectClient(ctx context.Context, cfg Config) (Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetServerSelectionTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return driverClient{client: client}, nil
}
