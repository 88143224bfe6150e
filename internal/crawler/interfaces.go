package crawler

import (
	"context"
)

// Fetcher fetches a URL and returns the page body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Parser turns a fetched page into further tasks and/or finished records.
type Parser interface {
	Parse(ctx context.Context, page Page) ([]Output, error)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(ctx context.Context, page Page) ([]Output, error)

// Parse calls f(ctx, page).
func (f ParserFunc) Parse(ctx context.Context, page Page) ([]Output, error) {
	return f(ctx, page)
}

// Sink persists records. Open is called once before the first Submit and Close
// once after the last one, even when the run fails.
type Sink interface {
	Open(ctx context.Context) error
	Submit(ctx context.Context, rec Record) error
	Close(ctx context.Context) error
}

// Observer receives crawl progress events. Implementations must be cheap; the
// engine calls them inline.
type Observer interface {
	PageFetched(parser ParserID, page Page)
	RecordSubmitted()
	TaskEnqueued(task Task)
	TaskDropped()
}
