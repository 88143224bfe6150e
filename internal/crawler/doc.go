// Package crawler defines the types shared by every part of the scraper: the
// tasks and records produced by page parsers, the parser registry, the fetcher,
// sink, and observer contracts, and the error sentinels they wrap.
package crawler
