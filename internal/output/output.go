// Package output resolves the destination of file-backed sinks: standard
// output, a local file, or a Google Cloud Storage object.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// Stdout is the path that selects standard output.
const Stdout = "-"

const gcsScheme = "gs://"

// Opener opens the destination named by path for writing.
type Opener func(ctx context.Context, path string) (io.WriteCloser, error)

// Open resolves path and opens it for writing. Local files are created or
// truncated; standard output is never closed by the returned writer.
func Open(ctx context.Context, path string) (io.WriteCloser, error) {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return nil, errors.New("output path is required")
	case path == Stdout:
		return nopCloser{Writer: os.Stdout}, nil
	case strings.HasPrefix(path, gcsScheme):
		bucket, object, err := ParseGCSURI(path)
		if err != nil {
			return nil, err
		}
		return openGCS(ctx, bucket, object)
	default:
		return openFile(path)
	}
}

// ParseGCSURI splits gs://bucket/object into its bucket and object names.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("not a gs:// uri: %q", uri)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || strings.TrimSpace(object) == "" || strings.HasSuffix(object, "/") {
		return "", "", fmt.Errorf("gs uri %q must name a bucket and an object", uri)
	}
	return bucket, object, nil
}

func openFile(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	// #nosec G304 -- the output path is chosen by the operator.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create output file %s: %w", path, err)
	}
	return f, nil
}

// gcsWriter commits the object on Close and then releases the client.
type gcsWriter struct {
	*storage.Writer
	client *storage.Client
}

func openGCS(ctx context.Context, bucket, object string) (io.WriteCloser, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType(object)
	return &gcsWriter{Writer: w, client: client}, nil
}

func (w *gcsWriter) Close() error {
	werr := w.Writer.Close()
	cerr := w.client.Close()
	if werr != nil {
		return fmt.Errorf("close object writer: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close storage client: %w", cerr)
	}
	return nil
}

func contentType(object string) string {
	switch strings.ToLower(filepath.Ext(object)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".jl", ".jsonl", ".ndjson":
		return "application/x-ndjson"
	default:
		return "application/octet-stream"
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
