package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLocalFileCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	w, err := Open(context.Background(), path)
	require.NoError(t, err)

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestOpenLocalFileTruncates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.jl")
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0o600))

	w, err := Open(context.Background(), path)
	require.NoError(t, err)
	_, err = w.Write([]byte("{}\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}

func TestOpenStdoutIsNotClosed(t *testing.T) {
	t.Parallel()

	w, err := Open(context.Background(), Stdout)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestOpenRejectsBadPaths(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), " ")
	require.Error(t, err)

	_, err = Open(context.Background(), "gs://bucket-only")
	require.Error(t, err)

	dir := t.TempDir()
	_, err = Open(context.Background(), dir)
	require.Error(t, err)
}

func TestParseGCSURI(t *testing.T) {
	t.Parallel()

	bucket, object, err := ParseGCSURI("gs://scrapes/muztorg/2024-01-01.csv")
	require.NoError(t, err)
	assert.Equal(t, "scrapes", bucket)
	assert.Equal(t, "muztorg/2024-01-01.csv", object)

	for _, bad := range []string{"s3://bucket/key", "gs://", "gs:///key", "gs://bucket/", "gs://bucket/dir/"} {
		_, _, err := ParseGCSURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text/csv; charset=utf-8", contentType("a/b.CSV"))
	assert.Equal(t, "application/x-ndjson", contentType("a.jl"))
	assert.Equal(t, "application/octet-stream", contentType("a"))
}
