package jsonlsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
	"github.com/JakeFAU/catalog-scraper/internal/record"
)

type memDest struct {
	bytes.Buffer
	closes int
}

func (m *memDest) Close() error {
	m.closes++
	return nil
}

func TestSinkWritesOneObjectPerLine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dst := &memDest{}
	s := New(Config{Open: func(context.Context, string) (io.WriteCloser, error) { return dst, nil }}, nil)

	require.NoError(t, s.Open(ctx))
	for _, name := range []string{"alpha", "beta"} {
		p := record.Product{ItemName: name, URL: "https://example.com/" + name}
		p.Set(record.FieldColor, "Натуральный")
		require.NoError(t, s.Submit(ctx, p))
	}
	require.NoError(t, s.Close(ctx))

	lines := strings.Split(strings.TrimSuffix(dst.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for i, name := range []string{"alpha", "beta"} {
		var decoded map[string]*string
		require.NoError(t, json.Unmarshal([]byte(lines[i]), &decoded))
		require.NotNil(t, decoded["item_name"])
		assert.Equal(t, name, *decoded["item_name"])
		require.NotNil(t, decoded["color"])
		assert.Equal(t, "Натуральный", *decoded["color"])
		assert.Nil(t, decoded["price"])
		assert.Len(t, decoded, 13)
	}
	assert.True(t, strings.HasPrefix(lines[0], `{"item_name":"alpha","price":null`))
	assert.Equal(t, 1, dst.closes)
}

func TestSinkFlushesEachLine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "products.jl")
	s := New(Config{Path: path}, nil)
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Submit(ctx, record.Product{ItemName: "alpha", URL: "u"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	require.NoError(t, s.Close(ctx))
}

func TestSinkLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dst := &memDest{}
	s := New(Config{Open: func(context.Context, string) (io.WriteCloser, error) { return dst, nil }}, nil)

	require.ErrorIs(t, s.Submit(ctx, record.Product{}), crawler.ErrSinkState)
	require.NoError(t, s.Open(ctx))
	require.ErrorIs(t, s.Open(ctx), crawler.ErrSinkState)
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 1, dst.closes)
	assert.Zero(t, dst.Len())
}

func TestSinkOpenFailure(t *testing.T) {
	t.Parallel()

	s := New(Config{Open: func(context.Context, string) (io.WriteCloser, error) {
		return nil, errors.New("no such bucket")
	}}, nil)
	require.ErrorIs(t, s.Open(context.Background()), crawler.ErrBackendUnavailable)
	require.NoError(t, s.Close(context.Background()))
}
