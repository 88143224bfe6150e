package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
)

func TestQueueFIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue(crawler.Task{URL: "https://example.com/a", Parser: "p"})
	q.Enqueue(crawler.Task{URL: "https://example.com/b", Parser: "p"})
	require.Equal(t, 2, q.Len())

	first, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, "https://example.com/a", first.URL)

	q.Enqueue(crawler.Task{URL: "https://example.com/c", Parser: "p"})

	second, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, "https://example.com/b", second.URL)

	third, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, "https://example.com/c", third.URL)

	_, ok = q.Dequeue()
	require.False(t, ok)
	require.Zero(t, q.Len())
}

func TestQueueCompactsConsumedPrefix(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	for i := 0; i < 200; i++ {
		q.Enqueue(crawler.Task{URL: fmt.Sprintf("https://example.com/%d", i), Parser: "p"})
	}
	for i := 0; i < 150; i++ {
		task, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("https://example.com/%d", i), task.URL)
	}
	require.Equal(t, 50, q.Len())
	for i := 150; i < 200; i++ {
		task, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("https://example.com/%d", i), task.URL)
	}
	require.Zero(t, q.Len())
}
