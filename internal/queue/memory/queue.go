// Package memory provides the in-process work queue used by the crawl engine.
package memory

import (
	"github.com/JakeFAU/catalog-scraper/internal/crawler"
)

// Queue is an unbounded FIFO of crawl tasks. It is owned by a single crawl loop
// and is not safe for concurrent use.
type Queue struct {
	items []crawler.Task
	head  int
}

// NewQueue constructs a queue seeded with the provided tasks, in order.
func NewQueue(seed ...crawler.Task) *Queue {
	q := &Queue{}
	for _, t := range seed {
		q.Enqueue(t)
	}
	return q
}

// Enqueue appends a task at the tail.
func (q *Queue) Enqueue(task crawler.Task) {
	q.items = append(q.items, task)
}

// Dequeue removes and returns the head task. ok is false when the queue is empty.
func (q *Queue) Dequeue() (task crawler.Task, ok bool) {
	if q.head >= len(q.items) {
		return crawler.Task{}, false
	}
	task = q.items[q.head]
	q.items[q.head] = crawler.Task{}
	q.head++
	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 64 && q.head*2 >= len(q.items) {
		q.items = append([]crawler.Task(nil), q.items[q.head:]...)
		q.head = 0
	}
	return task, true
}

// Len reports the number of pending tasks.
func (q *Queue) Len() int {
	return len(q.items) - q.head
}
