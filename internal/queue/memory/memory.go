// Package memory provides a bounded in-memory queue for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fredjeong/news-data-processing/internal/queue"
)

// Queue is a bounded channel-backed queue implementing both queue.Publisher
// and queue.Consumer, so the collector and consumer can be wired end to end
// in-process.
type Queue struct {
	ch      chan []byte
	closeMu sync.Mutex
	closed  bool
}

// New constructs a queue with the provided capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{ch: make(chan []byte, capacity)}
}

// Publish pushes a payload or returns when the context ends.
func (q *Queue) Publish(ctx context.Context, payload []byte) error {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		return queue.ErrClosed
	}
	q.closeMu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("publish canceled: %w", ctx.Err())
	case q.ch <- payload:
		return nil
	}
}

// Next pops the next payload, respecting context cancellation.
func (q *Queue) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("consume canceled: %w", ctx.Err())
	case payload, ok := <-q.ch:
		if !ok {
			return nil, queue.ErrClosed
		}
		return payload, nil
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() error {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return nil
	}
	close(q.ch)
	q.closed = true
	return nil
}
