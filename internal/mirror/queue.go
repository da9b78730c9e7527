package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is one pending asset download: the absolute URL and the local
// destination the path mapper derived for it.
type Task struct {
	URL  string
	Dest string
}

// ErrQueueClosed is returned by Dequeue once the queue is closed and drained.
var ErrQueueClosed = errors.New("asset queue closed")

// AssetQueue is the bounded queue shared between the driving goroutine and
// the download workers. Closing it is the explicit "no more work" signal
// that lets workers exit without polling timeouts.
type AssetQueue struct {
	ch      chan Task
	closeMu sync.Mutex
	closed  bool
}

// NewAssetQueue constructs a queue with the provided capacity.
func NewAssetQueue(capacity int) *AssetQueue {
	return &AssetQueue{
		ch: make(chan Task, capacity),
	}
}

// Enqueue pushes a task, blocking when the queue is full, or returns if
// the context ends first.
func (q *AssetQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- task:
		return nil
	}
}

// Dequeue pops the next task, blocking until work arrives, the queue is
// closed, or the context ends.
func (q *AssetQueue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case <-ctx.Done():
		return Task{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case task, ok := <-q.ch:
		if !ok {
			return Task{}, ErrQueueClosed
		}
		return task, nil
	}
}

// Close marks the queue complete. Safe to call more than once.
func (q *AssetQueue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
