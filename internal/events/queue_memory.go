package events

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when the in-process buffer has no room.
	ErrQueueFull = errors.New("task queue is full")
	// ErrQueueClosed is returned when publishing after Close.
	ErrQueueClosed = errors.New("task queue is closed")
)

// MemoryQueue is an in-process queue backed by a buffered channel.
// Tasks do not survive a restart.
type MemoryQueue struct {
	mu     sync.RWMutex
	tasks  chan Task
	closed bool

	deadMu sync.Mutex
	dead   []Task
}

// NewMemoryQueue creates a queue holding up to buffer pending tasks.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 256
	}
	return &MemoryQueue{tasks: make(chan Task, buffer)}
}

// Publish enqueues without blocking the caller.
func (q *MemoryQueue) Publish(ctx context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Consume processes tasks until ctx is done or the queue is closed.
func (q *MemoryQueue) Consume(ctx context.Context, handler TaskHandler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case task, ok := <-q.tasks:
			if !ok {
				return nil
			}
			if err := handler(ctx, task); err != nil {
				q.deadMu.Lock()
				q.dead = append(q.dead, task)
				q.deadMu.Unlock()
			}
		}
	}
}

// DeadLetters returns the tasks whose handler gave up.
func (q *MemoryQueue) DeadLetters() []Task {
	q.deadMu.Lock()
	defer q.deadMu.Unlock()
	return append([]Task(nil), q.dead...)
}

// Close stops accepting tasks and lets consumers drain.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	return nil
}
