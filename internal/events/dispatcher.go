package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoHandler is returned when a task kind has no registered handler.
var ErrNoHandler = errors.New("no handler registered for task kind")

// TaskHandler processes one task. A returned error marks the attempt as failed.
type TaskHandler func(context.Context, Task) error

// Publisher accepts tasks for asynchronous processing.
type Publisher interface {
	Publish(ctx context.Context, task Task) error
}

// Queue is a Publisher that can also be consumed.
// Consume blocks until ctx is done; a handler error dead-letters the task.
type Queue interface {
	Publisher
	Consume(ctx context.Context, handler TaskHandler) error
	Close() error
}

// Router routes tasks to the handler registered for their kind.
type Router struct {
	mu       sync.RWMutex
	handlers map[TaskKind]TaskHandler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[TaskKind]TaskHandler)}
}

// Subscribe registers the handler for kind, replacing any previous one.
func (r *Router) Subscribe(kind TaskKind, handler TaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

// Route invokes the handler registered for the task kind.
func (r *Router) Route(ctx context.Context, task Task) error {
	r.mu.RLock()
	handler, ok := r.handlers[task.Kind]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, task.Kind)
	}
	return handler(ctx, task)
}
