package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/config"
	"github.com/spec-kit/agency-admin/internal/events"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const maxBackoff = time.Minute

// Task outcomes reported to metrics.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// TaskRecorder counts task outcomes.
type TaskRecorder interface {
	RecordTask(kind, outcome string)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether retrying err cannot help: explicitly marked
// failures, unknown task kinds and client-side domain errors.
func IsPermanent(err error) bool {
	var p *permanentError
	if errors.As(err, &p) || errors.Is(err, events.ErrNoHandler) {
		return true
	}
	var domainErr *apperrors.DomainError
	return errors.As(err, &domainErr) && domainErr.HTTPStatus < http.StatusInternalServerError
}

// SideEffectWorker drains the outbound queue and runs each task through the router.
type SideEffectWorker struct {
	queue       events.Queue
	router      *events.Router
	logger      *zap.Logger
	metrics     TaskRecorder
	concurrency int
	maxAttempts int
	baseBackoff time.Duration
	sleep       func(context.Context, time.Duration) error
}

// New builds a worker from the queue configuration. metrics may be nil.
func New(queue events.Queue, router *events.Router, cfg config.QueueConfig, logger *zap.Logger, metrics TaskRecorder) *SideEffectWorker {
	concurrency := cfg.Workers
	if concurrency <= 0 {
		concurrency = 1
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &SideEffectWorker{
		queue:       queue,
		router:      router,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
		maxAttempts: attempts,
		baseBackoff: cfg.BaseBackoff(),
		sleep:       sleepContext,
	}
}

// Run consumes until ctx is cancelled. It returns the first consumer error.
func (w *SideEffectWorker) Run(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := w.queue.Consume(ctx, w.Handle); err != nil && ctx.Err() == nil {
				w.logger.Error("queue consumer stopped", zap.Int("consumer", id), zap.Error(err))
				once.Do(func() { firstErr = err })
			}
		}(i)
	}
	w.logger.Info("side effect worker started", zap.Int("consumers", w.concurrency))
	wg.Wait()
	return firstErr
}

// Handle runs one task to completion, retrying transient failures with
// exponential backoff. A returned error tells the queue to dead-letter the task.
func (w *SideEffectWorker) Handle(ctx context.Context, task events.Task) error {
	kind := string(task.Kind)
	for attempt := 1; ; attempt++ {
		task.Attempt = attempt
		err := w.invoke(ctx, task)
		if err == nil {
			w.record(kind, OutcomeSucceeded)
			return nil
		}

		fields := []zap.Field{
			zap.String("kind", kind),
			zap.String("task_id", task.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		}
		if IsPermanent(err) {
			w.logger.Error("side effect dropped", fields...)
			w.record(kind, OutcomeDropped)
			return err
		}
		if attempt >= w.maxAttempts {
			w.logger.Error("side effect failed after retries", fields...)
			w.record(kind, OutcomeFailed)
			return err
		}

		w.logger.Warn("side effect failed, retrying", fields...)
		w.record(kind, OutcomeRetried)
		if err := w.sleep(ctx, w.backoff(attempt)); err != nil {
			return err
		}
	}
}

func (w *SideEffectWorker) invoke(ctx context.Context, task events.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return w.router.Route(ctx, task)
}

func (w *SideEffectWorker) backoff(attempt int) time.Duration {
	if attempt > 30 {
		return maxBackoff
	}
	d := w.baseBackoff << (attempt - 1)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func (w *SideEffectWorker) record(kind, outcome string) {
	if w.metrics != nil {
		w.metrics.RecordTask(kind, outcome)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
