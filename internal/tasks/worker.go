package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/rs/zerolog/log"
)

// CodeFailure is recorded when a failed task carries no more specific code.
const CodeFailure = "failure"

var ErrUnknownTask = apperr.Validation("unknown_task", "no handler registered for task")

// HandlerFunc runs one task. The returned value is stored as the task
// result: json.RawMessage and []byte are kept as-is, anything else is
// JSON encoded.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

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

// IsPermanent reports whether err should skip retries: explicitly marked
// errors and validation or not-found errors, which will not heal.
func IsPermanent(err error) bool {
	var p *permanentError
	if errors.As(err, &p) {
		return true
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound:
		return true
	}
	return false
}

// Worker pulls tasks from a Queue and runs them with bounded concurrency.
type Worker struct {
	queue       *Queue
	handlers    map[string]HandlerFunc
	concurrency int
	maxRetries  int
	popTimeout  time.Duration
	taskTimeout time.Duration
}

func NewWorker(q *Queue, concurrency, maxRetries int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		queue:       q,
		handlers:    make(map[string]HandlerFunc),
		concurrency: concurrency,
		maxRetries:  maxRetries,
		popTimeout:  2 * time.Second,
		taskTimeout: 10 * time.Minute,
	}
}

// Handle registers fn for tasks submitted under name.
func (w *Worker) Handle(name string, fn HandlerFunc) {
	w.handlers[name] = fn
}

// Run processes tasks until ctx is canceled. Tasks already running when
// ctx is canceled are allowed to finish.
func (w *Worker) Run(ctx context.Context) {
	log.Info().Int("concurrency", w.concurrency).Msg("task worker started")

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for ctx.Err() == nil {
				if _, err := w.ProcessNext(ctx); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Int("slot", slot).Msg("task loop error")
					select {
					case <-ctx.Done():
					case <-time.After(time.Second):
					}
				}
			}
		}(i)
	}
	wg.Wait()

	log.Info().Msg("task worker stopped")
}

// ProcessNext waits for one task and runs it. It reports false when the
// queue stayed empty for the pop timeout.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	env, err := w.queue.pop(ctx, w.popTimeout)
	if err != nil {
		return false, err
	}
	if env == nil {
		return false, nil
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.taskTimeout)
	defer cancel()

	logger := log.With().Str("task_id", env.ID).Str("task", env.Name).Int("attempt", env.Attempt).Logger()
	start := time.Now()

	result, err := w.execute(runCtx, *env)
	if err == nil {
		payload, encErr := encodeResult(result)
		if encErr != nil {
			err = Permanent(encErr)
		} else {
			logger.Info().Dur("took", time.Since(start)).Msg("task succeeded")
			return true, w.queue.markSuccess(runCtx, *env, payload)
		}
	}

	if !IsPermanent(err) && env.Attempt < w.maxRetries {
		logger.Warn().Err(err).Msg("task failed, retrying")
		next := *env
		next.Attempt++
		return true, w.queue.requeue(runCtx, next)
	}

	code := apperr.CodeOf(err)
	if code == "" {
		code = CodeFailure
	}
	logger.Error().Err(err).Str("code", code).Msg("task failed")
	return true, w.queue.markFailure(runCtx, *env, code, err.Error())
}

func (w *Worker) execute(ctx context.Context, env envelope) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	fn, ok := w.handlers[env.Name]
	if !ok {
		return nil, ErrUnknownTask.WithMessage(fmt.Sprintf("no handler registered for task %q", env.Name))
	}
	return fn(ctx, env.Args)
}

func encodeResult(v any) ([]byte, error) {
	switch r := v.(type) {
	case json.RawMessage:
		return r, nil
	case []byte:
		return r, nil
	}
	return json.Marshal(v)
}
