// Package poller runs trigger-then-poll jobs against slow backend operations,
// such as a soil measurement or a camera scan, with a bounded number of attempts.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smartagrinode/agrinode/pkg/logging"
	"go.uber.org/zap"
)

// ErrTimeout is returned when a job is still pending after its last attempt.
var ErrTimeout = errors.New("timed out waiting for result")

// TriggerError wraps a failed trigger. No polling happens after it.
type TriggerError struct {
	Job string
	Err error
}

func (e *TriggerError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Job, e.Err)
}

func (e *TriggerError) Unwrap() error {
	return e.Err
}

// Config bounds a poll loop.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// Validate checks that the loop is bounded.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Interval)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("poll max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

// Job describes one trigger-then-poll operation.
type Job[T any] struct {
	// Name identifies the job in logs and errors.
	Name string
	// Trigger starts the operation. Optional.
	Trigger func(ctx context.Context) error
	// Check fetches the current state and reports whether it is final.
	Check func(ctx context.Context) (T, bool, error)
	// Progress receives every checked value that is not final. Optional.
	Progress func(T)
}

// Poller runs jobs producing values of type T.
type Poller[T any] struct {
	cfg    Config
	logger *logging.Logger
}

// New creates a poller. A nil logger discards output.
func New[T any](cfg Config, logger *logging.Logger) *Poller[T] {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Poller[T]{cfg: cfg, logger: logger.Named("poller")}
}

// Run triggers the job and checks it once per interval until it is done,
// MaxAttempts checks have been made, or ctx ends. On timeout the last
// checked value is returned together with ErrTimeout.
func (p *Poller[T]) Run(ctx context.Context, job Job[T]) (T, error) {
	var last T

	if err := p.cfg.Validate(); err != nil {
		return last, err
	}

	ctx = logging.WithPoll(ctx, job.Name)

	if job.Trigger != nil {
		if err := job.Trigger(ctx); err != nil {
			p.logger.Warn(ctx, "trigger failed", zap.Error(err))
			return last, &TriggerError{Job: job.Name, Err: err}
		}
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}

		v, done, err := job.Check(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			p.logger.Warn(ctx, "poll check failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
		case done:
			p.logger.Debug(ctx, "poll complete", zap.Int("attempt", attempt))
			return v, nil
		default:
			last = v
			if job.Progress != nil {
				job.Progress(v)
			}
		}

		if attempt >= p.cfg.MaxAttempts {
			p.logger.Warn(ctx, "poll gave up", zap.Int("attempts", attempt))
			return last, ErrTimeout
		}
	}
}

// Start runs the job in the background. onDone receives the outcome unless
// the handle was cancelled first.
func (p *Poller[T]) Start(ctx context.Context, job Job[T], onDone func(T, error)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	guarded := job
	if job.Progress != nil {
		guarded.Progress = func(v T) {
			h.deliver(func() { job.Progress(v) })
		}
	}

	go func() {
		defer close(h.done)
		defer cancel()

		v, err := p.Run(ctx, guarded)
		if onDone != nil {
			h.deliver(func() { onDone(v, err) })
		}
	}()

	return h
}
