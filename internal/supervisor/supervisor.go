// Package supervisor restarts the agent after a crash.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"plantcam/internal/logging"
	"plantcam/internal/metrics"
)

// Options tunes the restart policy.
type Options struct {
	// RestartDelay is the fixed pause before a restart.
	RestartDelay time.Duration
	// MaxRestarts stops the loop after that many restarts; 0 means unlimited.
	MaxRestarts int
	Logger      *slog.Logger
	Metrics     metrics.Recorder
	Sleep       func(ctx context.Context, d time.Duration)
}

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Run calls fn until it returns normally or ctx is cancelled. A panic in fn is
// logged and followed by a restart after RestartDelay. A returned error ends
// the loop and is passed back unchanged.
func Run(ctx context.Context, opts Options, fn func(context.Context) error) error {
	logger := logging.NewComponentLogger(opts.Logger, "supervisor")
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	restarts := 0
	for {
		crash, err := protect(ctx, fn)
		if crash == nil {
			return err
		}

		logging.ErrorWithContext(logger, "agent crashed", "agent_crash",
			logging.Any("panic", crash.Value),
			logging.String("stack", string(crash.Stack)),
			logging.Duration("restart_delay", opts.RestartDelay),
			logging.Int("restarts", restarts),
			logging.String(logging.FieldErrorHint, "inspect the stack trace; the agent restarts automatically"),
		)
		if opts.MaxRestarts > 0 && restarts >= opts.MaxRestarts {
			return crash
		}

		sleep(ctx, opts.RestartDelay)
		if ctx.Err() != nil {
			return nil
		}
		restarts++
		recorder.IncRestart()
		logger.Info("restarting agent",
			logging.String(logging.FieldEventType, "agent_restart"),
			logging.Int("restarts", restarts),
		)
	}
}

func protect(ctx context.Context, fn func(context.Context) error) (crash *PanicError, err error) {
	defer func() {
		if r := recover(); r != nil {
			crash = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return nil, fn(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
