package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"plantcam/internal/history"
	"plantcam/internal/keypoll"
	"plantcam/internal/logging"
	"plantcam/internal/metrics"
	"plantcam/internal/pipeline"
	"plantcam/internal/schedule"
	"plantcam/internal/services"
)

// State is the agent's loop state.
type State int32

const (
	Idle State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrAlreadyRunning is returned when another process holds the agent lock.
var ErrAlreadyRunning = errors.New("another plantcam agent is already running")

// Dispatcher runs one capture-and-dispatch attempt.
type Dispatcher interface {
	Run(ctx context.Context, now time.Time) pipeline.Outcome
}

// HistoryRecorder persists dispatch attempts.
type HistoryRecorder interface {
	Record(ctx context.Context, attempt history.Attempt) error
}

// Options wires the agent.
type Options struct {
	Tracker      *schedule.Tracker
	Dispatcher   Dispatcher
	OpenListener func() (keypoll.Listener, error)
	QuitKey      byte
	LockPath     string
	Logger       *slog.Logger
	Metrics      metrics.Recorder
	History      HistoryRecorder
	Clock        func() time.Time
	// Sleep waits d or until ctx is done. Tests replace it to drive ticks.
	Sleep func(ctx context.Context, d time.Duration)
}

// Agent owns the tick loop.
type Agent struct {
	tracker      *schedule.Tracker
	dispatcher   Dispatcher
	openListener func() (keypoll.Listener, error)
	quitKey      byte
	lockPath     string
	logger       *slog.Logger
	metrics      metrics.Recorder
	history      HistoryRecorder
	clock        func() time.Time
	sleep        func(ctx context.Context, d time.Duration)

	state atomic.Int32
}

// New validates opts and returns an idle agent.
func New(opts Options) (*Agent, error) {
	if opts.Tracker == nil {
		return nil, errors.New("agent tracker required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("agent dispatcher required")
	}
	if opts.OpenListener == nil {
		return nil, errors.New("agent listener factory required")
	}
	a := &Agent{
		tracker:      opts.Tracker,
		dispatcher:   opts.Dispatcher,
		openListener: opts.OpenListener,
		quitKey:      opts.QuitKey,
		lockPath:     strings.TrimSpace(opts.LockPath),
		logger:       logging.NewComponentLogger(opts.Logger, "agent"),
		metrics:      opts.Metrics,
		history:      opts.History,
		clock:        opts.Clock,
		sleep:        opts.Sleep,
	}
	if a.quitKey == 0 {
		a.quitKey = 'q'
	}
	if a.metrics == nil {
		a.metrics = metrics.NoopRecorder{}
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	if a.sleep == nil {
		a.sleep = sleepContext
	}
	return a, nil
}

// State reports the current loop state.
func (a *Agent) State() State {
	return State(a.state.Load())
}

// Run executes the tick loop until the quit key is pressed or ctx is
// cancelled. The listener is closed exactly once on every exit path,
// including a panic unwinding out of a tick.
func (a *Agent) Run(ctx context.Context) error {
	unlock, err := a.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	listener, err := a.openListener()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "agent", "listener", "open operator input", err)
	}
	defer a.release(listener)

	cfg := a.tracker.Config()
	a.state.Store(int32(Running))
	a.logger.Info("agent started",
		logging.String(logging.FieldEventType, "agent_start"),
		logging.String("quit_key", string(a.quitKey)),
		logging.Int("dispatch_hour", cfg.Hour),
		logging.Duration("poll_interval", cfg.PollInterval),
		logging.Time("next_dispatch", cfg.NextDispatch(a.clock())),
		logging.Bool("dispatched_today", a.tracker.Dispatched()),
	)
	a.logger.Info(fmt.Sprintf("press '%c' to stop", a.quitKey))

	for a.tick(ctx, listener) == Running {
		a.sleep(ctx, cfg.PollInterval)
	}
	return nil
}

// tick performs one loop iteration and returns the resulting state.
func (a *Agent) tick(ctx context.Context, listener keypoll.Listener) State {
	if reason, stop := a.stopRequested(ctx, listener); stop {
		a.state.Store(int32(Stopping))
		a.logger.Info("stop requested",
			logging.String(logging.FieldEventType, "agent_stop_requested"),
			logging.String("reason", reason),
		)
		return Stopping
	}

	now := a.clock()
	if a.tracker.MaybeResetDay(now) {
		a.metrics.IncDayReset()
		a.metrics.SetDispatched(false)
		a.logger.Info("new day started; dispatch re-armed",
			logging.String(logging.FieldEventType, "day_reset"),
			logging.Time("next_dispatch", a.tracker.Config().NextDispatch(now)),
		)
	}
	if a.tracker.ShouldFire(now) {
		a.logger.Info("dispatch window reached",
			logging.String(logging.FieldEventType, "dispatch_window"),
		)
		outcome := a.dispatcher.Run(ctx, now)
		if outcome.Result == pipeline.Completed {
			a.tracker.MarkDispatched(now)
			a.metrics.SetDispatched(true)
		} else {
			a.logger.Info("dispatch not completed; will retry on the next tick inside the window",
				logging.String(logging.FieldEventType, "dispatch_pending"),
				logging.String("result", outcome.Result.String()),
			)
		}
		a.record(ctx, outcome, history.TriggerSchedule)
	}
	return Running
}

// stopRequested drains pending keys and checks for cancellation.
func (a *Agent) stopRequested(ctx context.Context, listener keypoll.Listener) (string, bool) {
	for {
		key, ok := listener.Poll()
		if !ok {
			break
		}
		if key == a.quitKey {
			return "quit key", true
		}
	}
	if ctx.Err() != nil {
		return "shutdown signal", true
	}
	return "", false
}

// DispatchNow runs the pipeline once, ignoring the schedule and the tracker.
func (a *Agent) DispatchNow(ctx context.Context) (pipeline.Outcome, error) {
	unlock, err := a.acquireLock()
	if err != nil {
		return pipeline.Outcome{}, err
	}
	defer unlock()

	outcome := a.dispatcher.Run(ctx, a.clock())
	a.record(ctx, outcome, history.TriggerManual)
	return outcome, nil
}

func (a *Agent) record(ctx context.Context, outcome pipeline.Outcome, trigger string) {
	if a.history == nil {
		return
	}
	// A cancelled run still gets its row.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.history.Record(recordCtx, NewAttempt(outcome, trigger)); err != nil {
		logging.WarnWithContext(a.logger, "dispatch history write failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldDispatchID, outcome.DispatchID),
			logging.String(logging.FieldImpact, "attempt missing from `plantcam history`"),
		)
	}
}

func (a *Agent) release(listener keypoll.Listener) {
	a.state.Store(int32(Stopping))
	if err := listener.Close(); err != nil {
		logging.WarnWithContext(a.logger, "terminal restore failed", "terminal_restore_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `stty sane` in the controlling terminal"),
			logging.String(logging.FieldImpact, "terminal may keep echo disabled"),
		)
	}
	a.logger.Info("agent stopped", logging.String(logging.FieldEventType, "agent_stop"))
}

func (a *Agent) acquireLock() (func(), error) {
	if a.lockPath == "" {
		return func() {}, nil
	}
	lock := flock.New(a.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, a.lockPath)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			a.logger.Warn("failed to release agent lock", logging.Error(err), logging.String("lock", a.lockPath))
		}
	}, nil
}

// NewAttempt converts a pipeline outcome into a history row.
func NewAttempt(outcome pipeline.Outcome, trigger string) history.Attempt {
	attempt := history.Attempt{
		DispatchID:   outcome.DispatchID,
		Trigger:      trigger,
		Result:       outcome.Result.String(),
		StartedAt:    outcome.StartedAt,
		Duration:     outcome.Duration,
		ArtifactPath: outcome.Artifact.Path,
	}
	attempt.ErrorCategory, attempt.ErrorMessage = services.Details(outcome.Err)
	if outcome.CleanupErr != nil {
		attempt.CleanupError = outcome.CleanupErr.Error()
	}
	return attempt
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
