package schedule

import (
	"sync"
	"time"
)

// Tracker holds the per-day dispatch flag.
type Tracker struct {
	cfg Config

	mu         sync.Mutex
	dispatched bool
	// lastDispatch is the calendar day of the last MarkDispatched call.
	lastDispatch time.Time
}

// NewTracker returns a tracker in the pending state.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// Config returns the schedule the tracker evaluates.
func (t *Tracker) Config() Config {
	return t.cfg
}

// ShouldFire reports whether the pipeline should run at now.
func (t *Tracker) ShouldFire(now time.Time) bool {
	if !t.cfg.IsDispatchWindow(now) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.dispatched
}

// MaybeResetDay clears the dispatched flag during the midnight minute and
// reports whether a transition happened. A dispatch recorded earlier on the
// same calendar day survives, so an hour of 0 cannot fire twice.
func (t *Tracker) MaybeResetDay(now time.Time) bool {
	if !t.cfg.IsResetWindow(now) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dispatched {
		return false
	}
	if !t.lastDispatch.Before(t.day(now)) {
		return false
	}
	t.dispatched = false
	return true
}

// MarkDispatched records a completed dispatch for the day containing now.
func (t *Tracker) MarkDispatched(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dispatched = true
	t.lastDispatch = t.day(now)
}

// Dispatched reports the current flag value.
func (t *Tracker) Dispatched() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dispatched
}

func (t *Tracker) day(now time.Time) time.Time {
	now = t.cfg.local(now)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
