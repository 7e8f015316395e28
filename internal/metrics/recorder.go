package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for the dispatch pipeline and agent loop.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveDispatchDuration(d time.Duration)
	IncDispatchOutcome(outcome string) // outcome: completed|capture_failed|send_failed
	IncDayReset()
	SetDispatched(dispatched bool)
	IncRestart()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveDispatchDuration(time.Duration)      {}
func (NoopRecorder) IncDispatchOutcome(string)                  {}
func (NoopRecorder) IncDayReset()                               {}
func (NoopRecorder) SetDispatched(bool)                         {}
func (NoopRecorder) IncRestart()                                {}
