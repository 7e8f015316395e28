package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "plantcam"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	dispatchDuration prom.Histogram
	dispatchOutcome  *prom.CounterVec
	dayResets        prom.Counter
	dispatched       prom.Gauge
	restarts         prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of capture, send and cleanup stages",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		dispatchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Total duration of a capture-and-dispatch run",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),
		dispatchOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_outcomes_total",
			Help:      "Dispatch runs by final result",
		}, []string{"outcome"}),
		dayResets: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "day_resets_total",
			Help:      "Midnight transitions that re-armed the daily dispatch",
		}),
		dispatched: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatched_today",
			Help:      "1 once today's photo has been delivered, 0 while pending",
		}),
		restarts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "agent_restarts_total",
			Help:      "Agent restarts performed by the supervisor",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.dispatchDuration, pr.dispatchOutcome, pr.dayResets, pr.dispatched, pr.restarts)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveDispatchDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.dispatchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDispatchOutcome(outcome string) {
	if p == nil {
		return
	}
	p.dispatchOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncDayReset() {
	if p == nil {
		return
	}
	p.dayResets.Inc()
}

func (p *PrometheusRecorder) SetDispatched(dispatched bool) {
	if p == nil {
		return
	}
	if dispatched {
		p.dispatched.Set(1)
		return
	}
	p.dispatched.Set(0)
}

func (p *PrometheusRecorder) IncRestart() {
	if p == nil {
		return
	}
	p.restarts.Inc()
}
