// Package metrics exposes dispatch counters and timings.
//
// Components take a Recorder; NoopRecorder is the default so the agent and
// pipeline never nil-check. When [metrics] is enabled the command wires a
// PrometheusRecorder and serves the registry with Serve.
package metrics
