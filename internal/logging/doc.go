// Package logging assembles structured slog loggers and formatting helpers used
// across plantcam.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with dispatch IDs and stage names automatically. Console output is
// colourised only when it goes to a terminal. The package also provides a
// no-op logger for tests and wiring code that cannot fail, plus retention
// pruning for per-run log files.
package logging
