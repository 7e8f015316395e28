// Package schedule decides when the daily dispatch should happen.
//
// Config describes the fixed daily window (the first minute of the configured
// hour). Tracker owns the "already dispatched today" flag and is the only
// place that flips it. The flag lives in memory only; a restarted agent starts
// pending again.
package schedule
