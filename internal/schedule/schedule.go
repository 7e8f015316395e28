package schedule

import (
	"fmt"
	"time"
)

// Config is the immutable daily schedule.
type Config struct {
	Hour         int
	Minute       int
	PollInterval time.Duration
	Location     *time.Location
}

// NewConfig validates the schedule parameters. A nil location means local time.
func NewConfig(hour int, pollInterval time.Duration, loc *time.Location) (Config, error) {
	if hour < 0 || hour > 23 {
		return Config{}, fmt.Errorf("schedule hour must be between 0 and 23, got %d", hour)
	}
	if pollInterval <= 0 {
		return Config{}, fmt.Errorf("schedule poll interval must be positive, got %s", pollInterval)
	}
	if loc == nil {
		loc = time.Local
	}
	return Config{Hour: hour, Minute: 0, PollInterval: pollInterval, Location: loc}, nil
}

// IsDispatchWindow reports whether now falls inside the dispatch minute.
func (c Config) IsDispatchWindow(now time.Time) bool {
	now = c.local(now)
	return now.Hour() == c.Hour && now.Minute() == c.Minute
}

// IsResetWindow reports whether now falls inside the midnight reset minute.
func (c Config) IsResetWindow(now time.Time) bool {
	now = c.local(now)
	return now.Hour() == 0 && now.Minute() == 0
}

// NextDispatch returns the start of the next dispatch window strictly after now.
func (c Config) NextDispatch(now time.Time) time.Time {
	now = c.local(now)
	next := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (c Config) local(now time.Time) time.Time {
	if c.Location == nil {
		return now
	}
	return now.In(c.Location)
}
