package watch

import "time"

// Clock schedules the wait between polls.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// SystemClock waits on real timers.
type SystemClock struct{}

// After implements Clock.
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
