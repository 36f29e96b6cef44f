package clock

import "time"

// Clock provides the time stamped on account records. Mocked in tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time in UTC, without a monotonic reading, so it
// survives a storage round trip unchanged
func (c *RealClock) Now() time.Time {
	return time.Now().UTC().Round(0)
}
