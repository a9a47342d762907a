// Package clock abstracts the wall clock so expiry can be tested.
package clock

import "time"

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Deadline returns the unix second at which something started now and lasting d ends.
// Sub-second durations are truncated.
func Deadline(c Clock, d time.Duration) int64 {
	return c.Now().Unix() + int64(d/time.Second)
}
