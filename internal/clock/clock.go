// Package clock supplies the current instant to services so that time based rules can be tested deterministically.
package clock

import "time"

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns a Clock backed by time.Now, in UTC.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. It is intended for tests.
type FixedClock struct {
	T time.Time
}

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) *FixedClock {
	return &FixedClock{T: t}
}

func (c *FixedClock) Now() time.Time {
	return c.T
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
