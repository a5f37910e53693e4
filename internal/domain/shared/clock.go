package shared

import "time"

// Clock abstracts the current time source so billing-cycle arithmetic and
// status timestamps can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// NewSystemClock creates the production clock
func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Now returns the current time in UTC
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Tests advance it explicitly.
type FixedClock struct {
	current time.Time
}

// NewFixedClock creates a clock pinned to the given instant
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{current: t}
}

// Now returns the pinned instant
func (c *FixedClock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// Set pins the clock to a new instant
func (c *FixedClock) Set(t time.Time) {
	c.current = t
}
