package animate

import "time"

// Clock measures elapsed seconds since Reset. Only Advance moves it, so every
// reader within one frame sees the same time.
type Clock struct {
	now     func() time.Time
	start   time.Time
	elapsed float64
}

// NewClock starts a clock on the wall clock.
func NewClock() *Clock {
	return NewClockWithSource(time.Now)
}

// NewClockWithSource starts a clock driven by now, which must be monotonic.
func NewClockWithSource(now func() time.Time) *Clock {
	c := &Clock{now: now}
	c.Reset()
	return c
}

// Advance samples the time source and returns the new elapsed time.
func (c *Clock) Advance() float64 {
	e := c.now().Sub(c.start).Seconds()
	if e > c.elapsed {
		c.elapsed = e
	}
	return c.elapsed
}

// Elapsed is the value of the last Advance.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

func (c *Clock) Reset() {
	c.start = c.now()
	c.elapsed = 0
}
