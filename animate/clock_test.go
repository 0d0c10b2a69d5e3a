package animate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeTime is a hand-driven time source.
type fakeTime struct{ t time.Time }

func (f *fakeTime) now() time.Time { return f.t }

func (f *fakeTime) add(seconds float64) {
	f.t = f.t.Add(time.Duration(seconds * float64(time.Second)))
}

func TestClockAdvance(t *testing.T) {
	src := &fakeTime{t: time.Unix(1000, 0)}
	c := NewClockWithSource(src.now)
	assert.Zero(t, c.Elapsed())

	src.add(1.5)
	assert.Zero(t, c.Elapsed(), "only Advance moves the clock")
	assert.InDelta(t, 1.5, c.Advance(), 1e-9)
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)

	c.Reset()
	assert.Zero(t, c.Elapsed())
	src.add(0.25)
	assert.InDelta(t, 0.25, c.Advance(), 1e-9)
}

func TestClockIsMonotonic(t *testing.T) {
	src := &fakeTime{t: time.Unix(1000, 0)}
	c := NewClockWithSource(src.now)
	src.add(2)
	c.Advance()
	src.add(-1)
	assert.InDelta(t, 2, c.Advance(), 1e-9)
}
