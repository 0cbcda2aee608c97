// Package clock provides time-unit conversion and the monotonic time source
// that drives the game loop.
package clock

import (
	"fmt"
	"math"
	"time"
)

// Unit is a unit of time.
type Unit int

// Time units, smallest first.
const (
	Nanos Unit = iota
	Micros
	Millis
	Secs
	Mins
	Hours
	Days
)

var (
	unitNanos = [...]float64{
		Nanos:  1,
		Micros: 1e3,
		Millis: 1e6,
		Secs:   1e9,
		Mins:   60e9,
		Hours:  3600e9,
		Days:   86400e9,
	}
	unitNames = [...]string{
		Nanos:  "ns",
		Micros: "µs",
		Millis: "ms",
		Secs:   "s",
		Mins:   "min",
		Hours:  "h",
		Days:   "d",
	}
)

// String returns the unit's abbreviation.
func (u Unit) String() string {
	if u < Nanos || u > Days {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// Duration returns the time.Duration of one u.
func (u Unit) Duration() time.Duration {
	return time.Duration(unitNanos[u])
}

// Convert converts value from one unit to another. Infinite values are
// returned unchanged.
func Convert(value float64, from, to Unit) float64 {
	if from == to || math.IsInf(value, 0) {
		return value
	}
	return value * unitNanos[from] / unitNanos[to]
}

// In expresses d in unit u.
func In(d time.Duration, u Unit) float64 {
	return Convert(float64(d), Nanos, u)
}

// Of returns the duration of value units of u, truncated to the nanosecond.
func Of(value float64, u Unit) time.Duration {
	return time.Duration(Convert(value, u, Nanos))
}

// Clock is a monotonic time source.
type Clock interface {
	Now() time.Duration
}

// System is a Clock backed by the runtime's monotonic clock, measured from
// its creation.
type System struct {
	start time.Time
}

// NewSystem returns a System clock started now.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Now returns the time elapsed since the clock was created.
func (s *System) Now() time.Duration {
	return time.Since(s.start)
}

// Manual is a Clock advanced by hand, used to drive the loop deterministically.
type Manual struct {
	now time.Duration
}

// Now returns the clock's current reading.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: negative advance")
	}
	m.now += d
}
