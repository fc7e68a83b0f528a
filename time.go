package bspline

import "math"

// Time is the set of types usable as spline time. Durations are represented
// by the same type as times.
type Time interface {
	~float64 | ~int64
}

// TimePolicy describes the arithmetic of a time domain.
type TimePolicy[T Time] interface {
	// Sub returns the duration a - b.
	Sub(a, b T) T
	// Ratio returns num / den as a real number.
	Ratio(num, den T) float64
	// Interpolate returns the time of boundary pos when [from, till] is
	// divided into the given number of equal segments. pos may lie outside
	// [0, segments].
	Interpolate(from, till T, segments, pos int) T
	// SegmentIndex is the floor-based inverse of Interpolate: it returns the
	// index of the segment containing t.
	SegmentIndex(from, till T, segments int, t T) int
	// AsDouble converts a duration to a real number of time units.
	AsDouble(d T) float64
}

// Seconds is the time policy of continuous time in seconds.
type Seconds struct{}

var _ TimePolicy[float64] = Seconds{}

func (Seconds) Sub(a, b float64) float64      { return a - b }
func (Seconds) Ratio(num, den float64) float64 { return num / den }
func (Seconds) AsDouble(d float64) float64     { return d }

func (Seconds) Interpolate(from, till float64, segments, pos int) float64 {
	if pos == segments {
		return till
	}
	return from + (till-from)*float64(pos)/float64(segments)
}

func (Seconds) SegmentIndex(from, till float64, segments int, t float64) int {
	return int(math.Floor(float64(segments) * (t - from) / (till - from)))
}

// Ticks is the time policy of integer ticks, One of which make up a unit of
// time.
type Ticks struct {
	One int64
}

var _ TimePolicy[int64] = Ticks{}

// Nanoseconds counts time in nanoseconds with seconds as the unit.
var Nanoseconds = Ticks{One: 1e9}

func (Ticks) Sub(a, b int64) int64 { return a - b }

func (Ticks) Ratio(num, den int64) float64 {
	return float64(num) / float64(den)
}

func (tk Ticks) AsDouble(d int64) float64 {
	return float64(d) / float64(tk.One)
}

func (Ticks) Interpolate(from, till int64, segments, pos int) int64 {
	return from + floorDiv((till-from)*int64(pos), int64(segments))
}

func (Ticks) SegmentIndex(from, till int64, segments int, t int64) int {
	return int(floorDiv((t-from)*int64(segments), till-from))
}

// floorDiv returns ⌊a/b⌋ for b > 0.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
