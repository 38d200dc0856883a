package ros2

import (
	gotime "time"
)

const maxUint32 = int64(^uint32(0))

const secondInNanosecond = 1000000000

func normalizeTemporal(sec int64, nsec int64) (uint32, uint32) {
	if nsec >= secondInNanosecond {
		sec += nsec / secondInNanosecond
		nsec = nsec % secondInNanosecond
	} else if nsec < 0 {
		sec += nsec/secondInNanosecond - 1
		nsec = nsec%secondInNanosecond + secondInNanosecond
	}

	if sec < 0 || sec > maxUint32 {
		panic("Time is out of range")
	}

	return uint32(sec), uint32(nsec)
}

func cmpUint64(lhs, rhs uint64) int {
	if lhs > rhs {
		return 1
	} else if lhs < rhs {
		return -1
	}
	return 0
}

// Time is a wire level timestamp of whole seconds and nanoseconds since the
// epoch, as carried in stamped messages. Arithmetic beyond that uses the
// standard library time.Duration.
type Time struct {
	Sec  uint32
	NSec uint32
}

// NewTime creates a Time from second and nanosecond counts, carrying
// nanosecond overflow into the seconds.
func NewTime(sec uint32, nsec uint32) Time {
	s, ns := normalizeTemporal(int64(sec), int64(nsec))
	return Time{s, ns}
}

// Now returns the current wall clock reading as a Time.
func Now() Time {
	sec, nsec := normalizeTemporal(0, gotime.Now().UnixNano())
	return Time{sec, nsec}
}

func (t Time) IsZero() bool {
	return t.Sec == 0 && t.NSec == 0
}

func (t Time) ToSec() float64 {
	return float64(t.Sec) + float64(t.NSec)*1e-9
}

func (t Time) ToNSec() uint64 {
	return uint64(t.Sec)*secondInNanosecond + uint64(t.NSec)
}

// Add returns the Time shifted by d, which may be negative.
func (t Time) Add(d gotime.Duration) Time {
	sec, nsec := normalizeTemporal(int64(t.Sec), int64(t.NSec)+d.Nanoseconds())
	return Time{sec, nsec}
}

// Diff returns the signed duration from from to t.
func (t Time) Diff(from Time) gotime.Duration {
	return gotime.Duration(int64(t.ToNSec()) - int64(from.ToNSec()))
}

// Cmp returns 1, -1 or 0 as t is after, before or equal to other.
func (t Time) Cmp(other Time) int {
	return cmpUint64(t.ToNSec(), other.ToNSec())
}
