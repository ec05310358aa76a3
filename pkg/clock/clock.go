package clock

import "time"

// Time unit conversions.
const (
	MicrosPerSecond = 1_000_000
	MicrosPerMilli  = 1_000
	MillisPerSecond = 1_000
)

// Instant is a point in time with microsecond resolution.
type Instant struct {
	Sec  int64 // Whole seconds
	Usec int64 // Microseconds within the second, 0 <= Usec < 1e6
}

// Now returns the current instant.
func Now() Instant {
	return now()
}

// FromDuration converts a duration since an arbitrary origin to an Instant.
func FromDuration(d time.Duration) Instant {
	us := d.Microseconds()
	return Instant{Sec: us / MicrosPerSecond, Usec: us % MicrosPerSecond}
}

// origin anchors the runtime's monotonic reading.
var origin = time.Now()

// runtimeNow returns the runtime's monotonic reading since origin.
func runtimeNow() Instant {
	return FromDuration(time.Since(origin))
}

// Add returns i+d.
func (i Instant) Add(d time.Duration) Instant {
	us := i.Usec + d.Microseconds()
	sec := i.Sec + us/MicrosPerSecond
	us %= MicrosPerSecond
	if us < 0 {
		us += MicrosPerSecond
		sec--
	}
	return Instant{Sec: sec, Usec: us}
}

// Sub returns i - j as whole seconds and microseconds. When the microsecond
// part of i is smaller than that of j, one second is borrowed so that usec
// is never negative for i >= j.
func (i Instant) Sub(j Instant) (sec, usec int64) {
	sec = i.Sec - j.Sec
	usec = i.Usec - j.Usec
	if usec < 0 {
		usec += MicrosPerSecond
		sec--
	}
	return sec, usec
}

// ElapsedMillis returns the whole milliseconds from start to stop. The result
// is negative if stop precedes start.
func ElapsedMillis(start, stop Instant) int64 {
	sec, usec := stop.Sub(start)
	return sec*MillisPerSecond + usec/MicrosPerMilli
}

// Duration returns the instant as a duration since the clock's origin.
func (i Instant) Duration() time.Duration {
	return time.Duration(i.Sec)*time.Second + time.Duration(i.Usec)*time.Microsecond
}

// Before reports whether i precedes j.
func (i Instant) Before(j Instant) bool {
	if i.Sec != j.Sec {
		return i.Sec < j.Sec
	}
	return i.Usec < j.Usec
}
