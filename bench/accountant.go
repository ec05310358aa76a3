package bench

import (
	"fmt"

	"github.com/ardnew/usbbench/pkg/clock"
)

// Counters accumulates completed work. Both fields only ever increase.
type Counters struct {
	Bytes     uint64 // Total actual bytes transferred
	Transfers uint64 // Total successful completions
}

// Window is the measurement interval.
type Window struct {
	Start clock.Instant // Captured immediately before the first submission
	Stop  clock.Instant // Captured once when termination is observed
}

// Report is the result of a measurement.
type Report struct {
	Transfers   uint64
	Bytes       uint64
	Millis      int64  // Whole elapsed milliseconds
	BytesPerSec uint64 // Zero when Millis <= 0
}

// Measured reports whether the window was long enough to derive a rate.
func (r Report) Measured() bool {
	return r.Millis > 0
}

// String returns the summary line.
func (r Report) String() string {
	if !r.Measured() {
		return fmt.Sprintf("%d transfers (total %d bytes) in %d milliseconds => %s",
			r.Transfers, r.Bytes, r.Millis, ErrInsufficientDuration)
	}
	return fmt.Sprintf("%d transfers (total %d bytes) in %d milliseconds => %d bytes/sec",
		r.Transfers, r.Bytes, r.Millis, r.BytesPerSec)
}

// Measure computes the throughput of c over [start, stop]. If fewer than one
// millisecond elapsed, the report carries the counts with a zero rate and the
// error is ErrInsufficientDuration.
func Measure(start, stop clock.Instant, c Counters) (Report, error) {
	r := Report{
		Transfers: c.Transfers,
		Bytes:     c.Bytes,
		Millis:    clock.ElapsedMillis(start, stop),
	}
	if r.Millis <= 0 {
		return r, ErrInsufficientDuration
	}
	r.BytesPerSec = c.Bytes * clock.MillisPerSecond / uint64(r.Millis)
	return r, nil
}
