//go:build linux

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

// anchor pairs a CLOCK_MONOTONIC reading with the runtime clock so a failed
// read can be answered on the same timeline.
type anchor struct {
	mono    Instant
	runtime time.Time
	ok      bool // CLOCK_MONOTONIC was readable at init
}

var start = func() anchor {
	mono, ok := monotonic()
	return anchor{mono: mono, runtime: time.Now(), ok: ok}
}()

// monotonic reads CLOCK_MONOTONIC.
func monotonic() (Instant, bool) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return Instant{}, false
	}
	return Instant{Sec: int64(ts.Sec), Usec: int64(ts.Nsec) / 1000}, true
}

// fallback extends the init-time CLOCK_MONOTONIC reading by the runtime's
// monotonic elapsed time.
func fallback() Instant {
	return start.mono.Add(time.Since(start.runtime))
}

func now() Instant {
	if !start.ok {
		return runtimeNow()
	}
	if i, ok := monotonic(); ok {
		return i
	}
	return fallback()
}
