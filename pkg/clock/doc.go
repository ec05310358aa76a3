// Package clock provides the benchmark's timestamp source.
//
// An [Instant] is a point in time split into whole seconds and microseconds,
// drawn from a monotonic clock when the platform provides one. On Linux the
// kernel's CLOCK_MONOTONIC is read directly; a failed read is answered by
// extending an init-time CLOCK_MONOTONIC reading with the runtime's monotonic
// elapsed time, so every instant stays on one timeline. Other platforms use the Go runtime's monotonic
// reading relative to process start.
//
// [Now] never fails and is safe to call from any goroutine.
package clock
