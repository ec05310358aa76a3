//go:build !linux

package clock

func now() Instant {
	return runtimeNow()
}
