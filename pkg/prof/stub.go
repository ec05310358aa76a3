//go:build !profile

package prof

import "errors"

// Enabled reports whether profiling support is compiled in.
const Enabled = false

// Profiling errors. The stubs never return them.
var (
	ErrCPUProfileActive = errors.New("cpu profile already active")
	ErrInvalidProfile   = errors.New("invalid profile")
)

// StartCPU is a no-op when built without the "profile" tag.
func StartCPU(_ string) error { return nil }

// StopCPU is a no-op when built without the "profile" tag.
func StopCPU() error { return nil }

// IsCPUActive always returns false when built without the "profile" tag.
func IsCPUActive() bool { return false }

// Write is a no-op when built without the "profile" tag.
func Write(_ Profile, _ string) error { return nil }
