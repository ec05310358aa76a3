//go:build profile

package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// Enabled reports whether profiling support is compiled in.
const Enabled = true

// Profiling errors.
var (
	// ErrCPUProfileActive indicates CPU profiling is already active.
	ErrCPUProfileActive = errors.New("cpu profile already active")

	// ErrInvalidProfile indicates an invalid or unsupported profile type.
	ErrInvalidProfile = errors.New("invalid profile")
)

var (
	cpuMutex sync.Mutex
	cpuFile  *os.File
)

// StartCPU starts CPU profiling into a file created at path.
// Returns [ErrCPUProfileActive] if CPU profiling is already active.
func StartCPU(path string) error {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()

	if cpuFile != nil {
		return ErrCPUProfileActive
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return err
	}

	cpuFile = f
	return nil
}

// StopCPU stops CPU profiling and closes the profile file. It is a no-op if
// profiling is not active.
func StopCPU() error {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()

	if cpuFile == nil {
		return nil
	}

	pprof.StopCPUProfile()
	err := cpuFile.Close()
	cpuFile = nil
	return err
}

// IsCPUActive reports whether CPU profiling is currently active.
func IsCPUActive() bool {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()
	return cpuFile != nil
}

// Write writes a snapshot profile to a file created at path. Heap and allocs
// profiles are preceded by a garbage collection so they reflect live data.
func Write(profile Profile, path string) error {
	if profile == ProfileCPU {
		return fmt.Errorf("%w: %s requires StartCPU/StopCPU", ErrInvalidProfile, profile)
	}

	p := pprof.Lookup(string(profile))
	if p == nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, profile)
	}

	if profile == ProfileHeap || profile == ProfileAllocs {
		runtime.GC()
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.WriteTo(f, 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
