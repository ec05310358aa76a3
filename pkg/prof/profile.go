package prof

import (
	"errors"
	"fmt"

	"github.com/ardnew/usbbench/pkg"
)

// Profile represents a pprof profile type.
type Profile string

// Profile type constants.
const (
	ProfileCPU       Profile = "cpu"
	ProfileHeap      Profile = "heap"
	ProfileAllocs    Profile = "allocs"
	ProfileGoroutine Profile = "goroutine"
	ProfileBlock     Profile = "block"
	ProfileMutex     Profile = "mutex"
)

// String returns the string representation of the profile type.
func (p Profile) String() string {
	return string(p)
}

// Capture names the profile files to produce for one run.
type Capture struct {
	CPU  string // CPU profile path, empty to skip
	Heap string // Heap snapshot path, empty to skip
}

// Requested reports whether any profile was asked for.
func (c Capture) Requested() bool {
	return c.CPU != "" || c.Heap != ""
}

// Start begins CPU profiling if requested. The returned function stops it and
// writes the heap snapshot; it must be called exactly once.
func (c Capture) Start() (stop func() error, err error) {
	if c.Requested() && !Enabled {
		pkg.LogWarn(pkg.ComponentCLI, "profiling not compiled in; rebuild with -tags profile",
			"cpu", c.CPU,
			"heap", c.Heap)
	}

	if c.CPU != "" {
		if err := StartCPU(c.CPU); err != nil {
			return nil, fmt.Errorf("start cpu profile: %w", err)
		}
	}

	return func() error {
		var errs []error
		if c.CPU != "" {
			if err := StopCPU(); err != nil {
				errs = append(errs, fmt.Errorf("stop cpu profile: %w", err))
			}
		}
		if c.Heap != "" {
			if err := Write(ProfileHeap, c.Heap); err != nil {
				errs = append(errs, fmt.Errorf("write heap profile: %w", err))
			}
		}
		return errors.Join(errs...)
	}, nil
}
