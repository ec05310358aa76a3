// Package prof captures pprof profiles of a benchmark run.
//
// Profiling is compiled in only with the "profile" build tag:
//
//	go build -tags profile ./cmd/usbbench
//
// Without the tag every function is a no-op and [Enabled] is false, so the
// command line flags that request profiles cost nothing in normal builds.
//
// # Capturing a Run
//
// [Capture] starts a CPU profile and arranges for a heap snapshot when the
// returned stop function is called:
//
//	stop, err := prof.Capture{CPU: "cpu.prof", Heap: "heap.prof"}.Start()
//	if err != nil {
//	    return err
//	}
//	defer stop()
//
// Either path may be empty to skip that profile.
//
// # Lower-Level API
//
// [StartCPU] and [StopCPU] bracket a CPU profile; [Write] writes a snapshot
// profile such as [ProfileHeap] or [ProfileGoroutine]. [ProfileCPU] cannot be
// written as a snapshot and returns [ErrInvalidProfile].
package prof
