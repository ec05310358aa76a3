// Package bench drives the asynchronous transfer throughput benchmark.
//
// A [Session] owns all mutable benchmark state: the throughput counters, the
// measurement window and the termination flag. It is the completion handler
// for the single in-flight [host.Transfer]; every successful completion is
// validated, counted and resubmitted synchronously from inside the provider's
// event processing.
//
// [Session.Run] records the start instant, submits the transfer and drives
// [hal.Provider.HandleEvents] until [Session.Stop] is called (directly, from a
// signal via [Session.StopOnSignal], or by cancelling the context passed to
// Run). The loop then captures the stop instant, computes one [Report] with
// [Measure] and writes its summary line.
//
// Fatal conditions are returned as [*Failure] values whose [FailureClass]
// determines the process exit code; see [ExitCode].
package bench
