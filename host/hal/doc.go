// Package hal defines the asynchronous I/O provider contract used by the
// benchmark.
//
// A [Provider] accepts [Request] values, moves data between the host and a
// device endpoint in the background, and reports each finished request back
// through [Request.Complete] from inside [Provider.HandleEvents]. The
// benchmark's dispatch loop calls HandleEvents repeatedly; completion
// callbacks therefore always run on the loop's goroutine.
//
// # Implementations
//
//   - [github.com/ardnew/usbbench/host/hal/linux]: Linux usbfs URBs reaped
//     through epoll
//   - [github.com/ardnew/usbbench/host/hal/fifo]: a stream-backed provider
//     reading endpoint data from a named pipe or file
//
// # Zero-Allocation Design
//
// Providers should reuse the caller's buffer and packet slice for every
// submission and avoid allocations on the submit/complete path.
package hal
