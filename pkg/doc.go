// Package pkg provides shared utilities for the usbbench transfer benchmark.
//
// This package contains common functionality used by the benchmark session,
// the transfer lifecycle, and the platform providers, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for USB transfer errors
//   - The [TransferStatus] reported for transfers and isochronous packets
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context and adds a
// trace level below debug:
//
//	pkg.SetLogLevel(pkg.ParseLevel("debug"))
//	pkg.LogInfo(pkg.ComponentBench, "transfer submitted", "endpoint", 0x86)
//
// # Errors
//
// Common USB errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrStall) {
//	    // Handle endpoint stall
//	}
package pkg
