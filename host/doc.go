// Package host implements the reusable asynchronous transfer used by the
// throughput benchmark.
//
// A [Transfer] binds an endpoint, a caller-allocated buffer, an optional
// isochronous packet layout, and a [CompletionHandler]. It is submitted to a
// [hal.Provider] and completed by that provider from inside
// [hal.Provider.HandleEvents]; the handler typically resubmits it, so a single
// transfer is in flight for the whole run.
//
// # Lifecycle
//
//	Built ──Submit──▶ Submitted ──Complete──▶ Completed ──Submit──▶ Submitted …
//	                      │                        │
//	                      └──── rejected ─────▶ Failed ◀── handler error
//
// # Isochronous Layout
//
// An isochronous transfer partitions its buffer into equal packets of
// len(buf)/count bytes. Any remainder is left unused and reported by
// [Transfer.Truncated].
//
// # Presets
//
// [ModeIsochronous] and [ModeBulk] select the fixed endpoint and buffer
// topology of the benchmark target; see [Mode.Preset].
package host
