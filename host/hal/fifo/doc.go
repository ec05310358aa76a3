// Package fifo provides a stream-backed provider for running the benchmark
// without USB hardware.
//
// A [Provider] serves IN endpoint submissions from any [io.ReadCloser],
// typically a named pipe or a file opened by [Open]. Submissions are read in
// order by a single reader goroutine; completions are handed back to the
// caller's goroutine inside [Provider.HandleEvents], so completion handlers
// never run concurrently with each other.
//
// # Raw Mode
//
// By default the stream is unframed. Each bulk submission performs one read
// of up to the request length; each isochronous packet performs its own read
// of up to the packet length. A short read completes successfully with the
// bytes obtained. End of stream completes the request with
// [pkg.TransferStatusNoDevice].
//
// # Framed Mode
//
// With [WithFraming], each read consumes one message:
//
//	[1 byte: message type][2 bytes: length, little-endian][N bytes: payload]
//
// Message types:
//   - 0x02: DATA packet, payload copied to the request
//   - 0x04: NAK, completes with TransferStatusTimeout
//   - 0x05: STALL, completes with TransferStatusStall
//
// A DATA payload larger than the request completes with
// TransferStatusOverrun after filling the request.
//
// # Usage
//
//	mkfifo /tmp/usbbench
//	usbbench --provider=fifo --source=/tmp/usbbench &
//	cat /dev/urandom > /tmp/usbbench
package fifo
