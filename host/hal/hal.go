package hal

import (
	"context"

	"github.com/ardnew/usbbench/pkg"
)

// Speed represents the USB connection speed.
type Speed uint8

// USB speed constants (USB 2.0 Specification).
const (
	SpeedUnknown Speed = iota // Not connected or unknown
	SpeedLow                  // Low Speed (1.5 Mbit/s)
	SpeedFull                 // Full Speed (12 Mbit/s)
	SpeedHigh                 // High Speed (480 Mbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "Low Speed"
	case SpeedFull:
		return "Full Speed"
	case SpeedHigh:
		return "High Speed"
	default:
		return "Unknown"
	}
}

// TransferType indicates the type of USB transfer.
type TransferType uint8

// Transfer type constants.
const (
	TransferControl     TransferType = 0 // Control transfer
	TransferIsochronous TransferType = 1 // Isochronous transfer
	TransferBulk        TransferType = 2 // Bulk transfer
	TransferInterrupt   TransferType = 3 // Interrupt transfer
)

// String returns the transfer type name.
func (t TransferType) String() string {
	switch t {
	case TransferControl:
		return "control"
	case TransferIsochronous:
		return "isochronous"
	case TransferBulk:
		return "bulk"
	case TransferInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}

// EndpointIsIn returns true if addr is an IN endpoint (device to host).
func EndpointIsIn(addr uint8) bool {
	return addr&0x80 != 0
}

// EndpointNumber returns the endpoint number (0-15) of addr.
func EndpointNumber(addr uint8) uint8 {
	return addr & 0x0F
}

// Packet describes one isochronous packet of a transfer. Length is set when
// the transfer is built; ActualLength and Status are written by the provider
// before the request is completed.
type Packet struct {
	Length       int                // Requested length
	ActualLength int                // Bytes actually transferred
	Status       pkg.TransferStatus // Per-packet completion status
}

// Request is a single asynchronous transfer as seen by a [Provider].
//
// The provider owns Buffer and the elements of Packets between Submit and the
// matching call to Complete. Complete must be called exactly once per
// successful Submit, from within [Provider.HandleEvents], and its error must be
// returned from HandleEvents.
type Request interface {
	// Endpoint returns the endpoint address including the direction bit.
	Endpoint() uint8

	// Type returns the transfer type.
	Type() TransferType

	// Buffer returns the data buffer, sized to the requested length.
	Buffer() []byte

	// Packets returns the isochronous packet descriptors, or nil for bulk.
	Packets() []Packet

	// Complete delivers the transfer's overall status and actual length.
	Complete(status pkg.TransferStatus, actualLength int) error
}

// Provider is an asynchronous I/O provider.
//
// Submit queues a request and returns immediately. HandleEvents blocks until
// at least one completion has been delivered, the wait is interrupted, or ctx
// is cancelled; completions are delivered on the calling goroutine. A nil
// return with no completion means the caller should re-check its own
// termination state.
type Provider interface {
	// Submit hands r to the provider. The buffer is lent until completion.
	Submit(r Request) error

	// HandleEvents processes pending completions, blocking until one arrives
	// or the wait is interrupted. It returns the first error returned by a
	// request's Complete.
	HandleEvents(ctx context.Context) error

	// Close abandons any in-flight requests and releases provider resources.
	Close() error
}

// Device is a Provider bound to an opened USB device whose interfaces can be
// claimed for exclusive use.
type Device interface {
	Provider

	// ClaimInterface claims exclusive access to an interface. Providers that
	// require kernel driver detachment do so before claiming.
	ClaimInterface(iface uint8) error

	// ReleaseInterface releases a previously claimed interface.
	ReleaseInterface(iface uint8) error
}
