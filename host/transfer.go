package host

import (
	"fmt"

	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/pkg"
)

// State is a position in a transfer's lifecycle.
type State uint8

// Transfer lifecycle states. A completed transfer re-enters StateSubmitted
// when it is resubmitted; StateFailed is terminal.
const (
	StateBuilt State = iota
	StateSubmitted
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSubmitted:
		return "submitted"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// CompletionHandler is notified once for every completed submission.
// Returning a non-nil error moves the transfer to StateFailed; the error is
// propagated out of the provider's event processing.
type CompletionHandler interface {
	Complete(t *Transfer) error
}

// CompletionFunc adapts a function to a CompletionHandler.
type CompletionFunc func(t *Transfer) error

// Complete calls f(t).
func (f CompletionFunc) Complete(t *Transfer) error {
	return f(t)
}

// Outcome is the result of the most recent completion of a transfer.
type Outcome struct {
	Status       pkg.TransferStatus // Overall status
	ActualLength int                // Bytes actually transferred
	Packets      []hal.Packet       // Per-packet results (isochronous only)
}

// Transfer is a reusable asynchronous transfer bound to one endpoint.
//
// The buffer is allocated by the caller once and lent to the provider on every
// submission; it is never reallocated.
type Transfer struct {
	endpoint  uint8
	typ       hal.TransferType
	buf       []byte
	length    int
	packets   []hal.Packet
	truncated int
	handler   CompletionHandler

	state       State
	outcome     Outcome
	submissions uint64
}

// NewBulkTransfer builds a bulk transfer reading into or writing from buf.
func NewBulkTransfer(endpoint uint8, buf []byte, handler CompletionHandler) (*Transfer, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: nil completion handler", pkg.ErrInvalidParameter)
	}
	if len(buf) == 0 {
		return nil, pkg.ErrBufferTooSmall
	}

	t := &Transfer{
		endpoint: endpoint,
		typ:      hal.TransferBulk,
		buf:      buf,
		length:   len(buf),
		handler:  handler,
	}

	pkg.LogDebug(pkg.ComponentTransfer, "transfer built",
		"type", t.typ.String(),
		"endpoint", fmt.Sprintf("0x%02x", endpoint),
		"length", t.length)
	return t, nil
}

// NewIsochronousTransfer builds an isochronous transfer that partitions buf
// into count packets of equal length len(buf)/count.
//
// When len(buf) is not a multiple of count, the trailing len(buf)%count bytes
// are not part of any packet and are never transferred. The number of such
// bytes is reported by Truncated and logged as a warning.
func NewIsochronousTransfer(endpoint uint8, buf []byte, count int, handler CompletionHandler) (*Transfer, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: nil completion handler", pkg.ErrInvalidParameter)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: packet count %d", pkg.ErrInvalidParameter, count)
	}
	size := len(buf) / count
	if size == 0 {
		return nil, fmt.Errorf("%w: %d bytes for %d packets", pkg.ErrBufferTooSmall, len(buf), count)
	}

	t := &Transfer{
		endpoint:  endpoint,
		typ:       hal.TransferIsochronous,
		buf:       buf,
		length:    size * count,
		packets:   make([]hal.Packet, count),
		truncated: len(buf) - size*count,
		handler:   handler,
	}
	for i := range t.packets {
		t.packets[i].Length = size
	}

	if t.truncated > 0 {
		pkg.LogWarn(pkg.ComponentTransfer, "buffer not divisible by packet count; trailing bytes unused",
			"capacity", len(buf),
			"packets", count,
			"packet_length", size,
			"unused", t.truncated)
	}
	pkg.LogDebug(pkg.ComponentTransfer, "transfer built",
		"type", t.typ.String(),
		"endpoint", fmt.Sprintf("0x%02x", endpoint),
		"length", t.length,
		"packets", count,
		"packet_length", size)
	return t, nil
}

// Endpoint returns the endpoint address.
func (t *Transfer) Endpoint() uint8 { return t.endpoint }

// Type returns the transfer type.
func (t *Transfer) Type() hal.TransferType { return t.typ }

// Buffer returns the portion of the buffer covered by the request.
func (t *Transfer) Buffer() []byte { return t.buf[:t.length] }

// Packets returns the isochronous packet descriptors, or nil for bulk.
func (t *Transfer) Packets() []hal.Packet { return t.packets }

// Length returns the requested transfer length in bytes.
func (t *Transfer) Length() int { return t.length }

// Capacity returns the size of the underlying buffer.
func (t *Transfer) Capacity() int { return len(t.buf) }

// Truncated returns the number of trailing buffer bytes not covered by any
// isochronous packet.
func (t *Transfer) Truncated() int { return t.truncated }

// State returns the current lifecycle state.
func (t *Transfer) State() State { return t.state }

// Submissions returns the number of submissions accepted by a provider.
func (t *Transfer) Submissions() uint64 { return t.submissions }

// Outcome returns the result of the most recent completion. Its Packets slice
// aliases the transfer's packet descriptors and is overwritten on the next
// submission.
func (t *Transfer) Outcome() Outcome { return t.outcome }

// Data returns the bytes received by the most recent completion.
func (t *Transfer) Data() []byte { return t.buf[:t.outcome.ActualLength] }

// Submit hands the transfer to p. It is legal from StateBuilt and
// StateCompleted; a rejected submission moves the transfer to StateFailed.
func (t *Transfer) Submit(p hal.Provider) error {
	if t.state != StateBuilt && t.state != StateCompleted {
		return fmt.Errorf("%w: submit in state %s", pkg.ErrInvalidState, t.state)
	}

	for i := range t.packets {
		t.packets[i].ActualLength = 0
		t.packets[i].Status = pkg.TransferStatusSuccess
	}
	t.outcome = Outcome{}

	t.state = StateSubmitted
	if err := p.Submit(t); err != nil {
		t.state = StateFailed
		return fmt.Errorf("submit endpoint 0x%02x: %w", t.endpoint, err)
	}
	t.submissions++
	return nil
}

// Complete records the outcome of a submission and notifies the completion
// handler. Providers call it exactly once per accepted submission.
func (t *Transfer) Complete(status pkg.TransferStatus, actualLength int) error {
	if t.state != StateSubmitted {
		return fmt.Errorf("%w: complete in state %s", pkg.ErrInvalidState, t.state)
	}

	if actualLength < 0 {
		actualLength = 0
	}
	if actualLength > t.length {
		actualLength = t.length
	}

	t.outcome = Outcome{
		Status:       status,
		ActualLength: actualLength,
		Packets:      t.packets,
	}
	t.state = StateCompleted

	if err := t.handler.Complete(t); err != nil {
		t.state = StateFailed
		return err
	}
	return nil
}

// Interface Compliance
var _ hal.Request = (*Transfer)(nil)
