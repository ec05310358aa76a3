package bench

import (
	"errors"
	"fmt"

	"github.com/ardnew/usbbench/pkg"
)

// ErrInsufficientDuration indicates the measurement window was too short to
// derive a rate.
var ErrInsufficientDuration = errors.New("insufficient elapsed time to measure")

// FailureClass identifies the kind of fatal condition that ended a run.
type FailureClass uint8

// Failure classes. Each maps to a distinct process exit code.
const (
	ClassNone           FailureClass = iota // Normal shutdown
	ClassProviderInit                       // I/O provider could not be initialized
	ClassDeviceNotFound                     // No matching device
	ClassTransferStatus                     // Overall transfer status not success
	ClassClaimInterface                     // Interface could not be claimed
	ClassPacketStatus                       // Isochronous packet status not success
	ClassSubmit                             // Submission or resubmission rejected
	ClassUsage                              // Invalid command line or configuration
	ClassEvents                             // Event processing failed
)

// String returns the class name.
func (c FailureClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassProviderInit:
		return "provider init"
	case ClassDeviceNotFound:
		return "device not found"
	case ClassTransferStatus:
		return "transfer status"
	case ClassClaimInterface:
		return "claim interface"
	case ClassPacketStatus:
		return "packet status"
	case ClassSubmit:
		return "submit"
	case ClassUsage:
		return "usage"
	case ClassEvents:
		return "event processing"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// ExitCode returns the process exit code for c.
func (c FailureClass) ExitCode() int {
	return int(c)
}

// Failure is a fatal benchmark condition.
type Failure struct {
	Class  FailureClass
	Packet int                // Index of the failing packet (ClassPacketStatus)
	Status pkg.TransferStatus // Offending status (ClassTransferStatus, ClassPacketStatus)
	Err    error              // Underlying cause, if any
}

// Error implements error.
func (f *Failure) Error() string {
	switch f.Class {
	case ClassTransferStatus:
		return fmt.Sprintf("transfer status %s", f.Status)
	case ClassPacketStatus:
		return fmt.Sprintf("pack %d status %s", f.Packet, f.Status)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Class, f.Err)
	}
	return f.Class.String()
}

// Unwrap returns the underlying cause. Status failures unwrap to the
// status's sentinel error.
func (f *Failure) Unwrap() error {
	if f.Err != nil {
		return f.Err
	}
	switch f.Class {
	case ClassTransferStatus, ClassPacketStatus:
		return f.Status.Error()
	}
	return nil
}

// Fail wraps err as a Failure of class c. A nil err yields nil, and an err
// that already carries a Failure is returned unchanged.
func Fail(c FailureClass, err error) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return &Failure{Class: c, Err: err}
}

// ExitCode returns the process exit code for err: 0 for nil or
// ErrInsufficientDuration, the class code for a Failure, and the event
// processing code otherwise.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrInsufficientDuration) {
		return ClassNone.ExitCode()
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Class.ExitCode()
	}
	return ClassEvents.ExitCode()
}
