//go:build linux

package linux

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/usbbench/pkg"
)

// =============================================================================
// URB (USB Request Block) Structures
// =============================================================================

// urb mirrors the kernel's struct usbdevfs_urb without its trailing flexible
// iso_frame_desc array; see isoURB.
type urb struct {
	typ          uint8          // URB type (control, bulk, interrupt, iso)
	endpoint     uint8          // Endpoint address
	status       int32          // URB status after completion (negative errno)
	flags        uint32         // URB flags
	buffer       unsafe.Pointer // Data buffer
	bufferLength int32          // Length of data buffer
	actualLength int32          // Actual bytes transferred
	startFrame   int32          // Start frame for ISO transfers
	numPackets   int32          // ISO packet count (union with stream_id)
	errorCount   int32          // Error count for ISO transfers
	signr        uint32         // Signal number for async notification
	userContext  uintptr        // Slot index
}

// isoPacketDesc mirrors struct usbdevfs_iso_packet_desc.
type isoPacketDesc struct {
	length       uint32 // Expected length
	actualLength uint32 // Actual length
	status       uint32 // Negative errno stored unsigned
}

// isoURB is a URB followed by its frame descriptors, laid out exactly as the
// kernel reads a struct usbdevfs_urb with number_of_packets descriptors.
type isoURB struct {
	urb
	packets [MaxISOPackets]isoPacketDesc
}

// usbIoctl mirrors struct usbdevfs_ioctl.
type usbIoctl struct {
	ifno      int32
	ioctlCode int32
	data      unsafe.Pointer
}

// =============================================================================
// Raw Syscall Wrappers
// =============================================================================

// ioctlPtr performs an ioctl whose argument is a pointer.
func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// =============================================================================
// USBDEVFS Operations
// =============================================================================

// claimInterface claims exclusive access to an interface.
func claimInterface(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	return ioctlPtr(fd, ioctlUsbdevfsClaimInterface, unsafe.Pointer(&ifaceNum))
}

// releaseInterface releases a previously claimed interface.
func releaseInterface(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	return ioctlPtr(fd, ioctlUsbdevfsReleaseInterface, unsafe.Pointer(&ifaceNum))
}

// disconnectDriver detaches the kernel driver bound to an interface.
func disconnectDriver(fd int, iface uint8) error {
	cmd := usbIoctl{
		ifno:      int32(iface),
		ioctlCode: int32(ioctlUsbdevfsDisconnect),
	}
	return ioctlPtr(fd, ioctlUsbdevfsIoctl, unsafe.Pointer(&cmd))
}

// =============================================================================
// Async URB Operations
// =============================================================================

// submitURB submits a URB for asynchronous processing.
func submitURB(fd int, u *urb) error {
	return ioctlPtr(fd, ioctlUsbdevfsSubmitURB, unsafe.Pointer(u))
}

// reapURBNDelay retrieves a completed URB without blocking.
// Returns EAGAIN if no URB is available.
func reapURBNDelay(fd int) (*urb, error) {
	var urbPtr *urb
	err := ioctlPtr(fd, ioctlUsbdevfsReapURBNDelay, unsafe.Pointer(&urbPtr))
	if err != nil {
		return nil, err
	}
	return urbPtr, nil
}

// discardURB cancels a pending URB.
func discardURB(fd int, u *urb) error {
	return ioctlPtr(fd, ioctlUsbdevfsDiscardURB, unsafe.Pointer(u))
}

// =============================================================================
// Status Mapping
// =============================================================================

// urbStatus converts a kernel URB or packet status (zero or a negative errno)
// to a transfer status.
func urbStatus(status int32) pkg.TransferStatus {
	if status == 0 {
		return pkg.TransferStatusSuccess
	}
	if status < 0 {
		status = -status
	}
	switch unix.Errno(status) {
	case unix.EPIPE:
		return pkg.TransferStatusStall
	case unix.ENOENT, unix.ECONNRESET:
		return pkg.TransferStatusCancelled
	case unix.ETIMEDOUT:
		return pkg.TransferStatusTimeout
	case unix.EOVERFLOW:
		return pkg.TransferStatusOverrun
	case unix.EREMOTEIO:
		return pkg.TransferStatusUnderrun
	case unix.ENODEV, unix.ESHUTDOWN:
		return pkg.TransferStatusNoDevice
	default:
		return pkg.TransferStatusError
	}
}

// packetStatus converts an iso frame descriptor status.
func packetStatus(status uint32) pkg.TransferStatus {
	return urbStatus(int32(status))
}

// =============================================================================
// Error Helpers
// =============================================================================

// isNoDevice returns true if the error indicates the device was disconnected.
func isNoDevice(err error) bool {
	return errors.Is(err, unix.ENODEV)
}

// isAgain returns true if the error indicates try again (EAGAIN/EWOULDBLOCK).
func isAgain(err error) bool {
	return errors.Is(err, unix.EAGAIN)
}

// isNoData returns true if the error indicates no data (ENODATA).
func isNoData(err error) bool {
	return errors.Is(err, unix.ENODATA)
}

// mapErrno converts a usbfs errno to a package sentinel where one applies.
func mapErrno(err error) error {
	switch {
	case err == nil:
		return nil
	case isNoDevice(err):
		return fmt.Errorf("%w: %w", pkg.ErrNoDevice, err)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %w", pkg.ErrBusy, err)
	case errors.Is(err, unix.EINVAL):
		return fmt.Errorf("%w: %w", pkg.ErrInvalidRequest, err)
	default:
		return err
	}
}
