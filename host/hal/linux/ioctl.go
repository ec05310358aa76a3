//go:build linux

package linux

import "unsafe"

// ioc constructs an ioctl number from direction, type, number, and size.
func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

// ior constructs a read ioctl number.
func ior(typ, nr, size uintptr) uintptr {
	return ioc(iocRead, typ, nr, size)
}

// iow constructs a write ioctl number.
func iow(typ, nr, size uintptr) uintptr {
	return ioc(iocWrite, typ, nr, size)
}

// iowr constructs a read/write ioctl number.
func iowr(typ, nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, typ, nr, size)
}

// ioctl constructs an ioctl number with no data transfer.
func ioctl(typ, nr uintptr) uintptr {
	return ioc(iocNone, typ, nr, 0)
}

// usbdevfs ioctl type character.
const usbdevfsType = 'U'

// usbdevfs ioctl command numbers.
const (
	ioctlSubmitURB        = 10
	ioctlDiscardURB       = 11
	ioctlReapURBNDelay    = 13
	ioctlClaimInterface   = 15
	ioctlReleaseInterface = 16
	ioctlIoctl            = 18
	ioctlDisconnect       = 22
)

// Argument sizes, taken from the Go mirrors of the kernel structures so the
// numbers are correct for the target's pointer width.
const (
	sizeofURB     = unsafe.Sizeof(urb{})
	sizeofIoctl   = unsafe.Sizeof(usbIoctl{})
	sizeofInt     = unsafe.Sizeof(int32(0))
	sizeofPointer = unsafe.Sizeof(uintptr(0))
)

// Usbdevfs ioctl numbers.
var (
	ioctlUsbdevfsSubmitURB        = ior(usbdevfsType, ioctlSubmitURB, sizeofURB)
	ioctlUsbdevfsDiscardURB       = ioctl(usbdevfsType, ioctlDiscardURB)
	ioctlUsbdevfsReapURBNDelay    = iow(usbdevfsType, ioctlReapURBNDelay, sizeofPointer)
	ioctlUsbdevfsClaimInterface   = ior(usbdevfsType, ioctlClaimInterface, sizeofInt)
	ioctlUsbdevfsReleaseInterface = ior(usbdevfsType, ioctlReleaseInterface, sizeofInt)
	ioctlUsbdevfsIoctl            = iowr(usbdevfsType, ioctlIoctl, sizeofIoctl)
	ioctlUsbdevfsDisconnect       = ioctl(usbdevfsType, ioctlDisconnect)
)
