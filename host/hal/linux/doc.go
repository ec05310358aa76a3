// Package linux provides an asynchronous I/O provider for Linux using usbfs.
//
// [Open] locates a device by vendor and product ID through sysfs
// (/sys/bus/usb/devices/) and opens its node under /dev/bus/usb/. The
// returned [Device] implements [hal.Device] without cgo:
//   - URBs (USB Request Blocks) are submitted via USBDEVFS_SUBMITURB
//   - Completion is polled via epoll on the device file descriptor
//   - Completed URBs are reaped via USBDEVFS_REAPURBNDELAY
//   - An eventfd registered with the same epoll instance lets context
//     cancellation interrupt a blocked wait
//
// URBs live in a fixed pool of slots inside the Device so their memory stays
// put while the kernel references it; submission and reaping do not
// allocate.
//
// # Requirements
//
// The user running the benchmark must have read/write access to the device
// node, either by running as root or through a udev rule such as:
//
//	SUBSYSTEM=="usb", ATTR{idVendor}=="16c0", ATTR{idProduct}=="0763", MODE="0666"
//
// # Supported Features
//
//   - Bulk, interrupt and isochronous transfers
//   - Interface claiming with kernel driver detachment
//   - USB 1.1 and USB 2.0 speeds (Low, Full, High)
package linux
