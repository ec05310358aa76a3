package linux

// =============================================================================
// Limits
// =============================================================================

// MaxInterfacesPerDevice is the maximum number of interfaces per device.
const MaxInterfacesPerDevice = 32

// MaxURBs is the maximum number of URBs a device can have in flight.
const MaxURBs = 16

// MaxISOPackets is the maximum number of packets in an isochronous URB.
const MaxISOPackets = 128

// MaxEpollEvents is the maximum events to retrieve per epoll_wait call.
const MaxEpollEvents = 8

// DevfsPathMaxLen is the maximum length of a devfs path.
const DevfsPathMaxLen = 64

// =============================================================================
// System Paths
// =============================================================================

// SysfsUSBPath is the base path for USB devices in sysfs.
const SysfsUSBPath = "/sys/bus/usb/devices"

// DevfsUSBPath is the base path for USB device nodes.
const DevfsUSBPath = "/dev/bus/usb"

// =============================================================================
// URB Type Constants
// =============================================================================

// URB transfer types for USBDEVFS_SUBMITURB.
const (
	URBTypeISO       = 0 // Isochronous
	URBTypeInterrupt = 1 // Interrupt
	URBTypeBulk      = 3 // Bulk
)

// URBISOAsap schedules an isochronous URB at the next available frame.
const URBISOAsap = 0x02
