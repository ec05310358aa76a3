//go:build linux

package linux

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/pkg"
)

// =============================================================================
// USB Device Information
// =============================================================================

// usbDeviceInfo holds information about a USB device discovered via sysfs.
type usbDeviceInfo struct {
	sysfsPath string    // Path in /sys/bus/usb/devices
	devfsPath string    // Path in /dev/bus/usb
	busNum    uint8     // Bus number
	devNum    uint8     // Device number
	vendorID  uint16    // USB Vendor ID
	productID uint16    // USB Product ID
	speed     hal.Speed // Device speed

	interfaces []usbInterfaceInfo
}

// usbInterfaceInfo holds information about a USB interface.
type usbInterfaceInfo struct {
	number uint8  // bInterfaceNumber
	class  uint8  // bInterfaceClass
	driver string // Bound kernel driver, empty if none
}

// iface returns the interface with the given number.
func (d *usbDeviceInfo) iface(number uint8) (usbInterfaceInfo, bool) {
	for _, i := range d.interfaces {
		if i.number == number {
			return i, true
		}
	}
	return usbInterfaceInfo{}, false
}

// =============================================================================
// Sysfs Parsing
// =============================================================================

// findDevice returns the first device under sysfsRoot matching vid:pid.
// The device node path is resolved under devfsRoot.
func findDevice(sysfsRoot, devfsRoot string, vid, pid uint16) (usbDeviceInfo, error) {
	devices, err := scanUSBDevices(sysfsRoot, devfsRoot)
	if err != nil {
		return usbDeviceInfo{}, err
	}
	for _, d := range devices {
		if d.vendorID == vid && d.productID == pid {
			return d, nil
		}
	}
	return usbDeviceInfo{}, fmt.Errorf("%w: %04x:%04x", pkg.ErrNoDevice, vid, pid)
}

// scanUSBDevices scans sysfs for USB devices.
func scanUSBDevices(sysfsRoot, devfsRoot string) ([]usbDeviceInfo, error) {
	entries, err := os.ReadDir(sysfsRoot)
	if err != nil {
		return nil, err
	}

	var devices []usbDeviceInfo

	for _, entry := range entries {
		name := entry.Name()

		// USB devices have names like "1-1", "1-1.2", etc.
		// Root hubs (usb1) and interfaces (1-1:1.0) are skipped.
		if strings.HasPrefix(name, "usb") {
			continue
		}
		if strings.Contains(name, ":") {
			continue
		}

		info, err := parseUSBDevice(filepath.Join(sysfsRoot, name), devfsRoot)
		if err != nil {
			continue
		}

		devices = append(devices, info)
	}

	return devices, nil
}

// parseUSBDevice parses USB device information from sysfs.
func parseUSBDevice(sysfsPath, devfsRoot string) (usbDeviceInfo, error) {
	info := usbDeviceInfo{
		sysfsPath: sysfsPath,
	}

	busNum, err := readSysfsUint8(filepath.Join(sysfsPath, "busnum"))
	if err != nil {
		return info, err
	}
	info.busNum = busNum

	devNum, err := readSysfsUint8(filepath.Join(sysfsPath, "devnum"))
	if err != nil {
		return info, err
	}
	info.devNum = devNum

	info.devfsPath = formatDevfsPath(devfsRoot, info.busNum, info.devNum)

	vendorID, err := readSysfsHexUint16(filepath.Join(sysfsPath, "idVendor"))
	if err != nil {
		return info, err
	}
	info.vendorID = vendorID

	productID, err := readSysfsHexUint16(filepath.Join(sysfsPath, "idProduct"))
	if err != nil {
		return info, err
	}
	info.productID = productID

	speedStr, err := readSysfsString(filepath.Join(sysfsPath, "speed"))
	if err == nil {
		info.speed = parseSpeed(speedStr)
	}

	info.interfaces = scanInterfaces(sysfsPath)

	return info, nil
}

// scanInterfaces scans sysfs for interfaces of a device.
func scanInterfaces(devicePath string) []usbInterfaceInfo {
	entries, err := os.ReadDir(devicePath)
	if err != nil {
		return nil
	}

	var interfaces []usbInterfaceInfo
	prefix := filepath.Base(devicePath) + ":"

	for _, entry := range entries {
		// Interface entries have names like "1-1:1.0"
		if !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		iface, err := parseInterface(filepath.Join(devicePath, entry.Name()))
		if err != nil {
			continue
		}

		interfaces = append(interfaces, iface)
	}

	return interfaces
}

// parseInterface parses USB interface information from sysfs.
func parseInterface(sysfsPath string) (usbInterfaceInfo, error) {
	info := usbInterfaceInfo{}

	ifaceNum, err := readSysfsHexUint8(filepath.Join(sysfsPath, "bInterfaceNumber"))
	if err != nil {
		return info, err
	}
	info.number = ifaceNum

	ifaceClass, err := readSysfsHexUint8(filepath.Join(sysfsPath, "bInterfaceClass"))
	if err == nil {
		info.class = ifaceClass
	}

	if target, err := os.Readlink(filepath.Join(sysfsPath, "driver")); err == nil {
		info.driver = filepath.Base(target)
	}

	return info, nil
}

// =============================================================================
// Sysfs Read Helpers
// =============================================================================

// readSysfsString reads a string from a sysfs attribute file.
func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readSysfsUint8 reads an unsigned decimal uint8 from a sysfs attribute file.
func readSysfsUint8(path string) (uint8, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// readSysfsHex reads a hexadecimal value from a sysfs attribute file.
func readSysfsHex(path string, bitSize int) (uint64, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	s = strings.TrimPrefix(s, "0x")
	return strconv.ParseUint(s, 16, bitSize)
}

// readSysfsHexUint8 reads a hexadecimal uint8 from a sysfs attribute file.
func readSysfsHexUint8(path string) (uint8, error) {
	v, err := readSysfsHex(path, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// readSysfsHexUint16 reads a hexadecimal uint16 from a sysfs attribute file.
func readSysfsHexUint16(path string) (uint16, error) {
	v, err := readSysfsHex(path, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// =============================================================================
// Path Helpers
// =============================================================================

// formatDevfsPath constructs a device node path from bus and device numbers.
func formatDevfsPath(root string, busNum, devNum uint8) string {
	// Path format: <root>/BBB/DDD where BBB and DDD are zero-padded
	var buf [DevfsPathMaxLen]byte
	n := copy(buf[:], "/")
	n += formatPadded(buf[n:], busNum, 3)
	buf[n] = '/'
	n++
	n += formatPadded(buf[n:], devNum, 3)
	return root + string(buf[:n])
}

// formatPadded formats a number with zero-padding to a fixed width.
func formatPadded(buf []byte, val uint8, width int) int {
	s := strconv.FormatUint(uint64(val), 10)

	padding := width - len(s)
	if padding < 0 {
		padding = 0
	}
	for i := 0; i < padding && i < len(buf); i++ {
		buf[i] = '0'
	}

	return padding + copy(buf[padding:], s)
}

// =============================================================================
// Speed Parsing
// =============================================================================

// parseSpeed converts a sysfs speed string to a hal.Speed value.
func parseSpeed(s string) hal.Speed {
	switch s {
	case "1.5":
		return hal.SpeedLow
	case "12":
		return hal.SpeedFull
	case "480":
		return hal.SpeedHigh
	default:
		return hal.SpeedUnknown
	}
}
