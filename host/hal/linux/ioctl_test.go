//go:build linux && (amd64 || arm64 || riscv64 || loong64)

package linux

import "testing"

func TestIoctlNumbers(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"SUBMITURB", ioctlUsbdevfsSubmitURB, 0x8038550a},
		{"DISCARDURB", ioctlUsbdevfsDiscardURB, 0x0000550b},
		{"REAPURBNDELAY", ioctlUsbdevfsReapURBNDelay, 0x4008550d},
		{"CLAIMINTERFACE", ioctlUsbdevfsClaimInterface, 0x8004550f},
		{"RELEASEINTERFACE", ioctlUsbdevfsReleaseInterface, 0x80045510},
		{"IOCTL", ioctlUsbdevfsIoctl, 0xc0105512},
		{"DISCONNECT", ioctlUsbdevfsDisconnect, 0x00005516},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("USBDEVFS_%s = 0x%08x, want 0x%08x", tt.name, tt.got, tt.want)
		}
	}
}
