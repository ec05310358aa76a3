//go:build !linux

package main

import (
	"fmt"

	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/pkg"
)

// openUSBFS reports that usbfs is unavailable on this platform.
func openUSBFS(_, _ uint16) (hal.Device, error) {
	return nil, fmt.Errorf("%w: usbfs provider requires linux", pkg.ErrNotSupported)
}
