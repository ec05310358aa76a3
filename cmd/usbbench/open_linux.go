//go:build linux

package main

import (
	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/host/hal/linux"
)

// openUSBFS opens the first device matching vid:pid through usbfs.
func openUSBFS(vid, pid uint16) (hal.Device, error) {
	d, err := linux.Open(vid, pid)
	if err != nil {
		return nil, err
	}
	return d, nil
}
