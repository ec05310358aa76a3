// Package usbid resolves USB vendor and product IDs to names using the
// usb.ids database shipped with usbutils and hwdata.
//
// The database is located and parsed lazily on the first lookup:
//
//	vendor, product := usbid.Lookup(0x16c0, 0x0763)
//
// A missing database is not an error; lookups then return empty strings.
package usbid
