package usbid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPaths lists the standard locations for the USB ID database.
var DefaultPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// Database holds vendor and product names from a usb.ids file.
type Database struct {
	vendors  map[uint16]string // VID -> vendor name
	products map[uint32]string // (VID<<16)|PID -> product name
	source   string
}

// productKey packs a VID/PID pair.
func productKey(vid, pid uint16) uint32 {
	return uint32(vid)<<16 | uint32(pid)
}

// Parse reads a database in usb.ids format. Only the vendor/product section
// is kept; device classes and other sections end the current vendor.
func Parse(r io.Reader) (*Database, error) {
	db := &Database{
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
	}

	var (
		vid    uint16
		inVend bool
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == '#' {
			continue
		}

		if line[0] == '\t' {
			// "\tpppp  Product Name"; doubly indented lines are interfaces.
			if !inVend || strings.HasPrefix(line, "\t\t") {
				continue
			}
			if id, name, ok := parseEntry(line[1:]); ok {
				db.products[productKey(vid, id)] = name
			}
			continue
		}

		// "vvvv  Vendor Name"; anything else starts a non-vendor section.
		id, name, ok := parseEntry(line)
		inVend = ok
		if ok {
			vid = id
			db.vendors[vid] = name
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse usb.ids: %w", err)
	}
	return db, nil
}

// parseEntry splits "xxxx  Name" into its ID and name.
func parseEntry(s string) (uint16, string, bool) {
	if len(s) < 6 || s[4] != ' ' {
		return 0, "", false
	}
	id, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	name := strings.TrimSpace(s[5:])
	if name == "" {
		return 0, "", false
	}
	return uint16(id), name, true
}

// Load parses the first readable file among paths.
func Load(paths ...string) (*Database, error) {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		db, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		db.source = path
		return db, nil
	}
	return nil, fmt.Errorf("usb.ids not found in %s: %w", strings.Join(paths, ", "), os.ErrNotExist)
}

// Source returns the path the database was loaded from, if any.
func (db *Database) Source() string { return db.source }

// Vendor returns the vendor name for vid, or "".
func (db *Database) Vendor(vid uint16) string {
	if db == nil {
		return ""
	}
	return db.vendors[vid]
}

// Product returns the product name for vid:pid, or "".
func (db *Database) Product(vid, pid uint16) string {
	if db == nil {
		return ""
	}
	return db.products[productKey(vid, pid)]
}

// VendorCount returns the number of vendors in the database.
func (db *Database) VendorCount() int { return len(db.vendors) }

// ProductCount returns the number of products in the database.
func (db *Database) ProductCount() int { return len(db.products) }

var (
	defaultOnce sync.Once
	defaultDB   *Database
)

// Default returns the database loaded from DefaultPaths, or nil if none could
// be read. The load happens once.
func Default() *Database {
	defaultOnce.Do(func() {
		defaultDB, _ = Load(DefaultPaths...)
	})
	return defaultDB
}

// Lookup returns the vendor and product names from the default database.
func Lookup(vid, pid uint16) (vendor, product string) {
	db := Default()
	return db.Vendor(vid), db.Product(vid, pid)
}
