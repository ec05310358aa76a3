//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/pkg"
	"github.com/ardnew/usbbench/pkg/linux/usbid"
)

// =============================================================================
// Options
// =============================================================================

type options struct {
	sysfsRoot string
	devfsRoot string
}

// Option configures Open.
type Option func(*options)

// WithSysfsRoot overrides the sysfs directory scanned for devices.
func WithSysfsRoot(path string) Option {
	return func(o *options) { o.sysfsRoot = path }
}

// WithDevfsRoot overrides the directory holding bus/device nodes.
func WithDevfsRoot(path string) Option {
	return func(o *options) { o.devfsRoot = path }
}

// =============================================================================
// URB Slot Management
// =============================================================================

// urbSlot holds one in-flight URB. The URB memory is referenced by the kernel
// between submission and reaping and must not move, so slots live in a fixed
// array inside Device.
type urbSlot struct {
	iso   isoURB      // URB and iso frame descriptors
	req   hal.Request // Request being served
	inUse bool        // Whether this slot is in use
	next  int8        // Next free slot index (-1 if none)
}

// initSlots links all slots into the free list.
func (d *Device) initSlots() {
	for i := range d.slots {
		d.slots[i].inUse = false
		d.slots[i].req = nil
		d.slots[i].next = int8(i + 1)
	}
	d.slots[MaxURBs-1].next = -1
	d.freeHead = 0
	d.pending = 0
}

// allocSlot allocates a URB slot. Returns -1 if no slots are available.
// Caller holds d.mu.
func (d *Device) allocSlot() int {
	if d.freeHead < 0 {
		return -1
	}

	idx := int(d.freeHead)
	slot := &d.slots[idx]
	d.freeHead = slot.next
	slot.inUse = true
	slot.next = -1
	d.pending++

	return idx
}

// freeSlot returns a URB slot to the pool. Caller holds d.mu.
func (d *Device) freeSlot(idx int) {
	slot := &d.slots[idx]
	if !slot.inUse {
		return
	}

	slot.inUse = false
	slot.req = nil
	slot.next = d.freeHead
	d.freeHead = int8(idx)
	d.pending--
}

// slotOf maps a reaped URB pointer back to its slot index.
// Caller holds d.mu.
func (d *Device) slotOf(u *urb) int {
	idx := int(u.userContext)
	if idx < 0 || idx >= MaxURBs {
		return -1
	}
	if &d.slots[idx].iso.urb != u || !d.slots[idx].inUse {
		return -1
	}
	return idx
}

// =============================================================================
// Device
// =============================================================================

// Device is an opened usbfs device node serving as an asynchronous I/O
// provider.
type Device struct {
	info   usbDeviceInfo
	fd     int
	poller *poller

	mu          sync.Mutex
	slots       [MaxURBs]urbSlot
	freeHead    int8
	pending     int
	claimedMask uint32
	closed      bool
}

// Open finds the first device matching vid:pid and opens its usbfs node.
// If no such device exists the error wraps [pkg.ErrNoDevice].
func Open(vid, pid uint16, opts ...Option) (*Device, error) {
	o := options{
		sysfsRoot: SysfsUSBPath,
		devfsRoot: DevfsUSBPath,
	}
	for _, opt := range opts {
		opt(&o)
	}

	info, err := findDevice(o.sysfsRoot, o.devfsRoot, vid, pid)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(info.devfsPath, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.devfsPath, err)
	}

	p, err := newPoller()
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("create poller: %w", err)
	}

	// usbfs reports reapable URBs as writable.
	if err := p.watch(fd, unix.EPOLLOUT); err != nil {
		p.close()
		unix.Close(fd)
		return nil, fmt.Errorf("watch %s: %w", info.devfsPath, err)
	}

	d := &Device{
		info:   info,
		fd:     fd,
		poller: p,
	}
	d.initSlots()

	vendor, product := usbid.Lookup(info.vendorID, info.productID)
	pkg.LogInfo(pkg.ComponentHAL, "device opened",
		"path", info.devfsPath,
		"vid", fmt.Sprintf("%04x", info.vendorID),
		"pid", fmt.Sprintf("%04x", info.productID),
		"vendor", vendor,
		"product", product,
		"speed", info.speed.String())

	return d, nil
}

// VendorID returns the device's vendor ID.
func (d *Device) VendorID() uint16 { return d.info.vendorID }

// ProductID returns the device's product ID.
func (d *Device) ProductID() uint16 { return d.info.productID }

// Path returns the usbfs device node path.
func (d *Device) Path() string { return d.info.devfsPath }

// Speed returns the connection speed reported by sysfs.
func (d *Device) Speed() hal.Speed { return d.info.speed }

// =============================================================================
// Interface Claiming
// =============================================================================

// ClaimInterface detaches any kernel driver bound to iface and claims it.
func (d *Device) ClaimInterface(iface uint8) error {
	if iface >= MaxInterfacesPerDevice {
		return fmt.Errorf("%w: interface %d", pkg.ErrInvalidParameter, iface)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return pkg.ErrClosed
	}

	mask := uint32(1) << iface
	if d.claimedMask&mask != 0 {
		return nil
	}

	if info, ok := d.info.iface(iface); ok && info.driver != "" {
		pkg.LogDebug(pkg.ComponentHAL, "detaching kernel driver",
			"interface", iface,
			"driver", info.driver)
	}

	// ENODATA means no driver was attached.
	if err := disconnectDriver(d.fd, iface); err != nil && !isNoData(err) {
		pkg.LogWarn(pkg.ComponentHAL, "kernel driver detach failed",
			"interface", iface,
			"error", err)
	}

	if err := claimInterface(d.fd, iface); err != nil {
		return fmt.Errorf("claim interface %d: %w", iface, mapErrno(err))
	}

	d.claimedMask |= mask
	pkg.LogDebug(pkg.ComponentHAL, "interface claimed", "interface", iface)
	return nil
}

// ReleaseInterface releases a previously claimed interface.
func (d *Device) ReleaseInterface(iface uint8) error {
	if iface >= MaxInterfacesPerDevice {
		return fmt.Errorf("%w: interface %d", pkg.ErrInvalidParameter, iface)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.releaseLocked(iface)
}

// releaseLocked releases iface if claimed. Caller holds d.mu.
func (d *Device) releaseLocked(iface uint8) error {
	mask := uint32(1) << iface
	if d.claimedMask&mask == 0 {
		return nil
	}

	d.claimedMask &^= mask
	if err := releaseInterface(d.fd, iface); err != nil {
		return fmt.Errorf("release interface %d: %w", iface, mapErrno(err))
	}
	pkg.LogDebug(pkg.ComponentHAL, "interface released", "interface", iface)
	return nil
}

// =============================================================================
// Submission
// =============================================================================

// Submit fills a URB for r and hands it to the kernel.
func (d *Device) Submit(r hal.Request) error {
	buf := r.Buffer()
	if len(buf) == 0 {
		return pkg.ErrBufferTooSmall
	}

	var typ uint8
	switch r.Type() {
	case hal.TransferBulk:
		typ = URBTypeBulk
	case hal.TransferInterrupt:
		typ = URBTypeInterrupt
	case hal.TransferIsochronous:
		typ = URBTypeISO
		if n := len(r.Packets()); n == 0 || n > MaxISOPackets {
			return fmt.Errorf("%w: %d iso packets", pkg.ErrInvalidRequest, n)
		}
	default:
		return fmt.Errorf("%w: %s transfer", pkg.ErrNotSupported, r.Type())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return pkg.ErrClosed
	}

	idx := d.allocSlot()
	if idx < 0 {
		return pkg.ErrBusy
	}
	slot := &d.slots[idx]

	u := &slot.iso.urb
	*u = urb{
		typ:          typ,
		endpoint:     r.Endpoint(),
		buffer:       unsafe.Pointer(&buf[0]),
		bufferLength: int32(len(buf)),
		userContext:  uintptr(idx),
	}
	if typ == URBTypeISO {
		pkts := r.Packets()
		u.flags = URBISOAsap
		u.numPackets = int32(len(pkts))
		for i, p := range pkts {
			slot.iso.packets[i] = isoPacketDesc{length: uint32(p.Length)}
		}
	}

	if err := submitURB(d.fd, u); err != nil {
		d.freeSlot(idx)
		return fmt.Errorf("submit urb: %w", mapErrno(err))
	}
	slot.req = r

	if pkg.TraceEnabled() {
		pkg.LogTrace(pkg.ComponentHAL, "urb submitted",
			"slot", idx,
			"endpoint", fmt.Sprintf("0x%02x", u.endpoint),
			"length", u.bufferLength,
			"packets", u.numPackets)
	}
	return nil
}

// =============================================================================
// Event Processing
// =============================================================================

// HandleEvents waits for URB completions and delivers them. It returns nil
// after at least one completion, when ctx is cancelled, or when the wait is
// interrupted by a signal. The first error returned by a request's Complete
// is returned.
func (d *Device) HandleEvents(ctx context.Context) error {
	if d.isClosed() {
		return pkg.ErrClosed
	}
	if ctx.Err() != nil {
		return nil
	}

	stop := context.AfterFunc(ctx, func() { _ = d.poller.wake() })
	defer stop()

	for {
		r, err := d.poller.wait(-1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				return nil
			}
			return fmt.Errorf("epoll wait: %w", err)
		}

		if r.ready {
			n, err := d.reap()
			if err != nil || n > 0 {
				return err
			}
			if r.hangup {
				return fmt.Errorf("%w: %s", pkg.ErrNoDevice, d.info.devfsPath)
			}
		}

		if r.woken || ctx.Err() != nil {
			return nil
		}
	}
}

// reap delivers every completed URB. It returns the number of completions
// delivered.
func (d *Device) reap() (int, error) {
	completed := 0
	for {
		u, err := reapURBNDelay(d.fd)
		if err != nil {
			if isAgain(err) {
				return completed, nil
			}
			return completed, fmt.Errorf("reap urb: %w", mapErrno(err))
		}

		req, status, actual, ok := d.finish(u)
		if !ok {
			pkg.LogWarn(pkg.ComponentHAL, "reaped unknown urb")
			continue
		}
		completed++

		if err := req.Complete(status, actual); err != nil {
			return completed, err
		}
	}
}

// finish copies a reaped URB's results into its request and frees its slot.
func (d *Device) finish(u *urb) (hal.Request, pkg.TransferStatus, int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.slotOf(u)
	if idx < 0 {
		return nil, 0, 0, false
	}
	slot := &d.slots[idx]
	req := slot.req

	if u.typ == URBTypeISO {
		pkts := req.Packets()
		for i := range pkts {
			desc := &slot.iso.packets[i]
			pkts[i].ActualLength = int(desc.actualLength)
			pkts[i].Status = packetStatus(desc.status)
		}
	}

	status := urbStatus(u.status)
	actual := int(u.actualLength)

	if pkg.TraceEnabled() {
		pkg.LogTrace(pkg.ComponentHAL, "urb reaped",
			"slot", idx,
			"status", status.String(),
			"actual_length", actual,
			"error_count", u.errorCount)
	}

	d.freeSlot(idx)
	return req, status, actual, true
}

// =============================================================================
// Shutdown
// =============================================================================

// discardTimeout bounds the wait for discarded URBs to be given back.
const discardTimeout = 100 * time.Millisecond

// Close discards in-flight URBs without completing their requests, releases
// claimed interfaces and closes the device node.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	abandoned := d.pending
	d.discardAll()

	var errs []error
	for i := uint8(0); i < MaxInterfacesPerDevice; i++ {
		if err := d.releaseLocked(i); err != nil {
			errs = append(errs, err)
		}
	}

	if err := d.poller.close(); err != nil {
		errs = append(errs, fmt.Errorf("close poller: %w", err))
	}
	if err := unix.Close(d.fd); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", d.info.devfsPath, err))
	}

	pkg.LogDebug(pkg.ComponentHAL, "device closed",
		"path", d.info.devfsPath,
		"abandoned", abandoned)
	return errors.Join(errs...)
}

// discardAll cancels pending URBs and reaps them back. Caller holds d.mu.
func (d *Device) discardAll() {
	for i := range d.slots {
		if d.slots[i].inUse {
			_ = discardURB(d.fd, &d.slots[i].iso.urb)
		}
	}

	deadline := time.Now().Add(discardTimeout)
	for d.pending > 0 && time.Now().Before(deadline) {
		u, err := reapURBNDelay(d.fd)
		if err != nil {
			if !isAgain(err) {
				break
			}
			if _, err := d.poller.wait(int(discardTimeout / time.Millisecond)); err != nil && !errors.Is(err, unix.EINTR) {
				break
			}
			continue
		}
		if idx := d.slotOf(u); idx >= 0 {
			d.freeSlot(idx)
		}
	}

	d.initSlots()
}

// isClosed reports whether Close has been called.
func (d *Device) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ hal.Device = (*Device)(nil)
