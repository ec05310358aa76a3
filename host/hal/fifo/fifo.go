package fifo

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/pkg"
)

// Message types for the framed protocol.
const (
	msgData  = 0x02 // DATA packet
	msgNak   = 0x04 // NAK response
	msgStall = 0x05 // STALL response
)

// Buffer sizes.
const (
	maxMessageSize = 4096 // Maximum framed payload
	headerSize     = 3    // Message header size (type + length)
)

// MaxInFlight is the maximum number of outstanding submissions.
const MaxInFlight = 4

// MaxInterfaces is the number of interfaces that can be claimed.
const MaxInterfaces = 32

// closeTimeout bounds the wait for the reader goroutine in Close. A read on a
// blocking descriptor such as a terminal cannot be interrupted; the goroutine
// is abandoned and exits when its read returns.
const closeTimeout = 100 * time.Millisecond

// completion is a finished request waiting to be delivered.
type completion struct {
	req    hal.Request
	status pkg.TransferStatus
	actual int
}

// Provider implements hal.Device over a byte stream. IN endpoint data is read
// from the stream; each submission is served in order by a single reader
// goroutine and delivered from HandleEvents on the caller's goroutine.
type Provider struct {
	r      io.ReadCloser
	name   string
	framed bool

	reqs chan hal.Request
	done chan completion
	quit chan struct{}
	wg   sync.WaitGroup

	// Reader goroutine state
	hdr   [headerSize]byte
	rxBuf [maxMessageSize]byte

	mu       sync.Mutex
	inflight int
	claimed  uint32
	closed   bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithFraming selects the framed protocol: every read consumes one
// [type][len_lo][len_hi][payload] message. DATA payloads fill the request,
// STALL and NAK complete it with the corresponding status.
func WithFraming(framed bool) Option {
	return func(p *Provider) { p.framed = framed }
}

// WithName sets the name used in log messages.
func WithName(name string) Option {
	return func(p *Provider) { p.name = name }
}

// New creates a provider reading from r. The provider owns r and closes it
// in Close.
func New(r io.ReadCloser, opts ...Option) *Provider {
	p := &Provider{
		r:    r,
		name: "stream",
		reqs: make(chan hal.Request, MaxInFlight),
		done: make(chan completion, MaxInFlight),
		quit: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(1)
	go p.serve()

	pkg.LogInfo(pkg.ComponentHAL, "stream provider started",
		"source", p.name,
		"framed", p.framed)
	return p
}

// Open opens path for reading and creates a provider over it. Opening a named
// pipe blocks until a writer connects.
func Open(path string, opts ...Option) (*Provider, error) {
	if fi, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrNoDevice, err)
	} else if fi.Mode()&os.ModeNamedPipe != 0 {
		pkg.LogInfo(pkg.ComponentHAL, "waiting for writer", "path", path)
	}

	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return New(f, append([]Option{WithName(path)}, opts...)...), nil
}

// =============================================================================
// Interface Claiming
// =============================================================================

// ClaimInterface records iface as claimed.
func (p *Provider) ClaimInterface(iface uint8) error {
	if iface >= MaxInterfaces {
		return fmt.Errorf("%w: interface %d", pkg.ErrInvalidParameter, iface)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return pkg.ErrClosed
	}
	p.claimed |= 1 << iface
	return nil
}

// ReleaseInterface clears the claim on iface.
func (p *Provider) ReleaseInterface(iface uint8) error {
	if iface >= MaxInterfaces {
		return fmt.Errorf("%w: interface %d", pkg.ErrInvalidParameter, iface)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.claimed &^= 1 << iface
	return nil
}

// Claimed reports whether iface is claimed.
func (p *Provider) Claimed(iface uint8) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return iface < MaxInterfaces && p.claimed&(1<<iface) != 0
}

// =============================================================================
// Submission
// =============================================================================

// Submit queues r for the reader goroutine. Only IN endpoints are supported.
func (p *Provider) Submit(r hal.Request) error {
	if !hal.EndpointIsIn(r.Endpoint()) {
		return fmt.Errorf("%w: OUT endpoint 0x%02x", pkg.ErrNotSupported, r.Endpoint())
	}
	if len(r.Buffer()) == 0 {
		return pkg.ErrBufferTooSmall
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return pkg.ErrClosed
	}
	if p.inflight >= MaxInFlight {
		return pkg.ErrBusy
	}

	p.inflight++
	p.reqs <- r
	return nil
}

// HandleEvents blocks until a completion is available, then delivers it and
// any others already queued. It returns nil without delivering when ctx is
// cancelled.
func (p *Provider) HandleEvents(ctx context.Context) error {
	if p.isClosed() {
		return pkg.ErrClosed
	}
	if ctx.Err() != nil {
		return nil
	}

	select {
	case c := <-p.done:
		if err := p.deliver(c); err != nil {
			return err
		}
	case <-ctx.Done():
		return nil
	case <-p.quit:
		return pkg.ErrClosed
	}

	for {
		select {
		case c := <-p.done:
			if err := p.deliver(c); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// deliver completes a request.
func (p *Provider) deliver(c completion) error {
	p.mu.Lock()
	p.inflight--
	p.mu.Unlock()

	return c.req.Complete(c.status, c.actual)
}

// Close stops the reader goroutine, closes the stream and abandons any
// outstanding requests. It waits at most closeTimeout for a reader blocked on
// the stream.
func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	abandoned := p.inflight
	p.mu.Unlock()

	close(p.quit)
	err := p.r.Close()

	stopped := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(closeTimeout):
		pkg.LogDebug(pkg.ComponentHAL, "reader still blocked; abandoning",
			"source", p.name)
	}

	pkg.LogDebug(pkg.ComponentHAL, "stream provider closed",
		"source", p.name,
		"abandoned", abandoned)
	return err
}

// isClosed reports whether Close has been called.
func (p *Provider) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// =============================================================================
// Reader
// =============================================================================

// serve reads data for each queued request in submission order.
func (p *Provider) serve() {
	defer p.wg.Done()

	for {
		var r hal.Request
		select {
		case r = <-p.reqs:
		case <-p.quit:
			return
		}

		c := p.fill(r)

		select {
		case p.done <- c:
		case <-p.quit:
			return
		}
	}
}

// fill reads the request's buffer, packet by packet for isochronous requests.
func (p *Provider) fill(r hal.Request) completion {
	buf := r.Buffer()
	pkts := r.Packets()

	if len(pkts) == 0 {
		n, status := p.read(buf)
		return completion{req: r, status: status, actual: n}
	}

	c := completion{req: r, status: pkg.TransferStatusSuccess}
	off := 0
	for i := range pkts {
		end := min(off+pkts[i].Length, len(buf))
		n, status := p.read(buf[off:end])
		pkts[i].ActualLength = n
		pkts[i].Status = status
		c.actual += n
		off = end

		if status == pkg.TransferStatusNoDevice {
			c.status = status
			for j := i + 1; j < len(pkts); j++ {
				pkts[j].Status = status
			}
			break
		}
	}
	return c
}

// read performs one read into b.
func (p *Provider) read(b []byte) (int, pkg.TransferStatus) {
	if p.framed {
		return p.readMessage(b)
	}

	n, err := p.r.Read(b)
	if n > 0 {
		return n, pkg.TransferStatusSuccess
	}
	return 0, p.readStatus(err)
}

// readMessage reads one framed message into b.
func (p *Provider) readMessage(b []byte) (int, pkg.TransferStatus) {
	if _, err := io.ReadFull(p.r, p.hdr[:]); err != nil {
		return 0, p.readStatus(err)
	}

	length := int(binary.LittleEndian.Uint16(p.hdr[1:3]))
	if length > len(p.rxBuf) {
		pkg.LogWarn(pkg.ComponentHAL, "framed message too large",
			"source", p.name,
			"length", length)
		return 0, pkg.TransferStatusError
	}
	if _, err := io.ReadFull(p.r, p.rxBuf[:length]); err != nil {
		return 0, p.readStatus(err)
	}

	switch p.hdr[0] {
	case msgData:
		n := copy(b, p.rxBuf[:length])
		if length > len(b) {
			return n, pkg.TransferStatusOverrun
		}
		return n, pkg.TransferStatusSuccess
	case msgStall:
		return 0, pkg.TransferStatusStall
	case msgNak:
		return 0, pkg.TransferStatusTimeout
	default:
		pkg.LogWarn(pkg.ComponentHAL, "unexpected message type",
			"source", p.name,
			"type", fmt.Sprintf("0x%02x", p.hdr[0]))
		return 0, pkg.TransferStatusError
	}
}

// readStatus maps a read error to a transfer status.
func (p *Provider) readStatus(err error) pkg.TransferStatus {
	switch {
	case err == nil:
		return pkg.TransferStatusSuccess
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, os.ErrClosed):
		return pkg.TransferStatusNoDevice
	default:
		pkg.LogWarn(pkg.ComponentHAL, "stream read failed",
			"source", p.name,
			"error", err)
		return pkg.TransferStatusError
	}
}

// Interface Compliance
var _ hal.Device = (*Provider)(nil)
