//go:build linux

package linux

import (
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"
)

// =============================================================================
// Poller
// =============================================================================

// poller waits for readiness of a single device file descriptor. An eventfd
// registered alongside it lets other goroutines interrupt the wait.
type poller struct {
	epfd   int // epoll file descriptor
	wakefd int // eventfd for waking the poller
	fd     int // watched file descriptor, -1 if none

	events [MaxEpollEvents]unix.EpollEvent

	mu     sync.Mutex // Serializes close against wake
	closed bool
}

// readiness is the result of one wait.
type readiness struct {
	ready  bool // Watched fd signalled events
	hangup bool // Watched fd reported EPOLLERR or EPOLLHUP
	woken  bool // wake was called
}

// newPoller creates a new poller instance.
func newPoller() (*poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}

	p := &poller{
		epfd:   epfd,
		wakefd: wakefd,
		fd:     -1,
	}

	if err := p.ctl(unix.EPOLL_CTL_ADD, wakefd, unix.EPOLLIN); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, err
	}

	return p, nil
}

// watch registers fd for the given events. A poller watches one fd.
func (p *poller) watch(fd int, events uint32) error {
	if err := p.ctl(unix.EPOLL_CTL_ADD, fd, events); err != nil {
		return err
	}
	p.fd = fd
	return nil
}

// ctl issues an epoll_ctl for fd.
func (p *poller) ctl(op, fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, op, fd, &ev)
}

// wake interrupts a blocked wait. It is a no-op after close.
func (p *poller) wake() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wakefd, buf[:])
	if err == unix.EAGAIN {
		// Counter saturated; a wakeup is already pending.
		return nil
	}
	return err
}

// wait blocks until the watched fd is ready or wake is called. timeout is in
// milliseconds, -1 for infinite. EINTR is returned to the caller.
func (p *poller) wait(timeout int) (readiness, error) {
	var r readiness

	n, err := unix.EpollWait(p.epfd, p.events[:], timeout)
	if err != nil {
		return r, err
	}

	for i := 0; i < n; i++ {
		ev := &p.events[i]
		switch int(ev.Fd) {
		case p.wakefd:
			p.drain()
			r.woken = true
		case p.fd:
			if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				r.hangup = true
			}
			r.ready = true
		}
	}
	return r, nil
}

// drain resets the eventfd counter.
func (p *poller) drain() {
	var buf [8]byte
	_, _ = unix.Read(p.wakefd, buf[:])
}

// close releases the epoll and eventfd descriptors. The watched fd is owned
// by the caller and is not closed.
func (p *poller) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.fd >= 0 {
		_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, p.fd, nil)
	}
	errWake := unix.Close(p.wakefd)
	errEp := unix.Close(p.epfd)
	if errWake != nil {
		return errWake
	}
	return errEp
}
