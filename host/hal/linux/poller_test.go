//go:build linux

package linux

import (
	"testing"

	"golang.org/x/sys/unix"
)

func newTestPoller(t *testing.T) *poller {
	t.Helper()
	p, err := newPoller()
	if err != nil {
		t.Fatalf("newPoller failed: %v", err)
	}
	t.Cleanup(func() { p.close() })
	return p
}

func TestNewPoller(t *testing.T) {
	p := newTestPoller(t)

	if p.epfd < 0 {
		t.Error("epfd should be >= 0")
	}
	if p.wakefd < 0 {
		t.Error("wakefd should be >= 0")
	}
	if p.fd != -1 {
		t.Errorf("fd = %d, want -1", p.fd)
	}
}

func TestPoller_Timeout(t *testing.T) {
	p := newTestPoller(t)

	r, err := p.wait(0)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if r.ready || r.woken || r.hangup {
		t.Errorf("wait(0) = %+v, want no events", r)
	}
}

func TestPoller_Wake(t *testing.T) {
	p := newTestPoller(t)

	if err := p.wake(); err != nil {
		t.Fatalf("wake failed: %v", err)
	}
	if err := p.wake(); err != nil {
		t.Fatalf("second wake failed: %v", err)
	}

	r, err := p.wait(1000)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if !r.woken {
		t.Error("wait should report woken")
	}
	if r.ready {
		t.Error("wait should not report ready")
	}

	// The eventfd was drained.
	r, err = p.wait(0)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if r.woken {
		t.Error("wakeup should be consumed")
	}
}

func TestPoller_Watch(t *testing.T) {
	p := newTestPoller(t)

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		t.Fatalf("pipe2 failed: %v", err)
	}
	defer unix.Close(fds[0])

	if err := p.watch(fds[0], unix.EPOLLIN); err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	if _, err := unix.Write(fds[1], []byte{1}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	r, err := p.wait(1000)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if !r.ready || r.hangup {
		t.Errorf("wait = %+v, want ready without hangup", r)
	}

	var buf [1]byte
	if _, err := unix.Read(fds[0], buf[:]); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	unix.Close(fds[1])

	r, err = p.wait(1000)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if !r.hangup {
		t.Errorf("wait = %+v, want hangup after writer closed", r)
	}
}

func TestPoller_CloseIdempotent(t *testing.T) {
	p, err := newPoller()
	if err != nil {
		t.Fatalf("newPoller failed: %v", err)
	}
	if err := p.close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	if err := p.close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
	if err := p.wake(); err != nil {
		t.Errorf("wake after close = %v, want nil", err)
	}
}
