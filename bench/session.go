package bench

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/ardnew/usbbench/host"
	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/pkg"
	"github.com/ardnew/usbbench/pkg/clock"
)

// Session is one benchmark run against a single provider.
//
// All fields except the termination flag are owned by the goroutine that
// calls Run; completions are delivered on that goroutine by the provider.
type Session struct {
	provider hal.Provider
	out      *bufio.Writer
	dump     bool
	quiet    bool
	now      func() clock.Instant

	counters Counters
	window   Window
	started  bool

	stopped atomic.Bool
	wake    context.Context
	cancel  context.CancelFunc
}

// Option configures a Session.
type Option func(*Session)

// WithOutput sets the destination of diagnostic lines and the summary.
// The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.out = bufio.NewWriter(w)
	}
}

// WithDump enables or disables the hex dump of received bytes.
func WithDump(enabled bool) Option {
	return func(s *Session) {
		s.dump = enabled
	}
}

// WithQuiet suppresses per-completion diagnostic lines. The summary line is
// always written.
func WithQuiet(quiet bool) Option {
	return func(s *Session) {
		s.quiet = quiet
	}
}

// WithClock replaces the timestamp source.
func WithClock(now func() clock.Instant) Option {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates a session bound to p.
func NewSession(p hal.Provider, opts ...Option) *Session {
	s := &Session{
		provider: p,
		dump:     true,
		now:      clock.Now,
	}
	s.wake, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	if s.out == nil {
		s.out = bufio.NewWriter(os.Stdout)
	}
	return s
}

// Counters returns the current counters.
func (s *Session) Counters() Counters { return s.counters }

// Window returns the measurement window.
func (s *Session) Window() Window { return s.window }

// Stopped reports whether termination has been requested.
func (s *Session) Stopped() bool { return s.stopped.Load() }

// Stop requests termination. It only sets the termination flag and interrupts
// the provider's blocking wait, so it is safe to call from any goroutine, any
// number of times, including before Run.
func (s *Session) Stop() {
	s.stopped.Store(true)
	s.cancel()
}

// Run records the start instant, submits t and processes events until Stop
// is called or ctx is cancelled. t must have been built with s as its
// completion handler.
//
// On normal termination Run captures the stop instant, writes the summary line
// and returns the report; the error is ErrInsufficientDuration if the window
// was too short. A fatal condition is returned as a *Failure and no summary
// is written.
func (s *Session) Run(ctx context.Context, t *host.Transfer) (Report, error) {
	if s.started {
		return Report{}, fmt.Errorf("%w: session already run", pkg.ErrInvalidState)
	}
	s.started = true
	defer s.out.Flush()

	release := context.AfterFunc(ctx, s.Stop)
	defer release()

	pkg.LogDebug(pkg.ComponentBench, "starting benchmark",
		"type", t.Type().String(),
		"endpoint", fmt.Sprintf("0x%02x", t.Endpoint()),
		"length", t.Length(),
		"packets", len(t.Packets()))
	pkg.LogDebug(pkg.ComponentBench,
		"single transfer in flight; completion-to-resubmit gaps limit throughput")

	s.window.Start = s.now()
	if err := t.Submit(s.provider); err != nil {
		return Report{}, Fail(ClassSubmit, err)
	}

	for !s.stopped.Load() {
		if err := s.provider.HandleEvents(s.wake); err != nil {
			pkg.LogDebug(pkg.ComponentBench, "event processing ended",
				"error", err,
				"transfers", s.counters.Transfers)
			return Report{}, Fail(ClassEvents, err)
		}
	}

	s.window.Stop = s.now()
	r, err := Measure(s.window.Start, s.window.Stop, s.counters)
	fmt.Fprintln(s.out, r)
	if errors.Is(err, ErrInsufficientDuration) {
		pkg.LogWarn(pkg.ComponentBench, "measurement window too short",
			"millis", r.Millis,
			"transfers", r.Transfers)
	}
	return r, err
}
