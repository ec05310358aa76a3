package bench

import (
	"os"
	"os/signal"
	"sync"

	"github.com/ardnew/usbbench/pkg"
)

// StopOnSignal calls Stop when any of sigs is delivered. With no arguments it
// listens for os.Interrupt. The returned function stops signal delivery and
// must be called once the session has finished.
func (s *Session) StopOnSignal(sigs ...os.Signal) (release func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt}
	}

	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(ch, sigs...)

	go func() {
		select {
		case sig := <-ch:
			pkg.LogDebug(pkg.ComponentBench, "signal received", "signal", sig.String())
			s.Stop()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
