package bench

import (
	"fmt"

	"github.com/ardnew/usbbench/host"
	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/pkg"
)

// Complete validates a finished transfer, counts it and resubmits it.
// It implements host.CompletionHandler; any error it returns is fatal.
func (s *Session) Complete(t *host.Transfer) error {
	o := t.Outcome()
	if o.Status != pkg.TransferStatusSuccess {
		pkg.LogError(pkg.ComponentBench, "transfer failed", "status", o.Status.String())
		return &Failure{Class: ClassTransferStatus, Status: o.Status}
	}

	if t.Type() == hal.TransferIsochronous {
		for i, p := range o.Packets {
			if p.Status != pkg.TransferStatusSuccess {
				pkg.LogError(pkg.ComponentBench, "packet failed",
					"packet", i,
					"status", p.Status.String())
				return &Failure{Class: ClassPacketStatus, Packet: i, Status: p.Status}
			}
			if !s.quiet {
				fmt.Fprintf(s.out, "pack%d length:%d, actual_length:%d\n", i, p.Length, p.ActualLength)
			}
		}
	}

	if !s.quiet {
		fmt.Fprintf(s.out, "length:%d, actual_length:%d\n", t.Length(), o.ActualLength)
		if s.dump {
			if err := Dump(s.out, t.Data()); err != nil {
				pkg.LogWarn(pkg.ComponentBench, "dump failed", "error", err)
			}
		}
	}

	s.counters.Bytes += uint64(o.ActualLength)
	s.counters.Transfers++

	if pkg.TraceEnabled() {
		pkg.LogTrace(pkg.ComponentBench, "transfer completed",
			"actual_length", o.ActualLength,
			"transfers", s.counters.Transfers,
			"bytes", s.counters.Bytes)
	}

	if err := t.Submit(s.provider); err != nil {
		pkg.LogError(pkg.ComponentBench, "error re-submitting transfer", "error", err)
		return &Failure{Class: ClassSubmit, Err: err}
	}
	return nil
}

// Interface Compliance
var _ host.CompletionHandler = (*Session)(nil)
