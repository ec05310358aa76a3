package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/ardnew/usbbench/bench"
	"github.com/ardnew/usbbench/host"
	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/host/hal/fifo"
	"github.com/ardnew/usbbench/pkg"
	"github.com/ardnew/usbbench/pkg/prof"
)

// Provider names.
const (
	providerUSBFS = "usbfs"
	providerFIFO  = "fifo"
)

// sourceStdin selects standard input as the fifo provider's source.
const sourceStdin = "-"

// hexID is a 16-bit USB identifier written in hexadecimal, with or without a
// 0x prefix.
type hexID uint16

// Decode implements kong.MapperValue.
func (h *hexID) Decode(ctx *kong.DecodeContext) error {
	var s string
	if err := ctx.Scan.PopValueInto("hex ID", &s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return fmt.Errorf("invalid hex ID %q", s)
	}
	*h = hexID(v)
	return nil
}

// String formats the ID as four hex digits.
func (h hexID) String() string {
	return fmt.Sprintf("%04x", uint16(h))
}

// CLI is the command line of usbbench.
type CLI struct {
	Provider string `help:"Asynchronous I/O provider (${enum})." enum:"usbfs,fifo" default:"usbfs" env:"USBBENCH_PROVIDER"`
	VID      hexID  `name:"vid" help:"Vendor ID of the target device (hex)." default:"${vid}" env:"USBBENCH_VID"`
	PID      hexID  `name:"pid" help:"Product ID of the target device (hex)." default:"${pid}" env:"USBBENCH_PID"`
	Mode     string `help:"Transfer preset: iso reads endpoint 0x86 in 16 packets, bulk reads endpoint 0x82 (${enum})." enum:"iso,bulk" default:"iso" env:"USBBENCH_MODE"`
	Source   string `help:"Input for the fifo provider: a named pipe, a file, or - for stdin." env:"USBBENCH_SOURCE"`
	Framed   bool   `help:"Read framed messages from the fifo source instead of raw bytes." env:"USBBENCH_FRAMED"`

	Dump  bool `help:"Hex dump received data." default:"true" negatable:"" env:"USBBENCH_DUMP"`
	Quiet bool `short:"q" help:"Suppress per-transfer diagnostic lines." env:"USBBENCH_QUIET"`

	LogLevel  string `help:"Log level (${enum})." enum:"trace,debug,info,warn,error" default:"warn" env:"USBBENCH_LOG_LEVEL"`
	LogFormat string `help:"Log format; auto selects text on a terminal and JSON otherwise (${enum})." enum:"auto,text,json" default:"auto" env:"USBBENCH_LOG_FORMAT"`

	CPUProfile  string `name:"cpu-profile" help:"Write a CPU profile to this file (requires -tags profile)." env:"USBBENCH_CPU_PROFILE"`
	HeapProfile string `name:"heap-profile" help:"Write a heap profile to this file on exit (requires -tags profile)." env:"USBBENCH_HEAP_PROFILE"`
}

// newParser builds the kong parser for cli.
func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("usbbench"),
		kong.Description("Asynchronous USB transfer throughput benchmark."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{
			"vid": hexID(host.DefaultVendorID).String(),
			"pid": hexID(host.DefaultProductID).String(),
		},
	}, opts...)...)
}

// run parses args and runs the benchmark, returning the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		cli    CLI
		exited = -1
	)

	parser, err := newParser(&cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exited = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "usbbench: %v\n", err)
		return bench.ClassUsage.ExitCode()
	}

	_, err = parser.Parse(args)
	if exited >= 0 {
		// --help
		return exited
	}
	if err != nil {
		var perr *kong.ParseError
		if errors.As(err, &perr) && perr.Context != nil {
			_ = perr.Context.PrintUsage(true)
		}
		fmt.Fprintf(stderr, "usbbench: error: %v\n", err)
		return bench.ClassUsage.ExitCode()
	}

	cli.configureLogging(stderr)

	err = cli.Run(ctx, stdout)
	code := bench.ExitCode(err)
	if code != 0 {
		pkg.LogError(pkg.ComponentCLI, "benchmark failed",
			"error", err,
			"exit_code", code)
	}
	return code
}

// configureLogging installs the default logger on stderr.
func (c *CLI) configureLogging(stderr io.Writer) {
	pkg.SetLogLevel(pkg.ParseLevel(c.LogLevel))

	format := pkg.LogFormatJSON
	switch c.LogFormat {
	case "text":
		format = pkg.LogFormatText
	case "auto":
		if f, ok := stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = pkg.LogFormatText
		}
	}
	pkg.SetLogFormat(format, stderr)
}

// validate checks flag combinations kong cannot express.
func (c *CLI) validate() error {
	if c.Provider == providerFIFO && c.Source == "" {
		return errors.New("--source is required with --provider=fifo")
	}
	if c.Provider != providerFIFO && (c.Source != "" || c.Framed) {
		return errors.New("--source and --framed apply only to --provider=fifo")
	}
	return nil
}

// Run opens the device, claims the benchmark interface and runs a session
// until interrupted or ctx is cancelled.
func (c *CLI) Run(ctx context.Context, stdout io.Writer) error {
	if err := c.validate(); err != nil {
		return bench.Fail(bench.ClassUsage, err)
	}
	mode, err := host.ParseMode(c.Mode)
	if err != nil {
		return bench.Fail(bench.ClassUsage, err)
	}

	stopProfile, err := prof.Capture{CPU: c.CPUProfile, Heap: c.HeapProfile}.Start()
	if err != nil {
		return bench.Fail(bench.ClassUsage, err)
	}
	defer func() {
		if perr := stopProfile(); perr != nil {
			pkg.LogWarn(pkg.ComponentCLI, "profile not written", "error", perr)
		}
	}()

	dev, err := c.open()
	if err != nil {
		if errors.Is(err, pkg.ErrNoDevice) {
			return bench.Fail(bench.ClassDeviceNotFound, err)
		}
		return bench.Fail(bench.ClassProviderInit, err)
	}
	defer func() {
		if cerr := dev.Close(); cerr != nil {
			pkg.LogWarn(pkg.ComponentCLI, "close failed", "error", cerr)
		}
	}()

	if err := dev.ClaimInterface(host.Interface); err != nil {
		return bench.Fail(bench.ClassClaimInterface, err)
	}
	defer func() {
		if rerr := dev.ReleaseInterface(host.Interface); rerr != nil {
			pkg.LogWarn(pkg.ComponentCLI, "release failed",
				"interface", host.Interface,
				"error", rerr)
		}
	}()

	session := bench.NewSession(dev,
		bench.WithOutput(stdout),
		bench.WithDump(c.Dump),
		bench.WithQuiet(c.Quiet))

	t, err := mode.Preset().NewTransfer(session)
	if err != nil {
		return bench.Fail(bench.ClassProviderInit, err)
	}

	release := session.StopOnSignal(os.Interrupt, syscall.SIGTERM)
	defer release()

	pkg.LogInfo(pkg.ComponentCLI, "benchmark running; interrupt to stop",
		"provider", c.Provider,
		"mode", mode.String())

	report, err := session.Run(ctx, t)
	if err != nil && !errors.Is(err, bench.ErrInsufficientDuration) {
		return err
	}

	pkg.LogInfo(pkg.ComponentCLI, "benchmark finished",
		"transfers", humanize.Comma(int64(report.Transfers)),
		"bytes", humanize.Bytes(report.Bytes),
		"elapsed", time.Duration(report.Millis)*time.Millisecond,
		"rate", humanize.Bytes(report.BytesPerSec)+"/s")
	return err
}

// open creates the selected provider.
func (c *CLI) open() (hal.Device, error) {
	switch c.Provider {
	case providerFIFO:
		opts := []fifo.Option{fifo.WithFraming(c.Framed)}
		if c.Source == sourceStdin {
			return fifo.New(os.Stdin, append(opts, fifo.WithName("stdin"))...), nil
		}
		p, err := fifo.Open(c.Source, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return openUSBFS(uint16(c.VID), uint16(c.PID))
	}
}
