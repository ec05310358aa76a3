// Command usbbench measures the throughput of a USB IN endpoint by keeping a
// single asynchronous transfer in flight until interrupted.
//
// Usage:
//
//	usbbench [--mode=iso|bulk] [--vid=16c0] [--pid=0763] [--no-dump] [--quiet]
//	usbbench --provider=fifo --source=/tmp/usbbench
//
// Press Ctrl-C to stop; the summary line is printed on exit:
//
//	812 transfers (total 1662976 bytes) in 1015 milliseconds => 1638400 bytes/sec
//
// Exit codes:
//
//	0  normal shutdown
//	1  provider initialization failure
//	2  device not found
//	3  transfer status failure
//	4  interface claim failure
//	5  isochronous packet failure
//	6  submission failure
//	7  invalid command line
//	8  event processing failure
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
