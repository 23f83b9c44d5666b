// rfmgateway bridges an RFM69 packet-radio network to an MQTT broker.
//
// Sensor nodes transmit fixed 16-byte records; each record is published as
// four small MQTT messages. MQTT commands under <root>/<network>/<node> are
// encoded back into records and sent to the addressed node.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stderr))
}

// realMain runs the CLI and returns the process exit code. Deferred
// cleanup runs before main calls os.Exit.
func realMain(args []string, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
