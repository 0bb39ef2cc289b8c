// Command anvil-features runs the feature probes against the built-in
// adapters and prints a comparison table.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

var (
	// Version information (set by ldflags during build).
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailures) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
