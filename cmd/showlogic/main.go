// Show Logic Core runs show-control actions: named, ordered lists of
// triggers fired by operators, MIDI notes, slides and remote systems.
//
// See "showlogic --help" for the available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/show-logic-core/internal/cli"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is separated from main for testability.
func run(ctx context.Context, args []string) error {
	info := cli.BuildInfo{Version: version, Commit: commit, Date: date}
	return cli.Execute(ctx, info, args, os.Stdout, os.Stderr)
}
