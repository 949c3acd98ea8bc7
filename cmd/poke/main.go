// Command poke checks graph configuration and inspects running graphs through
// their debug handler.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xraph/poke/internal/cli"
)

var (
	// Version information (set by ldflags during build).
	version = "dev"
	commit  = "unknown"
)

func main() {
	cli.ConfigureColors(cli.DefaultColorConfig(os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout, os.Stderr)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
