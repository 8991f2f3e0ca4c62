// Command sieve validates builder definitions, compiles filter requests
// into SQL and runs conformance scenarios.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/roach88/sieve/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	os.Exit(cli.GetExitCode(err))
}
