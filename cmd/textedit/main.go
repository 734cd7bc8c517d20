package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/asynkron/textedit/internal/cli"
)

// main runs the textedit command line until it finishes or the process is
// interrupted.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
