package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Makepad-fr/todos/internal/cli"
)

func main() {
	// Signals cancel in-flight requests and stop the view.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
