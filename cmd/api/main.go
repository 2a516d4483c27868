package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := NewRootCmd()
	if err != nil {
		os.Exit(exitCode(os.Stderr, err))
	}
	if err := root.ExecuteContext(ctx); err != nil {
		// cobra has already printed err
		os.Exit(1)
	}
}

// exitCode reports a startup failure that happened before cobra could print it.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}
