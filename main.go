// picoctl - a telnet command endpoint for a small networked board.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"picoctl/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "picoctl: %v\n", err)
		os.Exit(1)
	}
}
