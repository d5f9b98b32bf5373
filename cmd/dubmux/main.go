package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dubmux/internal/platform"
)

func main() {
	relaunched, err := platform.EnsureElevated(os.Args[1:])
	if err != nil {
		// Elevation is best-effort; keep going without it.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if relaunched {
		return
	}

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
