package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"options-trade-lab/internal/lifecycle"
	"options-trade-lab/internal/storage"
	"options-trade-lab/internal/strategy"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1 // storage and internal errors
	exitClientError = 2 // bad input from the caller
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error onto a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var resErr *strategy.ResolutionError
	switch {
	case errors.As(err, &resErr),
		errors.Is(err, errUsage),
		errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, lifecycle.ErrInvalidEvent),
		errors.Is(err, lifecycle.ErrMissingTradeKey),
		errors.Is(err, lifecycle.ErrTradeNotFound):
		return exitClientError
	default:
		return exitFailure
	}
}
