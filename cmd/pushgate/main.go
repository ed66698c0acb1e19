package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roasbeef/pushgate/cmd/pushgate/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)

	err := commands.ExecuteContext(ctx)
	stop()

	var exitErr *commands.ExitError
	switch {
	case errors.As(err, &exitErr):
		os.Exit(exitErr.Code)

	case err != nil:
		fmt.Fprintln(os.Stderr, "pushgate:", err)
		os.Exit(1)
	}
}
