package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emilythestrangee/decision-board/backend/internal/cli"
	"github.com/emilythestrangee/decision-board/backend/internal/logging"
)

func main() {
	level := os.Getenv("DECISIONCTL_LOG_LEVEL")
	if level == "" {
		level = "error"
	}
	logging.Init(level, "decisionctl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
