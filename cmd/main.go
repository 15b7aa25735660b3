package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/listenlog/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "listenlog",
		Usage:    "A personal music diary backed by your Spotify listening history",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrMissingSecret) {
			logger.Fatal("session secret is not set", "hint", "run `listenlog secret` and set LISTENLOG_SESSION_SECRET or session.secret")
		}
		logger.Fatalf("application error: %v", err)
	}
}
