package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"financeai/internal/cli"
	"financeai/internal/config"
	"financeai/internal/log"
)

func main() {
	config.LoadEnvFile()
	cfg := config.LoadClient()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentClient,
		Output:    os.Stderr,
	})

	if err := cfg.Validate(); err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(cfg, os.Stdout, os.Stdin, logger)
	if err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(1)
	}
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}
