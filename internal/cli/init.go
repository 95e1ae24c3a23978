// Package cli holds the shared process bootstrap of the FinanceAI binaries
// and the terminal client's commands.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"financeai/internal/config"
	"financeai/internal/log"
)

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(out io.Writer, level, format string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Format = format
	cfg.Output = out
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads the server configuration, exiting the process
// when it is invalid.
func LoadAndValidateConfig() (*config.Config, *log.Logger) {
	config.LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
