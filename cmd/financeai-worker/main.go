package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"financeai/internal/backend"
	"financeai/internal/cli"
	"financeai/internal/config"
	"financeai/internal/log"
	"financeai/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger.Info("Starting financeai worker", log.FieldBackend, cfg.DataBackend, "queue", cfg.AMQPQueue)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}
	if cfg.DataBackend == string(backend.MemoryBackend) {
		return errors.New("the worker needs a shared backend (sqlite or postgres), not memory")
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()
	if result.Events == nil {
		return fmt.Errorf("cannot reach AMQP broker at %s", cfg.AMQPURL)
	}

	w := worker.NewAnomalyWorker(result.Repository, logger)
	err = result.Events.ConsumeTransactionEvents(ctx, w.HandleEvent)
	handled, users := w.Stats()
	logger.Info("Event consumption stopped", "handled", handled, "users", users)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
