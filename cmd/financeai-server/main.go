package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"financeai/internal/ai"
	"financeai/internal/auth"
	"financeai/internal/backend"
	"financeai/internal/cache"
	"financeai/internal/cli"
	"financeai/internal/config"
	"financeai/internal/core"
	apphttp "financeai/internal/http"
	"financeai/internal/log"
	"financeai/internal/services"

	"golang.org/x/sync/errgroup"
)

// listCacheSize is the maximum number of cached transaction pages.
const listCacheSize = 10_000

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger.Info("Starting financeai server",
		log.FieldBackend, cfg.DataBackend,
		log.FieldProvider, cfg.AIProvider,
		"port", cfg.Port)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
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

	advisor, err := ai.New(ai.Settings{
		Provider:      cfg.AIProvider,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
		OllamaURL:     cfg.OllamaURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		return fmt.Errorf("init AI advisor: %w", err)
	}

	var opts []services.TransactionOption
	if cfg.CacheTTL > 0 {
		lists, err := cache.NewRistretto[core.Page](listCacheSize, cfg.CacheTTL)
		if err != nil {
			return err
		}
		defer lists.Close()
		opts = append(opts, services.WithListCache(lists))
	}
	if result.Events != nil {
		opts = append(opts, services.WithPublisher(result.Events))
	}

	repo := result.Repository
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:   services.NewTransactionService(repo, opts...),
		Auth:           services.NewAuthService(repo, issuer),
		Advisor:        services.NewAdvisorService(repo, advisor),
		Issuer:         issuer,
		Storage:        repo,
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		AuthRateLimit:  cfg.RateLimitPerMinute,
		AdvisorTimeout: cfg.AITimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
