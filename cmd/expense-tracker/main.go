package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "expense-tracker:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := cli.LoadEnvFile(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend configuration: %w", err)
	}
	res, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	// Cleanup closes the event publisher too.
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	st := store.New()
	svc := services.NewExpenseService(res.Collection, st, res.Publisher)
	session := store.NewSession(store.Profile{Name: cfg.DefaultUserName, Email: cfg.DefaultUserEmail}, st)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		Service:            svc,
		Session:            session,
		Logger:             logger,
		Theme:              cfg.UITheme,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ViewCacheSize:      cfg.ViewCacheSize,
		ViewCacheTTL:       cfg.ViewCacheTTL,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting expense tracker", "port", cfg.Port, "backend", cfg.DataBackend, "theme", cfg.UITheme)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// The UI polls while the initial load runs; a failure is shown as an
	// empty list and does not stop the server.
	g.Go(func() error {
		_ = svc.Load(gctx)
		return nil
	})

	g.Go(func() error { return srv.CacheManager().Run(gctx, time.Minute) })
	g.Go(func() error { return srv.RateLimiter().Run(gctx) })

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "timeout", cli.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
