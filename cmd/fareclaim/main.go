// Command fareclaim serves the commuter expense API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "fareclaim/internal/adapter/http"
	"fareclaim/internal/app"
	"fareclaim/internal/backend"
	"fareclaim/internal/config"
	applog "fareclaim/internal/log"

	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Hour
)

func main() {
	cfg := config.Load()

	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logCfg := applog.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.LogFormat
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", applog.FieldError, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	stores, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close() }()

	authSvc := app.NewAuthService(stores.Users, stores.Sessions, app.WithSessionTTL(cfg.SessionTTL))
	fareSvc := app.NewFareRuleService(stores.Fares)
	passSvc := app.NewCommuterPassService(stores.Passes)
	expenseSvc := app.NewExpenseService(stores.Expenses, app.NewFareCalculator(stores.Fares))

	if cfg.SeedFareRules != "" {
		if err := seedFareRules(applog.NewContext(ctx, logger), fareSvc, cfg.SeedFareRules); err != nil {
			return err
		}
	}

	opts := []adapthttp.Option{
		adapthttp.WithLogger(logger),
		adapthttp.WithCORSOrigins(cfg.CORSOrigins),
		adapthttp.WithForwardAuth(cfg.TrustForwardAuth),
	}
	if cfg.OIDCEnabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			return err
		}
		opts = append(opts, adapthttp.WithOIDC(oidcCfg))
	}

	handler := adapthttp.New(adapthttp.Services{
		Auth:     authSvc,
		Fares:    fareSvc,
		Passes:   passSvc,
		Expenses: expenseSvc,
	}, opts...).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting fareclaim server",
			applog.FieldOperation, applog.OpStartup,
			"addr", cfg.Addr,
			applog.FieldBackend, stores.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		sweepSessions(gctx, authSvc, logger)
		return nil
	})
	return g.Wait()
}

func seedFareRules(ctx context.Context, svc *app.FareRuleService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fare rule seed: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if _, err := svc.ImportCSV(ctx, f); err != nil {
		return fmt.Errorf("seed fare rules from %s: %w", path, err)
	}
	return nil
}

// sweepSessions deletes expired sessions until ctx is done.
func sweepSessions(ctx context.Context, auth *app.AuthService, logger *applog.Logger) {
	logger = logger.WithComponent(applog.ComponentAuth)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.SweepExpiredSessions(ctx); err != nil {
				logger.Warn("session sweep failed", applog.FieldError, err)
			}
		}
	}
}
