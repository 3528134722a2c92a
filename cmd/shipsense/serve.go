package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/af-corp/shipsense/internal/auth"
	"github.com/af-corp/shipsense/internal/config"
	"github.com/af-corp/shipsense/internal/gateway"
	"github.com/af-corp/shipsense/internal/ratelimit"
	"github.com/af-corp/shipsense/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configDir)
		},
	}
	cmd.Flags().StringVar(&configDir, "config", "configs", "path to configuration directory")
	return cmd
}

func serve(ctx context.Context, configDir string) error {
	bootLogger := newLogger(os.Stdout, config.TelemetryConfig{LogLevel: "info"})

	loader, err := loadConfig(configDir, bootLogger)
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		return err
	}
	cfg := loader.Config()

	logger := newLogger(os.Stdout, cfg.Telemetry)
	slog.SetDefault(logger)

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	c, err := buildComponents(loader, metrics, logger)
	if err != nil {
		logger.Error("failed to build components", "error", err)
		return err
	}
	loader.OnReload(func() {
		if !c.policy.Enabled() {
			return
		}
		if err := c.policy.Load(); err != nil {
			logger.Error("failed to reload policies", "error", err)
		}
	})

	rdb := connectRedis(ctx, cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	handler := gateway.NewHandler(c.service, metrics, logger)
	router := gateway.NewRouter(gateway.RouterOptions{
		Version:     version,
		Handler:     handler,
		Gatherer:    reg,
		Breaker:     c.client.Breaker(),
		Auth:        auth.Middleware(auth.NewStaticKeyStore(loader.Auth), logger),
		AuthEnabled: func() bool { return loader.Auth().Enabled },
		RateLimit:   ratelimit.Middleware(ratelimit.NewLimiter(rdb, logger), loader.RateLimit, metrics, logger),
		Slack:       newSlackBridge(loader, c.service, logger),
		Logger:      logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("shipsense starting",
			"addr", addr,
			"version", version,
			"model", cfg.Gemini.DefaultModel,
			"auth", cfg.Auth.Enabled,
			"rate_limit", cfg.RateLimit.Enabled,
			"slack", cfg.Slack.Enabled,
		)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return err
	}
	logger.Info("shipsense stopped")
	return nil
}
