package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/af-corp/shipsense/internal/assistant"
	"github.com/af-corp/shipsense/internal/config"
	"github.com/af-corp/shipsense/internal/filter"
	"github.com/af-corp/shipsense/internal/filter/injection"
	"github.com/af-corp/shipsense/internal/filter/policy"
	"github.com/af-corp/shipsense/internal/filter/secrets"
	"github.com/af-corp/shipsense/internal/filter/topic"
	"github.com/af-corp/shipsense/internal/gemini"
	"github.com/af-corp/shipsense/internal/slack"
	"github.com/af-corp/shipsense/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

// newLogger builds the process logger from telemetry settings.
func newLogger(w io.Writer, cfg config.TelemetryConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// loadConfig loads the config directory, exiting through the returned error
// when the Gemini credential is missing.
func loadConfig(dir string, logger *slog.Logger) (*config.Loader, error) {
	loader := config.NewLoader(dir, logger)
	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// components are the pieces shared by serve and ask.
type components struct {
	client  *gemini.Client
	policy  *policy.Evaluator
	service *assistant.Service
}

// buildComponents wires the Gemini client, the filter chain and the service.
// The chain order is topic, secrets, injection, policy: off-topic prompts are
// refused before any blocking scanner sees them.
func buildComponents(loader *config.Loader, metrics *telemetry.Metrics, logger *slog.Logger) (*components, error) {
	cfg := loader.Config()
	client := gemini.NewClient(cfg.Gemini, logger)

	evaluator := policy.NewEvaluator(loader.Policy, logger)
	if evaluator.Enabled() {
		if err := evaluator.Load(); err != nil {
			return nil, fmt.Errorf("load policies: %w", err)
		}
	}

	chain := filter.NewChain(
		topic.NewFilter(loader.Topic),
		secrets.NewScanner(loader.Secrets),
		injection.NewScanner(loader.Injection),
		evaluator,
	)

	svc := assistant.NewService(client, chain, loader.Endpoints, cfg.Gemini.DefaultModel, metrics, logger)
	return &components{client: client, policy: evaluator, service: svc}, nil
}

// connectRedis returns a pinged client, or nil when Redis is not configured
// or unreachable. The rate limiter fails open on a nil client, so an enabled
// rate_limit section without a working Redis is logged loudly.
func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	var addrs []string
	for _, a := range cfg.Redis.Addresses {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		if cfg.RateLimit.Enabled {
			logger.Warn("rate limiting is enabled but no redis address is configured; requests will not be limited",
				"hint", "set REDIS_ADDR or redis.addresses")
		}
		return nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable; requests will not be limited",
			"addresses", addrs,
			"rate_limit_enabled", cfg.RateLimit.Enabled,
			"error", err,
		)
		client.Close()
		return nil
	}
	logger.Info("redis connected", "addresses", addrs)
	return client
}

// newSlackBridge returns the /slack/events handler, or nil when the bridge is
// disabled. Slack prompts go through the same service and filter chain as
// /chat; the topic check runs first so off-topic mentions get the Slack reply.
func newSlackBridge(loader *config.Loader, svc slack.Answerer, logger *slog.Logger) http.Handler {
	cfg := loader.Slack()
	if !cfg.Enabled {
		return nil
	}
	return slack.NewBridge(slack.BridgeOptions{
		Client:        slack.NewClient(cfg, logger),
		Answerer:      svc,
		Allowed:       func(text string) bool { return topic.Allowed(text, loader.Topic().Keywords) },
		SigningSecret: func() string { return loader.Slack().SigningSecret },
		AnswerTimeout: cfg.AnswerTimeout,
		Logger:        logger,
	})
}
