// Package assistant runs the request pipeline shared by every endpoint:
// screen the prompt, compose, generate with bounded retry, normalize,
// validate and count tokens.
package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/af-corp/shipsense/internal/config"
	"github.com/af-corp/shipsense/internal/filter"
	"github.com/af-corp/shipsense/internal/gemini"
	"github.com/af-corp/shipsense/internal/retry"
	"github.com/af-corp/shipsense/internal/telemetry"
)

// Endpoint names, used for filter input, metrics and logs.
const (
	EndpointChat      = "/chat"
	EndpointAnsible   = "/ansible-generate"
	EndpointTerraform = "/terraform-generate"
	EndpointDiagram   = "/diagram"
)

// Generator is the generation API as seen by the service.
type Generator interface {
	GenerateContent(ctx context.Context, p gemini.Params) (gemini.Response, error)
	CountTokens(ctx context.Context, model, text string) (int, error)
}

// BlockedError is returned when a blocking filter stopped the prompt.
type BlockedError struct {
	Filter  string
	Message string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked by %s filter: %s", e.Filter, e.Message)
}

// Service implements the chat and generation operations.
type Service struct {
	gen          Generator
	chain        *filter.Chain
	endpoints    func() config.EndpointsConfig
	defaultModel string
	tokens       *gemini.Accountant
	metrics      *telemetry.Metrics
	logger       *slog.Logger
}

// NewService wires the pipeline. metrics may be nil.
func NewService(gen Generator, chain *filter.Chain, endpoints func() config.EndpointsConfig, defaultModel string, metrics *telemetry.Metrics, logger *slog.Logger) *Service {
	if chain == nil {
		chain = filter.NewChain()
	}
	return &Service{
		gen:          gen,
		chain:        chain,
		endpoints:    endpoints,
		defaultModel: defaultModel,
		tokens:       gemini.NewAccountant(gen, logger),
		metrics:      metrics,
		logger:       logger,
	}
}

// Model resolves the model a request will use.
func (s *Service) Model(requested string) string {
	if requested != "" {
		return requested
	}
	return s.defaultModel
}

// screen runs the filter chain. It returns the refusal text when the prompt
// is off-topic, or a *BlockedError when a blocking filter stopped it.
func (s *Service) screen(ctx context.Context, endpoint, model, text string) (string, bool, error) {
	results, stopped := s.chain.Run(ctx, filter.Input{Endpoint: endpoint, Model: model, Text: text})
	for _, r := range results {
		if r.Action == filter.ActionFlag {
			s.logger.Warn("prompt flagged",
				"request_id", telemetry.RequestID(ctx),
				"endpoint", endpoint,
				"filter", r.FilterName,
				"score", r.Score,
			)
			s.recordFilter(r)
		}
	}
	if stopped == nil {
		return "", false, nil
	}
	s.recordFilter(*stopped)

	if stopped.Action == filter.ActionRefuse {
		s.logger.Info("prompt refused",
			"request_id", telemetry.RequestID(ctx),
			"endpoint", endpoint,
			"filter", stopped.FilterName,
		)
		return stopped.Message, true, nil
	}
	s.logger.Warn("prompt blocked",
		"request_id", telemetry.RequestID(ctx),
		"endpoint", endpoint,
		"filter", stopped.FilterName,
		"detections", stopped.Detections,
		"score", stopped.Score,
	)
	return "", false, &BlockedError{Filter: stopped.FilterName, Message: stopped.Message}
}

// generate calls the model until it returns text or the endpoint's attempt
// budget is spent.
func (s *Service) generate(ctx context.Context, endpoint string, cfg config.GenerationConfig, p gemini.Params) retry.Outcome[string] {
	return retry.Do(ctx, retry.Policy{MaxAttempts: cfg.MaxAttempts},
		func(ctx context.Context, attempt int) (string, error) {
			resp, err := s.gen.GenerateContent(ctx, p)
			if err != nil {
				s.recordAttempt(endpoint, "error")
				s.logger.Warn("generation attempt failed",
					"request_id", telemetry.RequestID(ctx),
					"endpoint", endpoint,
					"model", p.Model,
					"attempt", attempt,
					"error", err,
				)
				return "", err
			}
			text := gemini.Normalize(resp)
			if text == "" {
				s.recordAttempt(endpoint, "empty")
				s.logger.Warn("generation returned no text",
					"request_id", telemetry.RequestID(ctx),
					"endpoint", endpoint,
					"model", p.Model,
					"attempt", attempt,
				)
			} else {
				s.recordAttempt(endpoint, "text")
			}
			return text, nil
		},
		retry.NonEmpty,
	)
}

func (s *Service) recordFilter(r filter.Result) {
	if s.metrics != nil {
		s.metrics.RecordFilterAction(r.FilterName, string(r.Action))
	}
}

func (s *Service) recordAttempt(endpoint, result string) {
	if s.metrics != nil {
		s.metrics.RecordAttempt(endpoint, result)
	}
}

func (s *Service) recordFallback(endpoint string) {
	if s.metrics != nil {
		s.metrics.RecordFallback(endpoint)
	}
}

func orDefault[T any](v *T, def T) T {
	if v != nil {
		return *v
	}
	return def
}
