package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/af-corp/shipsense/internal/config"
	"github.com/go-resty/resty/v2"
)

// ErrCircuitOpen is returned without calling the API while the breaker is open.
var ErrCircuitOpen = errors.New("gemini: circuit breaker open")

// APIError is a non-2xx reply from the generation API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini returned %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini returned %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the failure is on the upstream side.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client calls the generativelanguage REST API.
type Client struct {
	http         *resty.Client
	breaker      *Breaker
	defaultModel string
	logger       *slog.Logger
}

// NewClient builds a client from config. The API key is sent on every request.
func NewClient(cfg config.GeminiConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 50
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = maxIdle
	transport.MaxIdleConnsPerHost = maxIdle

	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetTransport(transport).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", cfg.APIKey)

	return &Client{
		http:         hc,
		breaker:      NewBreaker(cfg.CircuitBreaker.FailureThreshold, cfg.CircuitBreaker.RecoveryInterval),
		defaultModel: cfg.DefaultModel,
		logger:       logger,
	}
}

// Breaker exposes the client's circuit breaker for health reporting.
func (c *Client) Breaker() *Breaker { return c.breaker }

// GenerateContent sends one generation request and classifies the reply.
func (c *Client) GenerateContent(ctx context.Context, p Params) (Response, error) {
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}
	model := c.model(p.Model)

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetBody(p.request()).
		Post("/models/{model}:generateContent")
	if err != nil {
		// A caller giving up is not an upstream failure.
		if ctx.Err() == nil {
			c.breaker.RecordFailure()
		} else {
			c.breaker.ReleaseTrial()
		}
		return nil, fmt.Errorf("generate content with %s: %w", model, err)
	}

	if resp.IsError() {
		apiErr := parseAPIError(resp)
		if apiErr.Retryable() {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return nil, apiErr
	}
	c.breaker.RecordSuccess()

	c.logger.Debug("generation response received",
		"model", model,
		"status", resp.StatusCode(),
		"body_bytes", len(resp.Body()),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	classified, err := Classify(resp.Body())
	if err != nil {
		// The call itself succeeded; the body is reported to the user as text.
		c.logger.Warn("undecodable generation response",
			"model", model,
			"content_type", resp.Header().Get("Content-Type"),
			"error", err,
		)
		return MalformedResponse{Err: err}, nil
	}
	return classified, nil
}

// CountTokens returns the token count of text for model. It does not consult
// the breaker: counting is best-effort and its failures never open the circuit.
func (c *Client) CountTokens(ctx context.Context, model, text string) (int, error) {
	model = c.model(model)
	var out countTokensResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetBody(countTokensRequest{Contents: []Content{{Role: "user", Parts: []Part{{Text: text}}}}}).
		SetResult(&out).
		Post("/models/{model}:countTokens")
	if err != nil {
		return 0, fmt.Errorf("count tokens with %s: %w", model, err)
	}
	if resp.IsError() {
		return 0, parseAPIError(resp)
	}
	return out.TotalTokens, nil
}

func (c *Client) model(m string) string {
	if m == "" {
		m = c.defaultModel
	}
	return strings.TrimPrefix(m, "models/")
}

func parseAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error.Message != "" {
		apiErr.Message = body.Error.Message
		apiErr.Status = body.Error.Status
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(resp.Body()))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}
