package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/af-corp/shipsense/internal/assistant"
	"github.com/af-corp/shipsense/internal/gemini"
	"github.com/af-corp/shipsense/internal/httputil"
	"github.com/af-corp/shipsense/internal/telemetry"
	"github.com/af-corp/shipsense/internal/types"
)

// maxBodyBytes caps request bodies; prompts are short text.
const maxBodyBytes = 1 << 20

// Request outcomes recorded in metrics and logs.
const (
	outcomeOK         = "ok"
	outcomeBadRequest = "bad_request"
	outcomeBlocked    = "blocked"
	outcomeUpstream   = "upstream_error"
	outcomeCircuit    = "circuit_open"
	outcomeCanceled   = "canceled"
)

// Assistant is the operation set served over HTTP.
type Assistant interface {
	Model(requested string) string
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatReply, error)
	GeneratePlaybook(ctx context.Context, req types.GenerateRequest) (types.PlaybookReply, error)
	GenerateConfig(ctx context.Context, req types.GenerateRequest) (types.ConfigReply, error)
	GenerateDiagram(ctx context.Context, req types.GenerateRequest) (types.DiagramReply, error)
}

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	svc     Assistant
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func NewHandler(svc Assistant, metrics *telemetry.Metrics, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, metrics: metrics, logger: logger}
}

// Chat handles POST /chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := w.Header().Get("X-Request-ID")

	var req types.ChatRequest
	if !h.decode(w, r, reqID, assistant.EndpointChat, &req) {
		return
	}
	model := h.svc.Model(req.Model)

	reply, err := h.svc.Chat(r.Context(), req)
	if err != nil {
		h.fail(w, r, reqID, assistant.EndpointChat, model, start, err)
		return
	}

	h.record(reqID, assistant.EndpointChat, model, outcomeOK, start, reply.Tokens)
	httputil.WriteJSON(w, reqID, http.StatusOK, reply)
}

// AnsibleGenerate handles POST /ansible-generate
func (h *Handler) AnsibleGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := w.Header().Get("X-Request-ID")

	var req types.GenerateRequest
	if !h.decode(w, r, reqID, assistant.EndpointAnsible, &req) {
		return
	}
	model := h.svc.Model(req.Model)

	reply, err := h.svc.GeneratePlaybook(r.Context(), req)
	if err != nil {
		h.fail(w, r, reqID, assistant.EndpointAnsible, model, start, err)
		return
	}

	h.record(reqID, assistant.EndpointAnsible, model, outcomeOK, start, reply.Tokens)
	httputil.WriteJSON(w, reqID, http.StatusOK, reply)
}

// TerraformGenerate handles POST /terraform-generate
func (h *Handler) TerraformGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := w.Header().Get("X-Request-ID")

	var req types.GenerateRequest
	if !h.decode(w, r, reqID, assistant.EndpointTerraform, &req) {
		return
	}
	model := h.svc.Model(req.Model)

	reply, err := h.svc.GenerateConfig(r.Context(), req)
	if err != nil {
		h.fail(w, r, reqID, assistant.EndpointTerraform, model, start, err)
		return
	}

	h.record(reqID, assistant.EndpointTerraform, model, outcomeOK, start, reply.Tokens)
	httputil.WriteJSON(w, reqID, http.StatusOK, reply)
}

// Diagram handles POST /diagram
func (h *Handler) Diagram(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := w.Header().Get("X-Request-ID")

	var req types.GenerateRequest
	if !h.decode(w, r, reqID, assistant.EndpointDiagram, &req) {
		return
	}
	model := h.svc.Model(req.Model)

	reply, err := h.svc.GenerateDiagram(r.Context(), req)
	if err != nil {
		h.fail(w, r, reqID, assistant.EndpointDiagram, model, start, err)
		return
	}

	h.record(reqID, assistant.EndpointDiagram, model, outcomeOK, start, types.TokenCounts{})
	httputil.WriteJSON(w, reqID, http.StatusOK, reply)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, reqID, endpoint string, dest any) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		h.record(reqID, endpoint, "", outcomeBadRequest, time.Now(), types.TokenCounts{})
		httputil.WriteBadRequestError(w, reqID, "Failed to read request body")
		return false
	}
	if len(body) > maxBodyBytes {
		h.record(reqID, endpoint, "", outcomeBadRequest, time.Now(), types.TokenCounts{})
		httputil.WriteBadRequestError(w, reqID, "Request body too large")
		return false
	}
	if err := json.Unmarshal(body, dest); err != nil {
		h.record(reqID, endpoint, "", outcomeBadRequest, time.Now(), types.TokenCounts{})
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// fail maps a service error to its HTTP reply.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, reqID, endpoint, model string, start time.Time, err error) {
	var blocked *assistant.BlockedError
	switch {
	case errors.As(err, &blocked):
		h.record(reqID, endpoint, model, outcomeBlocked, start, types.TokenCounts{})
		httputil.WriteContentBlockedError(w, reqID, blocked.Message)

	case errors.Is(err, gemini.ErrCircuitOpen):
		h.logger.Warn("generation unavailable", "request_id", reqID, "endpoint", endpoint, "error", err)
		h.record(reqID, endpoint, model, outcomeCircuit, start, types.TokenCounts{})
		httputil.WriteServiceUnavailableError(w, reqID, "Generation service is temporarily unavailable, retry shortly")

	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// The client went away; nobody reads the reply.
		h.logger.Info("request canceled by client", "request_id", reqID, "endpoint", endpoint)
		h.record(reqID, endpoint, model, outcomeCanceled, start, types.TokenCounts{})

	default:
		h.logger.Error("generation failed",
			"request_id", reqID,
			"endpoint", endpoint,
			"model", model,
			"error", err,
		)
		h.record(reqID, endpoint, model, outcomeUpstream, start, types.TokenCounts{})
		httputil.WriteUpstreamError(w, reqID, "Generation failed: "+err.Error())
	}
}

func (h *Handler) record(reqID, endpoint, model, outcome string, start time.Time, tokens types.TokenCounts) {
	durationMs := float64(time.Since(start).Milliseconds())
	h.logger.Info("request completed",
		"request_id", reqID,
		"endpoint", endpoint,
		"model", model,
		"outcome", outcome,
		"duration_ms", durationMs,
		"input_tokens", tokens.Input,
		"output_tokens", tokens.Output,
	)
	if h.metrics != nil {
		h.metrics.RecordRequest(telemetry.RequestLabels{
			Endpoint:     endpoint,
			Model:        model,
			Outcome:      outcome,
			DurationMs:   durationMs,
			InputTokens:  tokens.Input,
			OutputTokens: tokens.Output,
		})
	}
}
