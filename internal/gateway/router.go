package gateway

import (
	"log/slog"
	"net/http"

	"github.com/af-corp/shipsense/internal/gemini"
	"github.com/af-corp/shipsense/internal/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions wires the HTTP surface.
type RouterOptions struct {
	Version string
	Handler *Handler
	// Gatherer backs GET /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
	// Breaker is reported by GET /healthz. May be nil.
	Breaker *gemini.Breaker

	// Auth and RateLimit wrap the API routes. AuthEnabled is consulted on
	// every request; a nil middleware is skipped.
	Auth        func(http.Handler) http.Handler
	AuthEnabled func() bool
	RateLimit   func(http.Handler) http.Handler

	// Slack serves POST /slack/events. It authenticates requests by their
	// Slack signature, so it sits outside the API key group. Nil disables it.
	Slack http.Handler

	Logger *slog.Logger
}

// NewRouter builds the chi router serving the assistant.
func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	r.Use(AccessLog(opts.Logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, "", http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "shipsense",
			"version": opts.Version,
		})
	})
	r.Get("/healthz", healthHandler(opts.Breaker))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.Slack != nil {
		r.Method(http.MethodPost, "/slack/events", opts.Slack)
	}

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			enabled := opts.AuthEnabled
			if enabled == nil {
				enabled = func() bool { return true }
			}
			r.Use(when(enabled, opts.Auth))
		}
		// Runs after auth so limits are per API key when one is present.
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit)
		}
		r.Post("/chat", opts.Handler.Chat)
		r.Post("/ansible-generate", opts.Handler.AnsibleGenerate)
		r.Post("/terraform-generate", opts.Handler.TerraformGenerate)
		r.Post("/diagram", opts.Handler.Diagram)
	})

	return r
}

// healthHandler reports liveness. An open breaker degrades the status but
// the process is still alive, so the code stays 200.
func healthHandler(breaker *gemini.Breaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		state := gemini.StateClosed.String()
		if breaker != nil {
			s := breaker.State()
			state = s.String()
			if s == gemini.StateOpen {
				status = "degraded"
			}
		}
		httputil.WriteJSON(w, "", http.StatusOK, map[string]string{
			"status": status,
			"gemini": state,
		})
	}
}
