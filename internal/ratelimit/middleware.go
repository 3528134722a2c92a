package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/af-corp/shipsense/internal/auth"
	"github.com/af-corp/shipsense/internal/config"
	"github.com/af-corp/shipsense/internal/httputil"
	"github.com/af-corp/shipsense/internal/telemetry"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
	headerRetryAfter         = "Retry-After"
)

// Middleware returns chi middleware that limits requests per API key, or per
// client IP when the request is unauthenticated. Run it after RealIP.
func Middleware(limiter *Limiter, cfg func() config.RateLimitConfig, metrics *telemetry.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rl := cfg()
			if !rl.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			reqID := w.Header().Get("X-Request-ID")
			key := clientKey(r)

			// Check errors already fail open inside the limiter.
			result, _ := limiter.Check(r.Context(), key, rl.RequestsPerWindow, rl.Window)

			w.Header().Set(headerRateLimitLimit, strconv.FormatInt(rl.RequestsPerWindow, 10))
			w.Header().Set(headerRateLimitRemaining, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(headerRateLimitReset, strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				logger.Warn("rate limit exceeded",
					"request_id", reqID,
					"client", key,
					"limit", rl.RequestsPerWindow,
					"window", rl.Window.String(),
				)
				if metrics != nil {
					metrics.RecordRateLimitHit()
				}
				retrySecs := int(math.Ceil(result.RetryAfter.Seconds()))
				w.Header().Set(headerRetryAfter, strconv.Itoa(retrySecs))
				httputil.WriteRateLimitError(w, reqID,
					fmt.Sprintf("Rate limit exceeded: %d requests per %s. Retry after %s",
						rl.RequestsPerWindow, rl.Window, result.ResetAt.UTC().Format(time.RFC3339)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if info, ok := auth.AuthFromContext(r.Context()); ok {
		return "key:" + info.KeyID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
