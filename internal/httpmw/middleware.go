// Package httpmw is the ordered HTTP ingress middleware stack, grounded on
// the teacher's internal/control/middleware + internal/api/middleware/stack.go
// canonical-stack pattern: Recoverer, RequestID, CORS, SecurityHeaders,
// Metrics, Logging, RateLimit, generalized from xg2g's IPTV-gateway surface
// to AudioControl's HTTP API.
package httpmw

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/audiocontrol/acrd/internal/alog"
	"github.com/audiocontrol/acrd/internal/metrics"
)

// Recoverer turns a panicking handler into a 500 JSON response instead of
// crashing the process (spec.md §7: "the Pipeline must not panic on any
// adapter-produced event" — the same containment discipline applies at the
// HTTP boundary).
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				reqID := alog.RequestIDFromContext(r.Context())
				alog.WithComponentFromContext(r.Context(), "panic-recovery").Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered in HTTP handler")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success":   false,
					"requestId": reqID,
					"message":   "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestID assigns (or propagates) a request id used for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(alog.ContextWithRequestID(r.Context(), id)))
	})
}

// CORS applies a strict allow-list of origins; "*" allows any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	_, allowAll := allowed["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if _, ok := allowed[origin]; allowAll || ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			if vary := w.Header().Get("Vary"); !strings.Contains(vary, "Origin") {
				w.Header().Set("Vary", strings.TrimPrefix(vary+", Origin", ", "))
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets the handful of baseline response headers an API
// server should carry regardless of framework.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// Metrics records request duration into acrd_http_request_duration_seconds,
// labeled by the matched chi route pattern to keep cardinality bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if pattern := rc.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// Logging delegates to alog.Middleware, kept as a named slot in the stack
// so ApplyStack reads as the one canonical ordering.
func Logging(next http.Handler) http.Handler {
	return alog.Middleware()(next)
}

// RateLimit applies a global requests-per-minute budget per client IP,
// grounded on httprate's token-bucket limiter.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// StackConfig configures ApplyStack.
type StackConfig struct {
	AllowedOrigins    []string
	RateLimitPerMin   int // 0 disables rate limiting
}

// ApplyStack installs the canonical middleware ordering on r: Recoverer,
// RequestID, CORS, SecurityHeaders, Metrics, Logging, RateLimit.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(SecurityHeaders)
	r.Use(Metrics)
	r.Use(Logging)
	if cfg.RateLimitPerMin > 0 {
		r.Use(RateLimit(cfg.RateLimitPerMin))
	}
}
