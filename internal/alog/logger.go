// Package alog configures the process-wide structured logger and the HTTP
// logging middleware, grounded on the teacher's internal/log package.
package alog

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string
	Output  io.Writer
	Service string
	Version string
}

var (
	mu          sync.RWMutex
	base        zerolog.Logger
	initialized bool
)

// Configure initializes the global zerolog logger.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}

	service := cfg.Service
	if service == "" {
		service = "acrd"
	}

	base = zerolog.New(writer).With().
		Timestamp().
		Str("service", service).
		Str("version", cfg.Version).
		Logger()

	initialized = true
}

func ensureInitialized() {
	mu.RLock()
	if initialized {
		mu.RUnlock()
		return
	}
	mu.RUnlock()
	Configure(Config{})
}

// L returns the global logger.
func L() *zerolog.Logger {
	ensureInitialized()
	mu.RLock()
	defer mu.RUnlock()
	return &base
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	componentKey
)

// ContextWithRequestID attaches a request id to ctx for downstream logging.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts a previously attached request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithComponent returns a logger tagged with a component name, for call
// sites that want a persistent sub-logger (e.g. one per controller).
func WithComponent(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// WithComponentFromContext returns a component-tagged logger that also
// carries the request id from ctx, if any.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	l := L().With().Str("component", component)
	if id := RequestIDFromContext(ctx); id != "" {
		l = l.Str("requestId", id)
	}
	return l.Logger()
}
