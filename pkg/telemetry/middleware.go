package telemetry

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader echoes the trace id so clients can quote it in bug reports
const TraceIDHeader = "X-Trace-ID"

// Gin context keys read after the handler chain ran. They are set by the
// auth and request id middleware, which this package must not import.
const (
	userIDKey    = "user_id"
	roleKey      = "role"
	requestIDKey = "request_id"
)

// MiddlewareOption customizes TracingMiddleware
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	skip map[string]bool
}

// WithSkipPaths disables tracing for exact request paths such as probes
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		for _, p := range paths {
			cfg.skip[p] = true
		}
	}
}

// TracingMiddleware starts a server span per request, named after the
// matched route so that /classes/:id aggregates across ids.
func TracingMiddleware(serviceName string, opts ...MiddlewareOption) gin.HandlerFunc {
	cfg := &middlewareConfig{skip: map[string]bool{}}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if cfg.skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := otel.Tracer(serviceName).Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPRoute(route),
				semconv.UserAgentOriginal(c.Request.UserAgent()),
				attribute.String("http.client_ip", c.ClientIP()),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header(TraceIDHeader, sc.TraceID().String())
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		for key, attr := range map[string]attribute.Key{
			userIDKey:    "enduser.id",
			roleKey:      "enduser.role",
			requestIDKey: "http.request_id",
		} {
			if v := c.GetString(key); v != "" {
				span.SetAttributes(attr.String(v))
			}
		}

		if err := c.Errors.Last(); err != nil {
			span.RecordError(err.Err)
		}
		// Client errors are expected outcomes such as a full session
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
