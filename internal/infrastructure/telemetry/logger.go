package telemetry

import (
	"context"
	"io"
	"log/slog"

	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"go.opentelemetry.io/otel/trace"
)

// Context keys for request-scoped log attributes
type contextKey string

const (
	httpRouteKey contextKey = "http.route"
	rpcMethodKey contextKey = "rpc.method"
)

// WithHTTPRoute adds the HTTP route to the context
func WithHTTPRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, httpRouteKey, route)
}

// HTTPRouteFromContext extracts the HTTP route from context
func HTTPRouteFromContext(ctx context.Context) string {
	if route, ok := ctx.Value(httpRouteKey).(string); ok {
		return route
	}
	return ""
}

// WithRPCMethod adds the full gRPC method name to the context
func WithRPCMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, rpcMethodKey, method)
}

// RPCMethodFromContext extracts the gRPC method from context
func RPCMethodFromContext(ctx context.Context) string {
	if method, ok := ctx.Value(rpcMethodKey).(string); ok {
		return method
	}
	return ""
}

// traceContextHandler is a slog handler that injects trace context and
// transport attributes carried by the context
type traceContextHandler struct {
	handler slog.Handler
}

func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds trace_id, span_id, http.route and rpc.method to log records
func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}

	if route := HTTPRouteFromContext(ctx); route != "" {
		r.AddAttrs(slog.String("http.route", route))
	}
	if method := RPCMethodFromContext(ctx); method != "" {
		r.AddAttrs(slog.String("rpc.method", method))
	}

	return h.handler.Handle(ctx, r)
}

func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{
		handler: h.handler.WithAttrs(attrs),
	}
}

func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{
		handler: h.handler.WithGroup(name),
	}
}

// NewLogger builds a JSON logger with trace context injection
func NewLogger(cfg *config.OTLPConfig, w io.Writer, level slog.Level) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(&traceContextHandler{handler: jsonHandler}).With(
		slog.String("service.name", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)
}
