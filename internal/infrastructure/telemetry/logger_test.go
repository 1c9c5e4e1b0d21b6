package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLogger_InjectsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&config.OTLPConfig{ServiceName: "svc", Environment: "test"}, &buf, slog.LevelDebug)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	ctx = WithHTTPRoute(ctx, "/products/{id}")
	ctx = WithRPCMethod(ctx, "/catalog.v1.ProductService/FindOneProduct")
	logger.InfoContext(ctx, "hello")
	span.End()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "svc", record["service.name"])
	assert.Equal(t, "/products/{id}", record["http.route"])
	assert.Equal(t, "/catalog.v1.ProductService/FindOneProduct", record["rpc.method"])
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
}

func TestLogger_WithoutContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&config.OTLPConfig{ServiceName: "svc"}, &buf, slog.LevelInfo)

	logger.Debug("dropped")
	assert.Zero(t, buf.Len())

	logger.Info("kept")
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.NotContains(t, record, "trace_id")
	assert.NotContains(t, record, "http.route")
}
