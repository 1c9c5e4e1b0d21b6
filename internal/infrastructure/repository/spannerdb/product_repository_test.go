package spannerdb

import (
	"context"
	"errors"
	"testing"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestFailSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, missing := tracer.Start(context.Background(), "ProductRepository.FindFirst")
	failSpan(missing, domain.ErrProductNotFound, "Product not found")
	missing.End()

	_, broken := tracer.Start(context.Background(), "ProductRepository.Count")
	failSpan(broken, errors.New("session pool exhausted"), "Failed to count products")
	broken.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, otelcodes.Error, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())

	assert.Equal(t, otelcodes.Error, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	err := errors.New("boom")
	assert.Equal(t, err, translateError(err))
}
