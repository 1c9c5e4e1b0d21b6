//go:build integration

package spannerdb

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// setupSpannerTest creates a fresh database on the emulator and drops it afterwards.
func setupSpannerTest(t *testing.T) *ProductRepository {
	t.Helper()
	return setupTracedSpannerTest(t, noop.NewTracerProvider().Tracer("test"))
}

func setupTracedSpannerTest(t *testing.T, tracer trace.Tracer) *ProductRepository {
	t.Helper()

	if os.Getenv("SPANNER_EMULATOR_HOST") == "" {
		t.Skip("SPANNER_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	path := DatabasePath{
		Project:  "test-project",
		Instance: "test-instance",
		Database: "t" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20],
	}

	require.NoError(t, EnsureInstance(ctx, path))
	_, err := EnsureDatabase(ctx, path)
	require.NoError(t, err)

	client, err := spanner.NewClient(ctx, path.String())
	require.NoError(t, err, "failed to create Spanner client")

	t.Cleanup(func() {
		client.Close()
		_ = DropDatabase(context.Background(), path)
	})

	return NewProductRepository(client, clock.NewMockClock(fixedTime), tracer, slog.New(slog.DiscardHandler))
}

func TestProductRepository_CreateAndFind(t *testing.T) {
	r := setupSpannerTest(t)
	ctx := context.Background()

	a, _ := domain.NewProduct("Widget", "", 9.99)
	require.NoError(t, r.Create(ctx, a))
	b, _ := domain.NewProduct("Gadget", "small", 1)
	require.NoError(t, r.Create(ctx, b))

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, fixedTime, a.CreatedAt)

	got, err := r.FindFirst(ctx, domain.Filter{}.ByID(2).OnlyAvailable())
	require.NoError(t, err)
	assert.Equal(t, "Gadget", got.Name)
	assert.Equal(t, "small", got.Description)

	_, err = r.FindFirst(ctx, domain.Filter{}.ByID(3))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductRepository_DuplicateName(t *testing.T) {
	r := setupSpannerTest(t)
	ctx := context.Background()

	a, _ := domain.NewProduct("Widget", "", 1)
	require.NoError(t, r.Create(ctx, a))

	b, _ := domain.NewProduct("Widget", "", 2)
	err := r.Create(ctx, b)
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestProductRepository_UpdateAndWindow(t *testing.T) {
	r := setupSpannerTest(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		p, _ := domain.NewProduct(name, "", 1)
		require.NoError(t, r.Create(ctx, p))
	}

	unavailable := false
	removed, err := r.Update(ctx, domain.Filter{}.ByID(1).OnlyAvailable(), domain.ProductPatch{Available: &unavailable})
	require.NoError(t, err)
	assert.False(t, removed.Available)

	_, err = r.Update(ctx, domain.Filter{}.ByID(1).OnlyAvailable(), domain.ProductPatch{Available: &unavailable})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	n, err := r.Count(ctx, domain.Filter{}.OnlyAvailable())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err := r.FindMany(ctx, domain.Filter{}.OnlyAvailable(), 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(3), page[0].ID)

	all, err := r.FindMany(ctx, domain.Filter{}.InIDs([]int64{1, 2}), 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProductRepository_EmitsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	r := setupTracedSpannerTest(t, tp.Tracer("test"))
	ctx := context.Background()

	p, _ := domain.NewProduct("Widget", "", 1)
	require.NoError(t, r.Create(ctx, p))
	_, err := r.FindFirst(ctx, domain.Filter{}.ByID(42))
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "ProductRepository.Create")
	assert.Contains(t, names, "ProductRepository.FindFirst")
}
