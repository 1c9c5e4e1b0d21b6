package gormdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// newTestRepository opens an isolated in-memory SQLite database.
func newTestRepository(t *testing.T) *ProductRepository {
	t.Helper()
	return newLoggedTestRepository(t, slog.New(slog.DiscardHandler))
}

func newLoggedTestRepository(t *testing.T, logger *slog.Logger) *ProductRepository {
	t.Helper()

	db, err := Open(&config.DatabaseConfig{
		Driver:      DriverSQLite,
		DSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		AutoMigrate: true,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	return NewProductRepository(db, noop.NewTracerProvider().Tracer("test"), logger)
}

func insert(t *testing.T, r *ProductRepository, name string, price float64) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(name, "desc", price)
	require.NoError(t, err)
	require.NoError(t, r.Create(context.Background(), p))
	return p
}

func TestProductRepository_Create(t *testing.T) {
	r := newTestRepository(t)

	p := insert(t, r, "Widget", 9.99)

	assert.Equal(t, int64(1), p.ID)
	assert.True(t, p.Available)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := r.FindFirst(context.Background(), domain.Filter{}.ByID(p.ID))
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, 9.99, got.Price)
	assert.Equal(t, "desc", got.Description)
}

func TestProductRepository_CreateUnavailableKeepsFlag(t *testing.T) {
	r := newTestRepository(t)

	p := &domain.Product{Name: "Hidden", Price: 1, Available: false}
	require.NoError(t, r.Create(context.Background(), p))

	got, err := r.FindFirst(context.Background(), domain.Filter{}.ByID(p.ID))
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestProductRepository_CreateDuplicateName(t *testing.T) {
	r := newTestRepository(t)
	insert(t, r, "Widget", 1)

	p, _ := domain.NewProduct("Widget", "", 2)
	err := r.Create(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestProductRepository_CountAndFindMany(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		insert(t, r, fmt.Sprintf("p%d", i), float64(i))
	}

	unavailable := false
	_, err := r.Update(ctx, domain.Filter{}.ByID(2), domain.ProductPatch{Available: &unavailable})
	require.NoError(t, err)

	n, err := r.Count(ctx, domain.Filter{}.OnlyAvailable())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	page, err := r.FindMany(ctx, domain.Filter{}.OnlyAvailable(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(4), page[0].ID)
	assert.Equal(t, int64(5), page[1].ID)

	all, err := r.FindMany(ctx, domain.Filter{}.InIDs([]int64{2, 3, 42}), 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].ID)
	assert.False(t, all[0].Available)
}

func TestProductRepository_FindFirstNotFound(t *testing.T) {
	r := newTestRepository(t)

	_, err := r.FindFirst(context.Background(), domain.Filter{}.ByID(1))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductRepository_Update(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	p := insert(t, r, "Widget", 1)

	name := "Gadget"
	price := 0.0
	got, err := r.Update(ctx, domain.Filter{}.ByID(p.ID).OnlyAvailable(), domain.ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "Gadget", got.Name)
	assert.Equal(t, 0.0, got.Price)
	assert.Equal(t, "desc", got.Description)
}

func TestProductRepository_UpdateSkipsRowsThatNoLongerMatch(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	p := insert(t, r, "Widget", 1)

	unavailable := false
	_, err := r.Update(ctx, domain.Filter{}.ByID(p.ID).OnlyAvailable(), domain.ProductPatch{Available: &unavailable})
	require.NoError(t, err)

	name := "Renamed"
	_, err = r.Update(ctx, domain.Filter{}.ByID(p.ID).OnlyAvailable(), domain.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductRepository_UpdateDuplicateName(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	insert(t, r, "Widget", 1)
	b := insert(t, r, "Gadget", 2)

	name := "Widget"
	_, err := r.Update(ctx, domain.Filter{}.ByID(b.ID), domain.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

// logLevels decodes one JSON record per line and returns their levels.
func logLevels(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()

	var levels []string
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var record map[string]any
		require.NoError(t, json.Unmarshal(line, &record), "log line is not JSON: %s", line)
		levels = append(levels, record["level"].(string))
	}
	return levels
}

func TestProductRepository_NotFoundIsNotLoggedAsError(t *testing.T) {
	var buf bytes.Buffer
	r := newLoggedTestRepository(t, slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()

	p := insert(t, r, "Widget", 9.99)
	unavailable := false
	_, err := r.Update(ctx, domain.Filter{}.ByID(p.ID).OnlyAvailable(), domain.ProductPatch{Available: &unavailable})
	require.NoError(t, err)
	buf.Reset()

	_, err = r.FindFirst(ctx, domain.Filter{}.ByID(p.ID).OnlyAvailable())
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = r.Update(ctx, domain.Filter{}.ByID(p.ID).OnlyAvailable(), domain.ProductPatch{Available: &unavailable})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	for _, level := range logLevels(t, &buf) {
		assert.Equal(t, slog.LevelDebug.String(), level)
	}
}

func TestProductRepository_GormLogsAreJSON(t *testing.T) {
	var buf bytes.Buffer
	r := newLoggedTestRepository(t, slog.New(slog.NewJSONHandler(&buf, nil)))

	insert(t, r, "Widget", 1)
	buf.Reset()

	dup, err := domain.NewProduct("Widget", "", 2)
	require.NoError(t, err)
	require.ErrorIs(t, r.Create(context.Background(), dup), domain.ErrDuplicateName)

	levels := logLevels(t, &buf)
	require.NotEmpty(t, levels)
	assert.NotContains(t, buf.String(), `\u001b[`)
}
