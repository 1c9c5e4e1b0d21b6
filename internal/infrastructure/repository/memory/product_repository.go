package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/pkg/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository.
// Names are unique across all stored products, as with the SQL unique index.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64
	clock    clock.Clock
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(clk clock.Clock, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[int64]*domain.Product),
		nextID:   1,
		clock:    clk,
		tracer:   tracer,
		logger:   logger,
	}
}

// Create stores a new product and assigns its ID
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	span.SetAttributes(attribute.String("product.name", product.Name))

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(product.Name, 0) {
		span.RecordError(domain.ErrDuplicateName)
		span.SetStatus(codes.Error, "Duplicate product name")
		return domain.ErrDuplicateName
	}

	now := r.clock.Now()
	product.ID = r.nextID
	product.CreatedAt = now
	product.UpdatedAt = now
	r.nextID++

	stored := *product
	r.products[product.ID] = &stored

	r.logger.DebugContext(ctx, "Product created in repository",
		slog.Int64("product_id", product.ID),
		slog.String("product_name", product.Name),
	)

	span.SetAttributes(attribute.Int64("product.id", product.ID))
	span.SetStatus(codes.Ok, "Product created successfully")
	return nil
}

// Count returns the number of products matching filter
func (r *ProductRepository) Count(ctx context.Context, filter domain.Filter) (int64, error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.Count")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if filter.Matches(p) {
			n++
		}
	}

	span.SetAttributes(attribute.Int64("product.count", n))
	return n, nil
}

// FindMany returns a window of matching products ordered by ID
func (r *ProductRepository) FindMany(ctx context.Context, filter domain.Filter, skip, take int) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindMany")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.sorted(filter)

	if skip < 0 {
		skip = 0
	}
	if skip > len(matched) {
		skip = len(matched)
	}
	matched = matched[skip:]
	if take >= 0 && take < len(matched) {
		matched = matched[:take]
	}

	span.SetAttributes(attribute.Int("product.count", len(matched)))
	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(matched)),
	)

	return matched, nil
}

// FindFirst returns the lowest-ID product matching filter
func (r *ProductRepository) FindFirst(ctx context.Context, filter domain.Filter) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindFirst")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.sorted(filter)
	if len(matched) == 0 {
		span.SetStatus(codes.Error, "Product not found")
		r.logger.DebugContext(ctx, "Product not found in repository")
		return nil, domain.ErrProductNotFound
	}

	span.SetAttributes(attribute.Int64("product.id", matched[0].ID))
	span.SetStatus(codes.Ok, "Product found")
	return matched[0], nil
}

// Update applies patch to the first product matching filter
func (r *ProductRepository) Update(ctx context.Context, filter domain.Filter, patch domain.ProductPatch) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.sorted(filter)
	if len(matched) == 0 {
		span.SetStatus(codes.Error, "Product not found")
		return nil, domain.ErrProductNotFound
	}

	current := r.products[matched[0].ID]
	if patch.Name != nil && r.nameTaken(*patch.Name, current.ID) {
		span.RecordError(domain.ErrDuplicateName)
		span.SetStatus(codes.Error, "Duplicate product name")
		return nil, domain.ErrDuplicateName
	}

	updated := *current
	patch.Apply(&updated)
	updated.UpdatedAt = r.clock.Now()
	r.products[updated.ID] = &updated

	r.logger.DebugContext(ctx, "Product updated in repository",
		slog.Int64("product_id", updated.ID),
	)

	span.SetAttributes(attribute.Int64("product.id", updated.ID))
	span.SetStatus(codes.Ok, "Product updated")
	out := updated
	return &out, nil
}

// sorted returns copies of matching products ordered by ID. Callers hold the lock.
func (r *ProductRepository) sorted(filter domain.Filter) []*domain.Product {
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Matches(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *ProductRepository) nameTaken(name string, exceptID int64) bool {
	for _, p := range r.products {
		if p.Name == name && p.ID != exceptID {
			return true
		}
	}
	return false
}
