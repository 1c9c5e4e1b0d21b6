package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	opCreate   = "create"
	opList     = "list"
	opRead     = "read"
	opUpdate   = "update"
	opRemove   = "remove"
	opValidate = "validate"
)

// ProductService handles product use cases
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	// Initialize metrics
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.name", req.Name),
		attribute.Float64("product.price", req.Price),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("name", req.Name),
		slog.Float64("price", req.Price),
	)

	product, err := domain.NewProduct(req.Name, req.Description, req.Price)
	if err != nil {
		return nil, s.fail(ctx, span, opCreate, domain.ValidationError(err.Error(), err))
	}
	if req.Available != nil {
		product.Available = *req.Available
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			return nil, s.fail(ctx, span, opCreate, domain.ConflictError("name", err))
		}
		return nil, s.fail(ctx, span, opCreate, domain.InternalError(err))
	}

	span.SetAttributes(attribute.Int64("product.id", product.ID))
	s.productCreatedCounter.Add(ctx, 1)
	s.succeed(ctx, span, opCreate, "Product created successfully",
		slog.Int64("product_id", product.ID),
	)

	return dto.ToProductResponse(product), nil
}

// ListProducts returns one page of available products ordered by ID.
// Page bounds are validated by the transports.
func (s *ProductService) ListProducts(ctx context.Context, req dto.PaginationRequest) (*dto.PaginatedProductsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	span.SetAttributes(
		attribute.Int("pagination.page", req.Page),
		attribute.Int("pagination.limit", req.Limit),
	)

	s.logger.InfoContext(ctx, "Listing products",
		slog.Int("page", req.Page),
		slog.Int("limit", req.Limit),
	)

	available := domain.Filter{}.OnlyAvailable()

	total, err := s.repo.Count(ctx, available)
	if err != nil {
		return nil, s.fail(ctx, span, opList, domain.InternalError(err))
	}

	products, err := s.repo.FindMany(ctx, available, domain.Offset(req.Page, req.Limit), req.Limit)
	if err != nil {
		return nil, s.fail(ctx, span, opList, domain.InternalError(err))
	}

	meta := domain.NewPageMeta(req.Page, req.Limit, total)

	span.SetAttributes(
		attribute.Int("product.count", len(products)),
		attribute.Int64("product.total", total),
	)
	s.succeed(ctx, span, opList, "Products listed successfully",
		slog.Int("count", len(products)),
		slog.Int64("total", total),
		slog.Int64("last_page", meta.LastPage),
	)

	return dto.ToPaginatedResponse(products, meta), nil
}

// GetProductByID retrieves an available product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	s.logger.InfoContext(ctx, "Getting product by ID",
		slog.Int64("product_id", id),
	)

	product, err := s.findOne(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, opRead, err)
	}

	s.succeed(ctx, span, opRead, "Product retrieved successfully",
		slog.Int64("product_id", id),
	)

	return dto.ToProductResponse(product), nil
}

// UpdateProduct applies a partial update to an available product.
// An id inside the payload is ignored.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	s.logger.InfoContext(ctx, "Updating product",
		slog.Int64("product_id", id),
	)

	patch := req.ToPatch()
	if err := patch.Validate(); err != nil {
		return nil, s.fail(ctx, span, opUpdate, domain.ValidationError(err.Error(), err))
	}

	current, err := s.findOne(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, opUpdate, err)
	}
	if patch.IsEmpty() {
		s.succeed(ctx, span, opUpdate, "Product update was empty",
			slog.Int64("product_id", id),
		)
		return dto.ToProductResponse(current), nil
	}

	product, err := s.mutate(ctx, id, patch)
	if err != nil {
		return nil, s.fail(ctx, span, opUpdate, err)
	}

	s.succeed(ctx, span, opUpdate, "Product updated successfully",
		slog.Int64("product_id", id),
	)

	return dto.ToProductResponse(product), nil
}

// RemoveProduct soft-deletes an available product by marking it unavailable
func (s *ProductService) RemoveProduct(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.RemoveProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	s.logger.InfoContext(ctx, "Removing product",
		slog.Int64("product_id", id),
	)

	if _, err := s.findOne(ctx, id); err != nil {
		return nil, s.fail(ctx, span, opRemove, err)
	}

	unavailable := false
	product, err := s.mutate(ctx, id, domain.ProductPatch{Available: &unavailable})
	if err != nil {
		return nil, s.fail(ctx, span, opRemove, err)
	}

	s.succeed(ctx, span, opRemove, "Product removed successfully",
		slog.Int64("product_id", id),
	)

	return dto.ToProductResponse(product), nil
}

// ValidateProducts checks that every identifier exists, available or not,
// and returns the matching products.
func (s *ProductService) ValidateProducts(ctx context.Context, ids []int64) ([]*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ValidateProducts")
	defer span.End()

	unique := domain.UniqueIDs(ids)

	span.SetAttributes(
		attribute.Int("product.requested", len(ids)),
		attribute.Int("product.unique", len(unique)),
	)

	s.logger.InfoContext(ctx, "Validating products",
		slog.Int("requested", len(ids)),
		slog.Int("unique", len(unique)),
	)

	if len(unique) == 0 {
		s.succeed(ctx, span, opValidate, "No products to validate")
		return []*dto.ProductResponse{}, nil
	}

	// No availability filter: removed products still count as existing.
	products, err := s.repo.FindMany(ctx, domain.Filter{}.InIDs(unique), 0, len(unique))
	if err != nil {
		return nil, s.fail(ctx, span, opValidate, domain.InternalError(err))
	}

	if len(products) != len(unique) {
		s.logger.DebugContext(ctx, "Products missing from store",
			slog.Any("missing_ids", missingIDs(unique, products)),
		)
		return nil, s.fail(ctx, span, opValidate, domain.ValidationError("Some products were not found", nil))
	}

	s.succeed(ctx, span, opValidate, "Products validated successfully",
		slog.Int("count", len(products)),
	)

	return dto.ToProductResponseList(products), nil
}

// findOne is the visibility guard shared by reads and writes: removed
// products are reported as not found.
func (s *ProductService) findOne(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.FindFirst(ctx, domain.Filter{}.ByID(id).OnlyAvailable())
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.NotFoundError(id)
		}
		return nil, domain.InternalError(err)
	}
	return product, nil
}

// mutate writes patch only while the product is still available.
func (s *ProductService) mutate(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	product, err := s.repo.Update(ctx, domain.Filter{}.ByID(id).OnlyAvailable(), patch)
	switch {
	case err == nil:
		return product, nil
	case errors.Is(err, domain.ErrProductNotFound):
		return nil, domain.NotFoundError(id)
	case errors.Is(err, domain.ErrDuplicateName):
		return nil, domain.ConflictError("name", err)
	default:
		return nil, domain.InternalError(err)
	}
}

func (s *ProductService) succeed(ctx context.Context, span trace.Span, operation, msg string, attrs ...any) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", "success"),
		),
	)
	s.logger.InfoContext(ctx, msg, attrs...)
	span.SetStatus(codes.Ok, msg)
}

// fail records err on the span and metrics. Internal errors are logged with
// their cause, which never reaches the caller.
func (s *ProductService) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	kind := domain.KindOf(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", kind.String()),
		),
	)

	if kind == domain.KindInternal {
		cause := err
		if unwrapped := errors.Unwrap(err); unwrapped != nil {
			cause = unwrapped
		}
		s.logger.ErrorContext(ctx, "Product operation failed",
			slog.String("operation", operation),
			slog.String("error", cause.Error()),
		)
		return err
	}

	s.logger.WarnContext(ctx, "Product operation rejected",
		slog.String("operation", operation),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	)
	return err
}

func missingIDs(ids []int64, found []*domain.Product) []int64 {
	present := make(map[int64]struct{}, len(found))
	for _, p := range found {
		present[p.ID] = struct{}{}
	}
	missing := make([]int64, 0)
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
