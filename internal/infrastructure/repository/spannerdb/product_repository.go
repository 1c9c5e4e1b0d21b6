package spannerdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/spanner"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/pkg/clock"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
)

// ProductRepository is the Cloud Spanner implementation of domain.ProductRepository.
// IDs are allocated as MAX(id)+1 inside the inserting read-write transaction.
type ProductRepository struct {
	client *spanner.Client
	clock  clock.Clock
	tracer trace.Tracer
	logger *slog.Logger
}

// NewProductRepository creates a new Spanner product repository
func NewProductRepository(client *spanner.Client, clk clock.Clock, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		client: client,
		clock:  clk,
		tracer: tracer,
		logger: logger,
	}
}

// Create allocates an ID and inserts product.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	span.SetAttributes(attribute.String("product.name", product.Name))

	var stored domain.Product

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, tx *spanner.ReadWriteTransaction) error {
		iter := tx.Query(ctx, spanner.Statement{
			SQL: fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", ColID, TableName),
		})
		defer iter.Stop()

		row, err := iter.Next()
		if err != nil {
			return fmt.Errorf("failed to allocate product id: %w", err)
		}
		var next int64
		if err := row.Columns(&next); err != nil {
			return fmt.Errorf("failed to parse product id: %w", err)
		}

		now := r.clock.Now()
		stored = *product
		stored.ID = next
		stored.CreatedAt = now
		stored.UpdatedAt = now

		return tx.BufferWrite([]*spanner.Mutation{insertMutation(&stored)})
	})
	if err != nil {
		err = translateError(err)
		failSpan(span, err, "Failed to insert product")
		return err
	}

	*product = stored

	r.logger.DebugContext(ctx, "Product inserted",
		slog.Int64("product_id", product.ID),
	)

	span.SetAttributes(attribute.Int64("product.id", product.ID))
	span.SetStatus(otelcodes.Ok, "Product inserted")
	return nil
}

// Count returns the number of matching rows.
func (r *ProductRepository) Count(ctx context.Context, filter domain.Filter) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Count")
	defer span.End()

	where, params := whereClause(filter)
	stmt := spanner.Statement{
		SQL:    fmt.Sprintf("SELECT COUNT(*) FROM %s%s", TableName, where),
		Params: params,
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		err = fmt.Errorf("failed to count products: %w", err)
		failSpan(span, err, "Failed to count products")
		return 0, err
	}

	var n int64
	if err := row.Columns(&n); err != nil {
		err = fmt.Errorf("failed to parse count: %w", err)
		failSpan(span, err, "Failed to count products")
		return 0, err
	}

	span.SetAttributes(attribute.Int64("product.count", n))
	return n, nil
}

// FindMany returns a window of matching rows ordered by ID.
func (r *ProductRepository) FindMany(ctx context.Context, filter domain.Filter, skip, take int) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindMany")
	defer span.End()

	span.SetAttributes(attribute.Int("query.skip", skip), attribute.Int("query.take", take))

	if skip < 0 {
		skip = 0
	}
	if take < 0 {
		take = 0
	}

	where, params := whereClause(filter)
	params["take"] = int64(take)
	params["skip"] = int64(skip)

	stmt := spanner.Statement{
		SQL: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT @take OFFSET @skip",
			strings.Join(Columns, ", "), TableName, where, ColID),
		Params: params,
	}

	products, err := readProducts(r.client.Single().Query(ctx, stmt))
	if err != nil {
		failSpan(span, err, "Failed to find products")
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}

// FindFirst returns the lowest-ID matching row.
func (r *ProductRepository) FindFirst(ctx context.Context, filter domain.Filter) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindFirst")
	defer span.End()

	product, err := findFirst(ctx, r.client.Single(), filter)
	if err != nil {
		failSpan(span, err, "Product not found")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("product.id", product.ID))
	span.SetStatus(otelcodes.Ok, "Product found")
	return product, nil
}

// Update applies patch to the first row matching filter. The read and the
// write share one read-write transaction.
func (r *ProductRepository) Update(ctx context.Context, filter domain.Filter, patch domain.ProductPatch) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	var updated *domain.Product

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, tx *spanner.ReadWriteTransaction) error {
		current, err := findFirst(ctx, tx, filter)
		if err != nil {
			return err
		}

		if patch.IsEmpty() {
			updated = current
			return nil
		}

		now := r.clock.Now()
		patch.Apply(current)
		current.UpdatedAt = now
		updated = current

		return tx.BufferWrite([]*spanner.Mutation{updateMutation(current.ID, patch, now)})
	})
	if err != nil {
		err = translateError(err)
		failSpan(span, err, "Failed to update product")
		return nil, err
	}

	r.logger.DebugContext(ctx, "Product updated",
		slog.Int64("product_id", updated.ID),
	)

	span.SetAttributes(attribute.Int64("product.id", updated.ID))
	span.SetStatus(otelcodes.Ok, "Product updated")
	return updated, nil
}

// failSpan marks span as failed; a missing row is an expected outcome and is
// not recorded as an exception.
func failSpan(span trace.Span, err error, msg string) {
	if !errors.Is(err, domain.ErrProductNotFound) {
		span.RecordError(err)
	}
	span.SetStatus(otelcodes.Error, msg)
}

type queryer interface {
	Query(ctx context.Context, statement spanner.Statement) *spanner.RowIterator
}

func findFirst(ctx context.Context, q queryer, filter domain.Filter) (*domain.Product, error) {
	where, params := whereClause(filter)
	stmt := spanner.Statement{
		SQL: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT 1",
			strings.Join(Columns, ", "), TableName, where, ColID),
		Params: params,
	}

	products, err := readProducts(q.Query(ctx, stmt))
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return products[0], nil
}

func readProducts(iter *spanner.RowIterator) ([]*domain.Product, error) {
	defer iter.Stop()

	products := make([]*domain.Product, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read products: %w", err)
		}

		var data productRow
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse product: %w", err)
		}
		products = append(products, data.toDomain())
	}
	return products, nil
}

func whereClause(f domain.Filter) (string, map[string]interface{}) {
	conds := make([]string, 0, 3)
	params := make(map[string]interface{})

	if f.ID != nil {
		conds = append(conds, ColID+" = @id")
		params["id"] = *f.ID
	}
	if f.Available != nil {
		conds = append(conds, ColAvailable+" = @available")
		params["available"] = *f.Available
	}
	if f.IDs != nil {
		conds = append(conds, ColID+" IN UNNEST(@ids)")
		params["ids"] = f.IDs
	}

	if len(conds) == 0 {
		return "", params
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if spanner.ErrCode(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: %v", domain.ErrDuplicateName, err)
	}
	return err
}
