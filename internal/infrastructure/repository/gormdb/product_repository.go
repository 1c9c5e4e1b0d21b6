package gormdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ProductRepository is a gorm implementation of domain.ProductRepository
type ProductRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
	logger *slog.Logger
}

// NewProductRepository creates a new SQL product repository
func NewProductRepository(db *gorm.DB, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		tracer: tracer,
		logger: logger,
	}
}

// Create inserts a product; the database assigns the ID and timestamps
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	span.SetAttributes(attribute.String("product.name", product.Name))

	m := fromDomain(product)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert product")
		return err
	}

	*product = *m.toDomain()

	r.logger.DebugContext(ctx, "Product inserted",
		slog.Int64("product_id", product.ID),
	)

	span.SetAttributes(attribute.Int64("product.id", product.ID))
	span.SetStatus(codes.Ok, "Product inserted")
	return nil
}

// Count returns the number of matching rows
func (r *ProductRepository) Count(ctx context.Context, filter domain.Filter) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Count")
	defer span.End()

	var n int64
	err := scope(r.db.WithContext(ctx).Model(&productModel{}), filter).Count(&n).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to count products")
		return 0, fmt.Errorf("count products: %w", err)
	}

	span.SetAttributes(attribute.Int64("product.count", n))
	return n, nil
}

// FindMany returns a window of matching rows ordered by ID
func (r *ProductRepository) FindMany(ctx context.Context, filter domain.Filter, skip, take int) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindMany")
	defer span.End()

	span.SetAttributes(attribute.Int("query.skip", skip), attribute.Int("query.take", take))

	var rows []productModel
	err := scope(r.db.WithContext(ctx), filter).
		Order("id ASC").
		Offset(skip).
		Limit(take).
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to find products")
		return nil, fmt.Errorf("find products: %w", err)
	}

	products := make([]*domain.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].toDomain()
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}

// FindFirst returns the lowest-ID matching row
func (r *ProductRepository) FindFirst(ctx context.Context, filter domain.Filter) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindFirst")
	defer span.End()

	var m productModel
	if err := scope(r.db.WithContext(ctx), filter).Order("id ASC").First(&m).Error; err != nil {
		err = translateError(err)
		if !errors.Is(err, domain.ErrProductNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "Product not found")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("product.id", m.ID))
	span.SetStatus(codes.Ok, "Product found")
	return m.toDomain(), nil
}

// Update applies patch to the first row matching filter inside a transaction.
// The UPDATE repeats the filter, so a row that stopped matching is not written.
func (r *ProductRepository) Update(ctx context.Context, filter domain.Filter, patch domain.ProductPatch) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	var out productModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current productModel
		if err := scope(tx, filter).Order("id ASC").First(&current).Error; err != nil {
			return err
		}

		cols := patchColumns(patch)
		if len(cols) > 0 {
			res := scope(tx.Model(&productModel{}).Where("id = ?", current.ID), filter).Updates(cols)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		return tx.First(&out, current.ID).Error
	})
	if err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update product")
		return nil, err
	}

	r.logger.DebugContext(ctx, "Product updated",
		slog.Int64("product_id", out.ID),
	)

	span.SetAttributes(attribute.Int64("product.id", out.ID))
	span.SetStatus(codes.Ok, "Product updated")
	return out.toDomain(), nil
}

func scope(tx *gorm.DB, f domain.Filter) *gorm.DB {
	if f.ID != nil {
		tx = tx.Where("id = ?", *f.ID)
	}
	if f.Available != nil {
		tx = tx.Where("available = ?", *f.Available)
	}
	if f.IDs != nil {
		tx = tx.Where("id IN ?", f.IDs)
	}
	return tx
}

func translateError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrProductNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateName, err)
	}
	return err
}

// isUniqueViolation covers drivers without an error translator.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
