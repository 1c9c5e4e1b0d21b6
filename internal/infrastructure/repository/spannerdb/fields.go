package spannerdb

import (
	"time"

	"cloud.google.com/go/spanner"
	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// Field constants for the products table.
const (
	TableName = "products"

	ColID          = "id"
	ColName        = "name"
	ColDescription = "description"
	ColPrice       = "price"
	ColAvailable   = "available"
	ColCreatedAt   = "created_at"
	ColUpdatedAt   = "updated_at"
)

// Columns lists every column in read order.
var Columns = []string{
	ColID, ColName, ColDescription, ColPrice, ColAvailable, ColCreatedAt, ColUpdatedAt,
}

// SchemaDDL creates the products table and its indexes.
var SchemaDDL = []string{
	`CREATE TABLE products (
		id INT64 NOT NULL,
		name STRING(255) NOT NULL,
		description STRING(MAX),
		price FLOAT64 NOT NULL,
		available BOOL NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
	) PRIMARY KEY (id)`,
	`CREATE UNIQUE INDEX products_name_key ON products(name)`,
	`CREATE INDEX products_available_idx ON products(available)`,
}

type productRow struct {
	ID          int64              `spanner:"id"`
	Name        string             `spanner:"name"`
	Description spanner.NullString `spanner:"description"`
	Price       float64            `spanner:"price"`
	Available   bool               `spanner:"available"`
	CreatedAt   time.Time          `spanner:"created_at"`
	UpdatedAt   time.Time          `spanner:"updated_at"`
}

func (r *productRow) toDomain() *domain.Product {
	return &domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description.StringVal,
		Price:       r.Price,
		Available:   r.Available,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func insertMutation(p *domain.Product) *spanner.Mutation {
	return spanner.Insert(TableName, Columns, []interface{}{
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Available,
		p.CreatedAt,
		p.UpdatedAt,
	})
}

// updateMutation writes only the patched columns plus updated_at.
func updateMutation(id int64, patch domain.ProductPatch, updatedAt time.Time) *spanner.Mutation {
	cols := []string{ColID}
	vals := []interface{}{id}

	if patch.Name != nil {
		cols = append(cols, ColName)
		vals = append(vals, *patch.Name)
	}
	if patch.Description != nil {
		cols = append(cols, ColDescription)
		vals = append(vals, *patch.Description)
	}
	if patch.Price != nil {
		cols = append(cols, ColPrice)
		vals = append(vals, *patch.Price)
	}
	if patch.Available != nil {
		cols = append(cols, ColAvailable)
		vals = append(vals, *patch.Available)
	}

	cols = append(cols, ColUpdatedAt)
	vals = append(vals, updatedAt)

	return spanner.Update(TableName, cols, vals)
}
