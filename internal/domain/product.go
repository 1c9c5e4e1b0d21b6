package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidProductName  = errors.New("product name is required")
	ErrInvalidProductPrice = errors.New("product price cannot be negative")
)

// Product represents the product entity
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct creates a new available product with validation.
// ID and timestamps are assigned by the repository on Create.
func NewProduct(name, description string, price float64) (*Product, error) {
	product := &Product{
		Name:        name,
		Description: description,
		Price:       price,
		Available:   true,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}

// Validate performs business validation on the product
func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrInvalidProductName
	}
	if p.Price < 0 {
		return ErrInvalidProductPrice
	}
	return nil
}

// ProductPatch is a partial update. Nil fields are left untouched.
// There is deliberately no ID field: identifiers are never rewritten.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Available   *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Available == nil
}

// Validate checks the fields that are set.
func (p ProductPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return ErrInvalidProductName
	}
	if p.Price != nil && *p.Price < 0 {
		return ErrInvalidProductPrice
	}
	return nil
}

// Apply copies the set fields onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Available != nil {
		product.Available = *p.Available
	}
}
