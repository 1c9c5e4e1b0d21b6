package domain

import (
	"context"
	"errors"
)

var (
	// ErrProductNotFound is returned by repositories when no row matches.
	ErrProductNotFound = errors.New("product not found")

	// ErrDuplicateName is returned by repositories when a write violates
	// the unique index on the product name.
	ErrDuplicateName = errors.New("product name already exists")
)

// Filter selects products. Zero-valued fields do not constrain the result.
type Filter struct {
	ID        *int64
	Available *bool
	IDs       []int64
}

// ByID matches a single product by identifier.
func (f Filter) ByID(id int64) Filter {
	f.ID = &id
	return f
}

// OnlyAvailable restricts the filter to products that were not removed.
func (f Filter) OnlyAvailable() Filter {
	available := true
	f.Available = &available
	return f
}

// InIDs matches products whose identifier is in ids.
func (f Filter) InIDs(ids []int64) Filter {
	f.IDs = ids
	return f
}

// Matches evaluates the filter against an in-process product.
func (f Filter) Matches(p *Product) bool {
	if f.ID != nil && p.ID != *f.ID {
		return false
	}
	if f.Available != nil && p.Available != *f.Available {
		return false
	}
	if f.IDs != nil {
		found := false
		for _, id := range f.IDs {
			if id == p.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ProductRepository defines the contract for product storage
type ProductRepository interface {
	// Create assigns ID and timestamps to product and stores it.
	Create(ctx context.Context, product *Product) error
	Count(ctx context.Context, filter Filter) (int64, error)
	// FindMany returns matching products ordered by ID ascending.
	FindMany(ctx context.Context, filter Filter, skip, take int) ([]*Product, error)
	FindFirst(ctx context.Context, filter Filter) (*Product, error)
	// Update applies patch to the first product matching filter and returns
	// the stored result. ErrProductNotFound when nothing matches.
	Update(ctx context.Context, filter Filter, patch ProductPatch) (*Product, error)
}
