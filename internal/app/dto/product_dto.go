package dto

import (
	"time"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Available   *bool   `json:"available,omitempty"`
}

// UpdateProductRequest is a partial update. ID is accepted for symmetry with
// the RPC payload but is never written.
type UpdateProductRequest struct {
	ID          *int64   `json:"id,omitempty"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Available   *bool    `json:"available,omitempty"`
}

// ToPatch drops the ID and returns the fields to write.
func (r *UpdateProductRequest) ToPatch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Available:   r.Available,
	}
}

// PaginationRequest selects a page of available products
type PaginationRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ValidateProductsRequest carries the identifiers to check
type ValidateProductsRequest struct {
	IDs []int64 `json:"ids"`
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PageMetaResponse describes the returned page
type PageMetaResponse struct {
	Page     int   `json:"page"`
	Total    int64 `json:"total"`
	LastPage int64 `json:"lastPage"`
}

// PaginatedProductsResponse is the result of listing products
type PaginatedProductsResponse struct {
	Data []*ProductResponse `json:"data"`
	Meta PageMetaResponse   `json:"meta"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Available:   p.Available,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

// ToPaginatedResponse combines a page of products with its metadata
func ToPaginatedResponse(products []*domain.Product, meta domain.PageMeta) *PaginatedProductsResponse {
	return &PaginatedProductsResponse{
		Data: ToProductResponseList(products),
		Meta: PageMetaResponse{
			Page:     meta.Page,
			Total:    meta.Total,
			LastPage: meta.LastPage,
		},
	}
}
