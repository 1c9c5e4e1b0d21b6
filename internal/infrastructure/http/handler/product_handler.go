package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/response"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the product endpoints on r
func (h *ProductHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateProduct)
	r.Get("/", h.ListProducts)
	r.Post("/validate", h.ValidateProducts)
	r.Get("/{id}", h.GetProduct)
	r.Patch("/{id}", h.UpdateProduct)
	r.Delete("/{id}", h.RemoveProduct)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, product)
}

// ListProducts handles GET /products?page=&limit=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, ok := positiveQueryInt(r, "page", defaultPage)
	if !ok {
		response.BadRequest(w, "page must be a positive integer")
		return
	}
	limit, ok := positiveQueryInt(r, "limit", defaultLimit)
	if !ok {
		response.BadRequest(w, "limit must be a positive integer")
		return
	}

	products, err := h.service.ListProducts(r.Context(), dto.PaginationRequest{Page: page, Limit: limit})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, products)
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// UpdateProduct handles PATCH /products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// RemoveProduct handles DELETE /products/{id}
func (h *ProductHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.service.RemoveProduct(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// ValidateProducts handles POST /products/validate
func (h *ProductHandler) ValidateProducts(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateProductsRequest
	if !h.decode(w, r, &req) {
		return
	}

	products, err := h.service.ValidateProducts(r.Context(), req.IDs)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.BadRequest(w, "invalid request body")
		return false
	}
	return true
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "id must be an integer")
		return 0, false
	}
	return id, true
}

func positiveQueryInt(r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
