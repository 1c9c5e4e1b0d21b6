package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	// maxExactInteger is the largest integer a Struct number holds exactly
	maxExactInteger = 1 << 53
)

// integerFields are payload keys that must carry whole numbers
var integerFields = []string{"id", "ids", "page", "limit"}

// ProductHandler serves ProductService over gRPC
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

var _ ProductServiceServer = (*ProductHandler)(nil)

// NewProductHandler creates a new gRPC product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

type idRequest struct {
	ID *int64 `json:"id"`
}

type paginationRequest struct {
	Page  *int `json:"page"`
	Limit *int `json:"limit"`
}

type productsReply struct {
	Data []*dto.ProductResponse `json:"data"`
}

// CreateProduct expects {name, description, price, available?}
func (h *ProductHandler) CreateProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req dto.CreateProductRequest
	if err := h.decode(ctx, in, &req); err != nil {
		return nil, err
	}

	product, err := h.service.CreateProduct(ctx, &req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(product)
}

// FindAllProducts expects {page?, limit?}
func (h *ProductHandler) FindAllProducts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req paginationRequest
	if err := h.decode(ctx, in, &req); err != nil {
		return nil, err
	}

	page, limit := defaultPage, defaultLimit
	if req.Page != nil {
		page = *req.Page
	}
	if req.Limit != nil {
		limit = *req.Limit
	}
	if page < 1 {
		return nil, invalidArgument("page must be a positive integer")
	}
	if limit < 1 {
		return nil, invalidArgument("limit must be a positive integer")
	}

	products, err := h.service.ListProducts(ctx, dto.PaginationRequest{Page: page, Limit: limit})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(products)
}

// FindOneProduct expects {id}
func (h *ProductHandler) FindOneProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := h.requireID(ctx, in)
	if err != nil {
		return nil, err
	}

	product, err := h.service.GetProductByID(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(product)
}

// UpdateProduct expects {id, name?, description?, price?, available?}
func (h *ProductHandler) UpdateProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req dto.UpdateProductRequest
	if err := h.decode(ctx, in, &req); err != nil {
		return nil, err
	}
	if req.ID == nil {
		return nil, invalidArgument("id is required")
	}

	product, err := h.service.UpdateProduct(ctx, *req.ID, &req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(product)
}

// DeleteProduct expects {id}
func (h *ProductHandler) DeleteProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := h.requireID(ctx, in)
	if err != nil {
		return nil, err
	}

	product, err := h.service.RemoveProduct(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(product)
}

// ValidateProducts expects {ids: [...]} and replies {data: [...]}
func (h *ProductHandler) ValidateProducts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req dto.ValidateProductsRequest
	if err := h.decode(ctx, in, &req); err != nil {
		return nil, err
	}

	products, err := h.service.ValidateProducts(ctx, req.IDs)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(productsReply{Data: products})
}

func (h *ProductHandler) requireID(ctx context.Context, in *structpb.Struct) (int64, error) {
	var req idRequest
	if err := h.decode(ctx, in, &req); err != nil {
		return 0, err
	}
	if req.ID == nil {
		return 0, invalidArgument("id is required")
	}
	return *req.ID, nil
}

// decode round-trips the Struct through JSON so the DTO tags apply
func (h *ProductHandler) decode(ctx context.Context, in *structpb.Struct, v any) error {
	if err := checkIntegers(in); err != nil {
		h.logger.WarnContext(ctx, "Rejected request payload",
			slog.String("error", err.Error()),
		)
		return invalidArgument(err.Error())
	}

	raw, err := json.Marshal(in.AsMap())
	if err == nil {
		err = json.Unmarshal(raw, v)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to decode request payload",
			slog.String("error", err.Error()),
		)
		return invalidArgument("invalid request payload")
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, toStatus(err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, toStatus(err)
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, toStatus(err)
	}
	return out, nil
}

// checkIntegers rejects fractional or inexact numbers in integer fields
// before they can be rounded into a different id.
func checkIntegers(in *structpb.Struct) error {
	for _, key := range integerFields {
		value, ok := in.GetFields()[key]
		if !ok {
			continue
		}

		if list := value.GetListValue(); list != nil {
			for _, item := range list.GetValues() {
				if err := checkInteger(key, item); err != nil {
					return err
				}
			}
			continue
		}
		if err := checkInteger(key, value); err != nil {
			return err
		}
	}
	return nil
}

func checkInteger(key string, value *structpb.Value) error {
	n, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil
	}
	f := n.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
		return fmt.Errorf("%s must be an integer between -2^53 and 2^53", key)
	}
	return nil
}
