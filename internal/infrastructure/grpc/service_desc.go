package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified RPC service name
const ServiceName = "catalog.v1.ProductService"

// ProductServiceServer is the server API for catalog.v1.ProductService.
// Payloads are google.protobuf.Struct with the same field names as the
// HTTP JSON bodies.
type ProductServiceServer interface {
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindAllProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindOneProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterProductServiceServer registers srv on s
func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServiceServer) {
	s.RegisterService(&productServiceDesc, srv)
}

// FullMethod returns the wire path of a ProductService method
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type unaryCall func(ProductServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ProductServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ProductServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var productServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateProduct", ProductServiceServer.CreateProduct),
		unaryHandler("FindAllProducts", ProductServiceServer.FindAllProducts),
		unaryHandler("FindOneProduct", ProductServiceServer.FindOneProduct),
		unaryHandler("UpdateProduct", ProductServiceServer.UpdateProduct),
		unaryHandler("DeleteProduct", ProductServiceServer.DeleteProduct),
		unaryHandler("ValidateProducts", ProductServiceServer.ValidateProducts),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/product_service.proto",
}
