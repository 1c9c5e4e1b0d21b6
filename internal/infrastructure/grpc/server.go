package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDKey is the metadata key carrying the request correlation id
const RequestIDKey = "x-request-id"

// Server represents the gRPC server
type Server struct {
	config *config.GRPCConfig
	logger *slog.Logger
	srv    *grpc.Server
}

// NewServer creates a new gRPC server exposing ProductService
func NewServer(
	cfg *config.GRPCConfig,
	handler *ProductHandler,
	logger *slog.Logger,
	telem *telemetry.Telemetry,
) *Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler(
			otelgrpc.WithTracerProvider(telem.TracerProvider),
			otelgrpc.WithMeterProvider(telem.MeterProvider),
		)),
		grpc.ChainUnaryInterceptor(
			RequestContextInterceptor(),
			LoggingInterceptor(logger),
		),
	)
	RegisterProductServiceServer(srv, handler)

	return &Server{
		config: cfg,
		logger: logger,
		srv:    srv,
	}
}

// Start listens on the configured address and serves until Shutdown
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("Starting gRPC server",
		slog.String("address", lis.Addr().String()),
	)

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown drains in-flight RPCs, forcing a stop when ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down gRPC server")

	stopped := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.srv.Stop()
		return ctx.Err()
	}
}

// RequestContextInterceptor stores the RPC method in the context and
// assigns a request id when the caller did not send one
func RequestContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = telemetry.WithRPCMethod(ctx, info.FullMethod)

		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(RequestIDKey); len(values) > 0 {
				reqID = values[0]
			}
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx = withRequestID(ctx, reqID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, reqID))

		return handler(ctx, req)
	}
}

// LoggingInterceptor logs one line per RPC
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		duration := time.Since(start)
		code := status.Code(err)

		logLevel := slog.LevelInfo
		switch code {
		case codes.OK:
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelWarn
		}

		logger.Log(ctx, logLevel, "gRPC request completed",
			slog.String("rpc.grpc.status_code", code.String()),
			slog.String("request_id", requestIDFromContext(ctx)),
			slog.String("duration", duration.String()),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)

		return resp, err
	}
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
