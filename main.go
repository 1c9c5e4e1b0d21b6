package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/spanner"
	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/grpc"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/gormdb"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/spannerdb"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/telemetry"
	"github.com/mrops-br/product-catalog-api/internal/pkg/clock"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry
	telem := telemetry.NewNoOpTelemetry(&cfg.OTLP)
	if cfg.OTLP.Enabled {
		var err error
		telem, err = telemetry.NewTelemetry(ctx, &cfg.OTLP)
		if err != nil {
			log.Fatalf("Failed to initialize telemetry: %v", err)
		}
	}

	// Ensure telemetry is shutdown on exit
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer(telemetry.InstrumentationName)
	meter := telem.MeterProvider.Meter(telemetry.InstrumentationName)
	logger := telem.Logger

	logger.Info("Starting Product Catalog API",
		slog.String("db.driver", cfg.Database.Driver),
	)

	// Initialize repository (dependency injection)
	repo, closeStore, err := openStore(ctx, &cfg.Database, tracer, logger)
	if err != nil {
		logger.Error("Failed to open product store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close product store", slog.String("error", err.Error()))
		}
	}()

	productService := service.NewProductService(repo, tracer, meter, logger)

	httpServer := http.NewServer(&cfg.Server, handler.NewProductHandler(productService, logger), logger, telem)
	grpcServer := grpc.NewServer(&cfg.GRPC, grpc.NewProductHandler(productService, logger), logger, telem)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Error("gRPC server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down servers...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
	}
	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("Servers stopped")
}

// openStore builds the product repository selected by cfg.Driver and
// returns a function that releases it
func openStore(ctx context.Context, cfg *config.DatabaseConfig, tracer trace.Tracer, logger *slog.Logger) (domain.ProductRepository, func() error, error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewProductRepository(clock.NewRealClock(), tracer, logger), func() error { return nil }, nil

	case gormdb.DriverSQLite, gormdb.DriverPostgres:
		db, err := gormdb.Open(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return gormdb.NewProductRepository(db, tracer, logger), func() error { return gormdb.Close(db) }, nil

	case "spanner":
		if cfg.AutoMigrate {
			path, err := spannerdb.ParseDatabasePath(cfg.SpannerDatabase)
			if err != nil {
				return nil, nil, err
			}
			if _, err := spannerdb.EnsureDatabase(ctx, path); err != nil {
				return nil, nil, fmt.Errorf("failed to prepare spanner database: %w", err)
			}
		}
		client, err := spanner.NewClient(ctx, cfg.SpannerDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create spanner client: %w", err)
		}
		return spannerdb.NewProductRepository(client, clock.NewRealClock(), tracer, logger), func() error {
			client.Close()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
