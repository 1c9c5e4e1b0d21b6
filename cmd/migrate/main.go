package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/gormdb"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/spannerdb"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/telemetry"
)

// migrate prepares the schema for the store selected by DB_DRIVER.
//
// Usage (spanner emulator):
//
//	SPANNER_EMULATOR_HOST=localhost:9010 \
//	DB_DRIVER=spanner \
//	SPANNER_DATABASE=projects/test-project/instances/test-instance/databases/product-catalog \
//	go run ./cmd/migrate
//
// Usage (postgres):
//
//	DB_DRIVER=postgres DB_DSN="host=localhost user=catalog dbname=catalog sslmode=disable" go run ./cmd/migrate
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	full := config.LoadConfig()
	cfg := full.Database
	logger := telemetry.NewLogger(&full.OTLP, os.Stderr, slog.LevelInfo)

	switch cfg.Driver {
	case "spanner":
		path, err := spannerdb.ParseDatabasePath(cfg.SpannerDatabase)
		if err != nil {
			log.Fatalf("parse SPANNER_DATABASE: %v", err)
		}

		if os.Getenv("SPANNER_EMULATOR_HOST") != "" {
			if err := spannerdb.EnsureInstance(ctx, path); err != nil {
				log.Fatalf("ensure instance: %v", err)
			}
		}

		created, err := spannerdb.EnsureDatabase(ctx, path)
		if err != nil {
			log.Fatalf("ensure database: %v", err)
		}
		if created {
			log.Printf("Created %s with %d DDL statements", path, len(spannerdb.SchemaDDL))
		} else {
			log.Printf("Database %s already exists", path)
		}

	case gormdb.DriverPostgres, gormdb.DriverSQLite:
		cfg.AutoMigrate = false
		db, err := gormdb.Open(&cfg, logger)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer gormdb.Close(db)

		if err := gormdb.Migrate(db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Printf("Migrated %s schema", cfg.Driver)

	default:
		log.Fatalf("DB_DRIVER %q has no schema to migrate", cfg.Driver)
	}
}
