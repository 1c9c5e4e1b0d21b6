package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	GRPC     GRPCConfig
	Database DatabaseConfig
	OTLP     OTLPConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	DurationMetric  bool
	ShutdownTimeout time.Duration
}

type GRPCConfig struct {
	Addr string
}

// DatabaseConfig selects the product store.
// Driver is one of memory, sqlite, postgres or spanner.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	AutoMigrate     bool
	SpannerDatabase string
}

type OTLPConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			DurationMetric:  getEnvBool("HTTP_DURATION_MS_METRIC", false),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		GRPC: GRPCConfig{
			Addr: getEnv("GRPC_ADDR", ":50051"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "memory"),
			DSN:             getEnv("DB_DSN", "file:products.db?cache=shared"),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
			SpannerDatabase: getEnv("SPANNER_DATABASE", "projects/test-project/instances/test-instance/databases/product-catalog"),
		},
		OTLP: OTLPConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "product-catalog-api"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
