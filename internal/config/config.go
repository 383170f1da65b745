package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            string
	Mode            string
	Capacity        int
	OTelServiceName string
	OTelEndpoint    string
	Environment     string
}

func Load() *Config {
	return &Config{
		Port:            envOr("APP_PORT", "8080"),
		Mode:            envOr("APP_MODE", "cli"),
		Capacity:        envOrInt("LOT_CAPACITY", 300),
		OTelServiceName: envOr("OTEL_SERVICE_NAME", "parking-fees-service"),
		OTelEndpoint:    envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		Environment:     envOr("APP_ENVIRONMENT", "development"),
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// envOrInt falls back on unparsable and non-positive values.
func envOrInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
