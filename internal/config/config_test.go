package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "APP_MODE", "LOT_CAPACITY", "OTEL_SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT", "APP_ENVIRONMENT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "cli", cfg.Mode)
	assert.Equal(t, 300, cfg.Capacity)
	assert.Equal(t, "parking-fees-service", cfg.OTelServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.OTelEndpoint)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_MODE", "server")
	t.Setenv("LOT_CAPACITY", "12")
	t.Setenv("OTEL_SERVICE_NAME", "lot-7")
	t.Setenv("APP_ENVIRONMENT", "production")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, 12, cfg.Capacity)
	assert.Equal(t, "lot-7", cfg.OTelServiceName)
	assert.Equal(t, "production", cfg.Environment)
}

func TestInvalidCapacityFallsBackToDefault(t *testing.T) {
	for _, v := range []string{"abc", "0", "-5"} {
		t.Setenv("LOT_CAPACITY", v)
		assert.Equal(t, 300, Load().Capacity, "LOT_CAPACITY=%q", v)
	}
}
