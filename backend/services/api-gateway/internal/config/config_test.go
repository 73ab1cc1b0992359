package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_GATEWAY_JWT_SECRET", "s3cret")
	t.Setenv("PARKING_SERVICE_URL", "http://parking:8081")
	t.Setenv("API_GATEWAY_HTTP_TIMEOUT", "2s")
	t.Setenv("API_GATEWAY_HTTP_PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Services.ParkingURL != "http://parking:8081" {
		t.Fatalf("unexpected parking url %q", cfg.Services.ParkingURL)
	}
	if cfg.HTTPTimeout() != 2*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.HTTPTimeout())
	}
	if cfg.HTTPAddress() != ":9000" {
		t.Fatalf("unexpected address %q", cfg.HTTPAddress())
	}
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without jwt secret")
	}
	cfg.JWT.Secret = "x"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
