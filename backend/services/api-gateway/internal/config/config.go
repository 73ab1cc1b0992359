package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "smartparking/backend/libs/config"
)

// HTTPConfig configures the public listener.
type HTTPConfig struct {
	Port string `yaml:"port" env:"API_GATEWAY_HTTP_PORT"`
}

// JWTConfig holds the identity provider's shared secret.
type JWTConfig struct {
	Secret string `yaml:"secret" env:"API_GATEWAY_JWT_SECRET"`
}

// ServicesConfig lists upstream services.
type ServicesConfig struct {
	ParkingURL string `yaml:"parkingUrl" env:"PARKING_SERVICE_URL"`
}

// HTTPClientConfig tunes upstream calls.
type HTTPClientConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"API_GATEWAY_HTTP_TIMEOUT"`
}

// Config defines gateway configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	JWT        JWTConfig        `yaml:"jwt"`
	Services   ServicesConfig   `yaml:"services"`
	HTTPClient HTTPClientConfig `yaml:"httpClient"`
}

// Default returns gateway defaults.
func Default() *Config {
	return &Config{
		HTTP:       HTTPConfig{Port: "8080"},
		Services:   ServicesConfig{ParkingURL: "http://localhost:8082"},
		HTTPClient: HTTPClientConfig{Timeout: 5 * time.Second},
	}
}

// Load configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret required")
	}
	if strings.TrimSpace(c.Services.ParkingURL) == "" {
		return errors.New("config: parking service url required")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// HTTPTimeout returns http client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPClient.Timeout <= 0 {
		return 5 * time.Second
	}
	return c.HTTPClient.Timeout
}
