package app

import (
	"context"

	"go.uber.org/zap"

	"smartparking/backend/services/api-gateway/internal/clients"
	"smartparking/backend/services/api-gateway/internal/config"
	httpserver "smartparking/backend/services/api-gateway/internal/http"
	"smartparking/backend/services/api-gateway/internal/http/handlers"
	"smartparking/backend/services/api-gateway/internal/http/middleware"
)

// App wires API gateway dependencies.
type App struct {
	server *httpserver.Server
	logger *zap.Logger
}

// New constructs application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	httpClient := clients.NewDefaultHTTPClient(cfg.HTTPTimeout())
	parkingClient := clients.NewParkingClient(cfg.Services.ParkingURL, httpClient)

	countdown, err := handlers.NewCountdownProxy(parkingClient.BaseURL(), logger)
	if err != nil {
		return nil, err
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		ParkingHandlers: handlers.NewParkingHandlers(parkingClient, logger),
		Countdown:       countdown,
		HealthHandler:   handlers.NewHealthHandler(),
	}, middleware.AuthMiddleware(cfg.JWT.Secret))

	server := httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)

	return &App{
		server: server,
		logger: logger,
	}, nil
}

// Run starts serving HTTP traffic.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources (none yet).
func (a *App) Close() {}
