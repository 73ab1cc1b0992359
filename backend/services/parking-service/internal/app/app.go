package app

import (
	"context"
	"database/sql"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "smartparking/backend/libs/db"
	libredis "smartparking/backend/libs/redis"
	"smartparking/backend/services/parking-service/internal/clients"
	"smartparking/backend/services/parking-service/internal/config"
	"smartparking/backend/services/parking-service/internal/db"
	httpserver "smartparking/backend/services/parking-service/internal/http"
	"smartparking/backend/services/parking-service/internal/http/handlers"
	"smartparking/backend/services/parking-service/internal/metrics"
	"smartparking/backend/services/parking-service/internal/notify"
	"smartparking/backend/services/parking-service/internal/parking"
	redisstore "smartparking/backend/services/parking-service/internal/redis"
	"smartparking/backend/services/parking-service/internal/repository"
	"smartparking/backend/services/parking-service/internal/service"
	"smartparking/backend/services/parking-service/internal/ws"
)

// App wires parking-service dependencies.
type App struct {
	cfg         *config.Config
	db          *sql.DB
	redisClient *redis.Client
	publisher   *notify.AMQPPublisher
	service     *service.ParkingService
	dispatcher  *notify.Dispatcher
	sweeper     *service.Sweeper
	wsManager   *ws.Manager
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	hours, err := cfg.OperatingHours()
	if err != nil {
		return nil, err
	}
	pricing, err := cfg.PricingTable()
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.NewPostgres(context.Background(), cfg.Database.DSN, libdb.PoolOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(context.Background(), libredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	clock := parking.SystemClock{}
	engine := parking.NewEngine(pricing, hours, cfg.Parking.ReminderLead)
	reminders := redisstore.NewReminderQueue(redisClient)
	publisher := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger)

	sessionRepo := repository.NewSessionRepository(sqlDB)
	parkingService := service.NewParkingService(service.Dependencies{
		Engine:   engine,
		Sessions: sessionRepo,
		Vehicles: repository.NewVehicleRepository(sqlDB),
		Cache:    redisstore.NewStore(redisClient, cfg.CacheTTL()),
		Notifier: reminders,
		Payments: clients.NewPaymentClient(cfg.Payment.URL, cfg.Payment.APIKey, cfg.Payment.Currency, cfg.Payment.Timeout, logger),
		Clock:    clock,
		Currency: cfg.Payment.Currency,
		Logger:   logger,
	})

	return &App{
		cfg:         cfg,
		db:          sqlDB,
		redisClient: redisClient,
		publisher:   publisher,
		service:     parkingService,
		dispatcher:  notify.NewDispatcher(reminders, publisher, sessionRepo, clock, cfg.Parking.DispatchInterval, logger),
		sweeper:     service.NewSweeper(parkingService, cfg.Parking.SweepInterval, logger),
		wsManager:   ws.NewManager(),
		logger:      logger,
	}, nil
}

// Run starts the background workers and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.dispatcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		a.sweeper.Run(ctx)
	}()

	countdown := ws.NewServer(ctx, a.wsManager, a.service, a.cfg.WebSocket.Tick, a.cfg.WebSocket.WriteTimeout, a.logger)
	quotes := handlers.NewQuotesHandler(a.service, a.logger)
	parkingHandler := handlers.NewParkingHandler(a.service, a.logger)

	checks := map[string]handlers.HealthCheck{
		"postgres": a.db.PingContext,
		"redis": func(ctx context.Context) error {
			return a.redisClient.Ping(ctx).Err()
		},
	}

	routes := httpserver.Routes{
		Health:        handlers.NewHealthHandler(checks),
		Metrics:       metrics.Handler(),
		Zones:         handlers.NewZonesHandler(a.service),
		QuoteStart:    quotes.HandleStart,
		QuoteExtend:   quotes.HandleExtend,
		Vehicles:      handlers.NewVehiclesHandler(a.service, a.logger),
		ParkingStart:  parkingHandler.HandleStart,
		ParkingExtend: parkingHandler.HandleExtend,
		ParkingActive: parkingHandler.HandleActive,
		History:       parkingHandler.HandleHistory,
		Countdown:     countdown.HandleWS,
		Cancel:        parkingHandler.HandleCancel,
	}

	server := httpserver.NewServer(a.cfg.HTTPAddress(), httpserver.NewRouter(routes), a.logger)
	err := server.Run(ctx)

	cancel()
	wg.Wait()
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq publisher", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
