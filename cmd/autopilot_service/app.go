package autopilotservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	lifecycleservice "ridesync/cmd/lifecycle_service"
	"ridesync/internal/general/config"
	"ridesync/internal/general/jwt"
	"ridesync/internal/general/logger"
	"ridesync/internal/general/postgres"
	"ridesync/internal/general/rabbitmq"
	"ridesync/internal/general/redisstore"
	autopilothandler "ridesync/internal/software/autopilot/handler"
	autopilotsvc "ridesync/internal/software/autopilot/service"
	lifecyclesvc "ridesync/internal/software/lifecycle/service"
)

// Run wires the autopilot service and blocks until ctx is cancelled. All
// status writes go through the lifecycle service as the system actor, so the
// autopilot shares its storage and messaging stack.
func Run(ctx context.Context, scanIntervalSeconds, maxConcurrent int) error {
	logger := logger.New("autopilot-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	interval := cfg.ScanInterval()
	if scanIntervalSeconds > 0 {
		interval = time.Duration(scanIntervalSeconds) * time.Second
	}

	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()
	pub := rabbitmq.NewMQPublisher(rmq)

	rds, err := redisstore.NewClient(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "redis_connection_failed", "Failed to connect to redis", err, nil)
		return err
	}
	defer rds.Close()

	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	uow := postgres.NewUnitOfWork(pool)
	rideRepo := postgres.NewRideRepo()
	rideEventRepo := postgres.NewRideEventRepo()
	deviceRegistry := redisstore.NewDeviceRegistry(rds)
	driverLocations := redisstore.NewDriverLocationRepo(rds)

	lifecycle := lifecyclesvc.NewLifecycleService(logger, uow, rideRepo, rideEventRepo, deviceRegistry, driverLocations, pub)
	svc := autopilotsvc.NewAutopilotService(logger, uow, rideRepo, lifecycle, interval, cfg.Autopilot.BatchLimit)

	// background scan loop
	go svc.Run(ctx)

	mux := http.NewServeMux()
	httpHandler := autopilothandler.NewAutopilotHTTPHandler(svc, logger, jwtManager)
	httpHandler.RegisterRoutes(mux)

	limitedHandler := lifecycleservice.WithConcurrencyLimit(maxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.AutopilotServicePort),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Autopilot Service started on port %d", cfg.Services.AutopilotServicePort),
		map[string]any{
			"port":             cfg.Services.AutopilotServicePort,
			"interval_seconds": int(interval.Seconds()),
			"max_concurrent":   maxConcurrent,
		},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Starting graceful shutdown", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.AutopilotServicePort})
			return err
		}
		return nil
	}

	return nil
}
