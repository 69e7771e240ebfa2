package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cancha/internal/api"
	"cancha/internal/config"
	"cancha/internal/database"
	"cancha/internal/domain"
	"cancha/internal/events"
	"cancha/internal/google"
	"cancha/internal/logging"
	"cancha/internal/metrics"
	"cancha/internal/pricing"
	"cancha/internal/repository"
	"cancha/internal/schedule"
	"cancha/internal/service"
	"cancha/internal/supabasedb"
	"cancha/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	startBackups(ctx, cfg, logger)
	startMetrics(ctx, cfg, logger)

	holidays := loadHolidays(cfg, logger)
	prices := pricing.NewCalculator(cfg.Pricing, holidays)

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	svc := buildServices(ctx, cfg, store, redisClient, prices, logger)
	if err := svc.Auth.EnsureAdmin(ctx); err != nil {
		logger.Warn().Err(err).Msg("admin account not provisioned")
	}

	httpServer := api.NewHTTPServer(cfg.API, svc, logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API.GRPC, store, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
		go grpcServer.WatchStore(ctx, 30*time.Second)
	}

	return startServers(ctx, grpcServer, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, baseLogger, closer, nil
}

func openStore(cfg *config.Config, logger *zerolog.Logger) (domain.Repository, error) {
	storeLogger := logging.Component(logger, "store")
	switch cfg.Database.Driver {
	case config.DriverSupabase:
		store, err := supabasedb.Open(cfg.Supabase, storeLogger)
		if err != nil {
			logger.Error().Err(err).Msg("init supabase store")
			return nil, err
		}
		return store, nil
	default:
		db, err := database.NewDB(cfg.Database.Path, storeLogger)
		if err != nil {
			logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
			return nil, err
		}
		return db, nil
	}
}

func startBackups(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if cfg.Database.Driver != config.DriverSQLite {
		return
	}
	backups := database.NewBackupService(cfg.Database.Path, cfg.Backup, logging.Component(logger, "backup"))
	go backups.Start(ctx)
}

func loadHolidays(cfg *config.Config, logger *zerolog.Logger) []pricing.Holiday {
	if cfg.Schedule.HolidaysPath == "" {
		return nil
	}
	holidays, err := pricing.LoadHolidays(cfg.Schedule.HolidaysPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Schedule.HolidaysPath).Msg("holidays not loaded, pricing ignores them")
		return nil
	}
	logger.Info().Int("count", len(holidays)).Msg("holidays loaded")
	return holidays
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func buildServices(
	ctx context.Context,
	cfg *config.Config,
	store domain.Repository,
	redisClient *redis.Client,
	prices *pricing.Calculator,
	logger *zerolog.Logger,
) api.Services {
	clock := schedule.NewClock(cfg.Schedule.Timezone, nil)
	resolver := schedule.NewResolver(store, cfg.Schedule.DefaultOpen, cfg.Schedule.DefaultClose, logging.Component(logger, "schedule"))

	var limiter domain.RateLimitRepository = repository.NewMemoryRateLimitRepository()
	if redisClient != nil {
		limiter = repository.NewFailoverRateLimitRepository(
			repository.NewRedisRateLimitRepository(redisClient),
			repository.NewMemoryRateLimitRepository(),
			logging.Component(logger, "ratelimit"),
		)
	}

	// Plain nil interfaces when a sink is absent; a typed nil would be called.
	var publisher domain.EventPublisher
	if bus := initEventBus(ctx, cfg, logger); bus != nil {
		publisher = bus
	}
	var sheets domain.SyncWorker
	if w := initSheetsWorker(ctx, cfg, redisClient, logger); w != nil {
		sheets = w
	}

	bookingLogger := logging.Component(logger, "bookings")
	return api.Services{
		Availability: service.NewAvailabilityService(store, resolver, clock, prices, logging.Component(logger, "availability")),
		Bookings:     service.NewBookingService(store, resolver, clock, cfg.Booking, publisher, sheets, bookingLogger),
		Schedules:    service.NewScheduleService(store, logging.Component(logger, "schedules")),
		Stats:        service.NewStatsService(store, clock, prices, cfg.Pricing.UnitPrice, logging.Component(logger, "stats")),
		Auth:         service.NewAuthService(store, limiter, cfg.Auth, logging.Component(logger, "auth")),
		Prices:       prices,
		Store:        store,
		ExportDir:    cfg.Exports.Path,
	}
}

func initEventBus(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *events.EventBus {
	if cfg.Events.AMQPURL == "" {
		return nil
	}

	bus := events.NewEventBus()
	forwarder := events.NewAMQPForwarder(cfg.Events.AMQPURL, cfg.Events.Exchange, nil, logging.Component(logger, "amqp"))
	bus.SubscribeAll(events.BookingEventTypes, forwarder.Handle)
	go forwarder.Start(ctx)

	logger.Info().Str("exchange", cfg.Events.Exchange).Msg("booking events forwarded to broker")
	return bus
}

func initSheetsWorker(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) *worker.SheetsWorker {
	if cfg.Google.CredentialsFile == "" || cfg.Google.SpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID, cfg.Google.SheetName)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}
	if err := sheetsService.WriteHeaders(ctx); err != nil {
		logger.Warn().Err(err).Msg("write sheet headers")
	}
	if err := sheetsService.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("warm up sheet row cache")
	}

	w := worker.NewSheetsWorker(sheetsService, redisClient, worker.RetryPolicy{}, logging.Component(logger, "sheets-worker"))
	go w.Start(ctx)

	logger.Info().Msg("google sheets connected")
	return w
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error().Err(runErr).Msg("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
