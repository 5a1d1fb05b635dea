package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"eskan/internal/api"
	"eskan/internal/config"
	"eskan/internal/database"
	"eskan/internal/domain"
	"eskan/internal/events"
	"eskan/internal/export"
	"eskan/internal/google"
	"eskan/internal/logging"
	"eskan/internal/metrics"
	"eskan/internal/models"
	"eskan/internal/notify"
	"eskan/internal/repository"
	"eskan/internal/service"
	"eskan/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
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

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	hotels, err := loadHotels(&logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, hotels, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	locks := initLocks(redisClient, &logger)

	sheetsService := initGoogleSheets(cfg, &logger)

	var syncWorker domain.SyncWorker
	if sheetsService != nil {
		sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, nil)
		go sheetsWorker.Start(ctx)
		syncWorker = sheetsWorker
	}

	eventBus := events.NewEventBus()
	notifier := notify.NewSMSNotifier(cfg.SMS, &logger)

	bookingService := service.NewBookingService(
		db, db, db, locks, eventBus, notifier, syncWorker,
		cfg.Booking.MaxAdvanceDays, &logger,
	)

	startMetrics(ctx, cfg, &logger)

	exporter := export.NewExporter(db, cfg.Exports.Path, &logger)
	httpServer := api.NewHTTPServer(cfg.API, cfg.Booking, bookingService, exporter, &logger)
	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("create exports directory")
		return err
	}
	return nil
}

// hotelSeed is the configs/hotels.yaml shape: the hotel inventory with its
// rooms, reconciled into the database on every start.
type hotelSeed struct {
	models.Hotel `yaml:",inline"`
	Rooms        []models.Room `yaml:"rooms"`
}

func loadHotels(logger *zerolog.Logger) ([]hotelSeed, error) {
	hotelsPath := os.Getenv("HOTELS_PATH")
	if hotelsPath == "" {
		hotelsPath = "configs/hotels.yaml"
	}
	data, err := os.ReadFile(hotelsPath)
	if err != nil {
		logger.Error().Err(err).Str("hotels_path", hotelsPath).Msg("read hotels")
		return nil, err
	}

	var seed struct {
		Hotels []hotelSeed `yaml:"hotels"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Error().Err(err).Str("hotels_path", hotelsPath).Msg("parse hotels")
		return nil, err
	}

	return seed.Hotels, nil
}

func initDatabase(cfg *config.Config, hotels []hotelSeed, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	ctx := context.Background()
	for i := range hotels {
		h := &hotels[i]
		if err := db.UpsertHotel(ctx, &h.Hotel); err != nil {
			logger.Error().Err(err).Str("hotel", h.Name).Msg("seed hotel")
			continue
		}
		for j := range h.Rooms {
			room := &h.Rooms[j]
			room.HotelID = h.Hotel.ID
			if err := db.UpsertRoom(ctx, room); err != nil {
				logger.Error().Err(err).Str("room", room.Number).Msg("seed room")
			}
		}
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initLocks(redisClient *redis.Client, logger *zerolog.Logger) domain.LockRepository {
	fallback := repository.NewMemoryLockRepository()
	if redisClient == nil {
		return fallback
	}
	return repository.NewFailoverLockRepository(
		repository.NewRedisLockRepository(redisClient), fallback, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.ReportSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.ReportSpreadsheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info().Msg("API server stopped")
	return nil
}
