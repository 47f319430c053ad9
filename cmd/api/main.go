package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lawnly/internal/api"
	"lawnly/internal/auth"
	"lawnly/internal/config"
	"lawnly/internal/database"
	"lawnly/internal/domain"
	"lawnly/internal/events"
	"lawnly/internal/export"
	"lawnly/internal/google"
	"lawnly/internal/logging"
	"lawnly/internal/metrics"
	"lawnly/internal/models"
	"lawnly/internal/notify"
	"lawnly/internal/repository"
	"lawnly/internal/service"
	"lawnly/internal/store"
	"lawnly/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
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

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if err := seedCatalog(db, &logger); err != nil {
		return err
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	sessions := initSessions(cfg, redisClient, &logger)
	bus := events.NewEventBus()
	initNotifier(cfg, bus, &logger)

	ledger := initLedger(cfg, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var syncWorker domain.SyncWorker
	var resyncer api.Resyncer
	if ledger != nil {
		ledgerWorker := worker.NewLedgerWorker(db, ledger, redisClient, worker.RetryPolicy{}, &logger)
		go ledgerWorker.Start(ctx)
		syncWorker = ledgerWorker
		resyncer = ledgerWorker
	}

	manager := auth.NewManager(db, sessions, cfg.Auth, &logger)
	bookingSvc := service.NewBookingService(db, bus, syncWorker, 0, &logger)
	catalogSvc := service.NewCatalogService(db, &logger)
	reviewSvc := service.NewReviewService(db, bus, &logger)
	profileSvc := service.NewProfileService(db, &logger)
	bookingStore := store.NewBookingStore(db, &logger)
	exporter := export.NewExporter(cfg.Exports.Path, &logger)

	httpServer := api.NewServer(cfg.API, api.Deps{
		Auth:     manager,
		Bookings: bookingSvc,
		Catalog:  catalogSvc,
		Reviews:  reviewSvc,
		Profiles: profileSvc,
		Store:    bookingStore,
		Exporter: exporter,
		Resyncer: resyncer,
	}, &logger)

	startMetrics(ctx, cfg, &logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("server stopped")
	return nil
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
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

// seedCatalog loads the service catalog seed on first start. An already
// populated catalog is left untouched.
func seedCatalog(db *database.DB, logger *zerolog.Logger) error {
	seedPath := os.Getenv("SERVICES_PATH")
	if seedPath == "" {
		seedPath = "configs/services.yaml"
	}

	ctx := context.Background()
	existing, err := db.ListServices(ctx, "", false, 1, 0)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		logger.Warn().Err(err).Str("services_path", seedPath).Msg("no catalog seed, starting empty")
		return nil
	}

	var seed struct {
		Services []struct {
			Name            string  `yaml:"name"`
			Description     string  `yaml:"description"`
			Category        string  `yaml:"category"`
			BasePrice       float64 `yaml:"base_price"`
			DurationMinutes int64   `yaml:"duration_minutes"`
		} `yaml:"services"`
		Areas []struct {
			ID          string `yaml:"id"`
			Name        string `yaml:"name"`
			Description string `yaml:"description"`
		} `yaml:"areas"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Error().Err(err).Str("services_path", seedPath).Msg("parse catalog seed")
		return err
	}

	for _, s := range seed.Services {
		svc := &models.Service{
			Name:            s.Name,
			Description:     s.Description,
			Category:        s.Category,
			BasePrice:       s.BasePrice,
			DurationMinutes: s.DurationMinutes,
			Active:          true,
		}
		if err := db.CreateService(ctx, svc); err != nil {
			return err
		}
	}
	for _, a := range seed.Areas {
		area := &models.ServiceArea{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Active:      true,
		}
		if err := db.UpsertServiceArea(ctx, area); err != nil {
			return err
		}
	}

	logger.Info().Int("services", len(seed.Services)).Int("areas", len(seed.Areas)).Msg("catalog seeded")
	return nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initSessions prefers redis with an in-memory fallback; without redis,
// sessions live in process memory only.
func initSessions(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SessionRepository {
	memory := repository.NewMemorySessionRepository(cfg.Auth.SessionTTL())
	if redisClient == nil {
		logger.Warn().Msg("sessions stored in memory; restarts sign everyone out")
		return memory
	}

	primary := repository.NewRedisSessionRepository(redisClient, cfg.Auth.SessionTTL())
	return repository.NewFailoverSessionRepository(primary, memory, logger)
}

func initNotifier(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Notifications.TelegramBotToken == "" || cfg.Notifications.TelegramChatID == 0 {
		return
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Notifications.TelegramBotToken, cfg.Notifications.TelegramChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}
	notifier.Subscribe(bus)
	logger.Info().Msg("telegram notifications enabled")
}

func initLedger(cfg *config.Config, logger *zerolog.Logger) *google.LedgerService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.LedgerSpreadsheetID == "" {
		return nil
	}

	ledger, err := google.NewLedgerService(cfg.Google.CredentialsFile, cfg.Google.LedgerSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without ledger")
		return nil
	}

	logger.Info().Msg("google sheets ledger connected")
	return ledger
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	go startMetricsServer(ctx, port, logger)
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
