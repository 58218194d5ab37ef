// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"meteovip-backend/application/scheduler"
	"meteovip-backend/application/services/evaluate"
	"meteovip-backend/application/services/tick"
	"meteovip-backend/internal/config"
	"meteovip-backend/internal/core/domain/hazards"
	"meteovip-backend/internal/delivery/httpapi"
	"meteovip-backend/internal/delivery/telegram"
	rediscache "meteovip-backend/internal/infrastructure/cache/redis"
	"meteovip-backend/internal/infrastructure/persistence/postgres"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/alerts"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/locations"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/plans"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/users"
	"meteovip-backend/internal/infrastructure/weather/openmeteo"
	"meteovip-backend/internal/observability"
	"meteovip-backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("❌ Не удалось загрузить конфигурацию: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Конфигурация некорректна: %v", err)
	}

	if err := logger.InitGlobal(cfg.LogFile, cfg.LogLevel, cfg.LogLevel == "debug"); err != nil {
		log.Fatalf("❌ Не удалось инициализировать логгер: %v", err)
	}

	logger.Info("🚀 Запуск MeteoVIP backend")

	// PostgreSQL
	dbPort, err := strconv.Atoi(cfg.DBPort)
	if err != nil {
		logger.Error("❌ DB_PORT не является числом: %v", err)
		os.Exit(1)
	}
	db, err := postgres.Connect(&postgres.Config{
		Host:           cfg.DBHost,
		Port:           dbPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		Database:       cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		MaxConns:       25,
		MaxIdle:        10,
		MigrationsPath: cfg.DBMigrationsPath,
	})
	if err != nil {
		logger.Error("❌ PostgreSQL недоступен: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis
	cache := rediscache.NewCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := cache.Ping(pingCtx); err != nil {
		logger.Error("❌ Redis недоступен: %v", err)
		pingCancel()
		os.Exit(1)
	}
	pingCancel()
	logger.Info("✅ Подключение к Redis установлено")

	// Метрики и погодный провайдер
	metrics := observability.NewMetrics()
	meteoClient := openmeteo.NewClient(cfg.OpenMeteoURL, cfg.RequestTimeout)
	provider := openmeteo.NewCachedProvider(meteoClient, cache, cfg.ForecastCacheTTL, metrics)

	// Репозитории
	userRepo := users.NewUserRepository(db, cache)
	locationRepo := locations.NewLocationRepository(db)
	planRepo := plans.NewPlanRepository(db)
	alertRepo := alerts.NewAlertRepository(db)

	// Сервисы
	hazardOpts := hazards.Options{MissingAsZero: cfg.HazardMissingAsZero}
	sender := telegram.NewMessageSender(cfg.BotToken, cfg.TelegramEnabled, cfg.TelegramTestMode)
	tickSvc := tick.NewService(userRepo, locationRepo, alertRepo, provider, sender, hazardOpts, metrics)
	evaluateSvc := evaluate.NewService(locationRepo, planRepo, provider, hazardOpts)

	// Внутренний планировщик тика
	var sched *scheduler.Scheduler
	if cfg.TickInternalEnabled {
		sched = scheduler.New()
		sched.Register(&scheduler.Job{
			Name:        "hazard-tick",
			Description: "Обход пользователей: детекция опасностей и рассылка",
			Schedule:    scheduler.Every(cfg.TickInterval),
			Handler: func(ctx context.Context) error {
				_, err := tickSvc.Run(ctx)
				return err
			},
		})
		sched.Start()
	} else {
		logger.Info("ℹ️ Внутренний тик отключён, ожидается внешний триггер /api/v1/jobs/tick")
	}

	// HTTP сервер
	server := httpapi.NewServer(cfg, userRepo, locationRepo, planRepo, alertRepo, provider, evaluateSvc, tickSvc, cache)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Ожидание сигнала остановки
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("🛑 Получен сигнал %v, останавливаемся", sig)
	case err := <-errChan:
		logger.Error("❌ HTTP сервер упал: %v", err)
	}

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Сервер не остановился корректно: %v", err)
	}

	logger.Info("👋 MeteoVIP backend остановлен")
}
