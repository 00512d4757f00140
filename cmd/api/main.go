package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "github.com/Vishaljain290502/Rydr/internal/delivery/http"
	"github.com/Vishaljain290502/Rydr/internal/infrastructure/notify"
	"github.com/Vishaljain290502/Rydr/internal/pkg/config"
	"github.com/Vishaljain290502/Rydr/internal/pkg/database"
	"github.com/Vishaljain290502/Rydr/internal/pkg/jwt"
	"github.com/Vishaljain290502/Rydr/internal/pkg/logger"
	"github.com/Vishaljain290502/Rydr/internal/pkg/redis"
	"github.com/Vishaljain290502/Rydr/internal/repository"
	"github.com/Vishaljain290502/Rydr/internal/repository/cached"
	"github.com/Vishaljain290502/Rydr/internal/repository/postgres"
	"github.com/Vishaljain290502/Rydr/internal/usecase/trip"
)

func main() {
	// =========================================================================
	// Загрузка конфигурации
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Инициализация logger
	// =========================================================================

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)
	logger.SetGlobalLogger(log)
	log.Info("Starting Rydr trip service", map[string]interface{}{
		"version":       "1.0.0",
		"status_policy": cfg.Trips.StatusPolicy,
		"notify_driver": cfg.Notify.Driver,
	})

	// =========================================================================
	// Подключение к PostgreSQL и миграции
	// =========================================================================

	ctx := context.Background()
	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer database.Close(db)

	log.Info("Connected to PostgreSQL", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	if cfg.Database.AutoMigrate {
		results, err := database.Migrate(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to apply migrations", map[string]interface{}{
				"error": err.Error(),
			})
		}
		log.Info("Migrations applied", map[string]interface{}{
			"applied": len(results),
		})
	}

	postgisVersion, err := database.PostGISVersion(ctx, db)
	if err != nil {
		log.Fatal("PostGIS extension is required", map[string]interface{}{
			"error": err.Error(),
		})
	}
	log.Info("PostGIS is available", map[string]interface{}{
		"version": postgisVersion,
	})

	// =========================================================================
	// Создание repositories
	// =========================================================================

	userRepo := postgres.NewUserRepository(db)
	var tripRepo repository.TripRepository = postgres.NewTripRepository(db)

	if cfg.Redis.Enabled {
		cache, err := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			// Без кэша сервис работает, только медленнее
			log.Warn("Redis is not available, trip cache disabled", map[string]interface{}{
				"error": err.Error(),
				"addr":  cfg.Redis.Address(),
			})
		} else {
			defer cache.Close()
			tripRepo = cached.NewTripRepository(tripRepo, cache, cfg.Trips.CacheTTL, log)
			log.Info("Trip cache enabled", map[string]interface{}{
				"addr": cfg.Redis.Address(),
				"ttl":  cfg.Trips.CacheTTL.String(),
			})
		}
	}

	log.Info("Repositories initialized")

	// =========================================================================
	// Создание уведомлений
	// =========================================================================

	sender, err := newSender(ctx, &cfg.Notify, log)
	if err != nil {
		log.Fatal("Failed to create notification sender", map[string]interface{}{
			"error":  err.Error(),
			"driver": cfg.Notify.Driver,
		})
	}

	dispatcher := notify.NewDispatcher(userRepo, sender, cfg.Notify.Timeout, cfg.Notify.Concurrency, log)

	// =========================================================================
	// Создание JWT token service
	// =========================================================================

	tokenService := jwt.NewTokenService(cfg.JWT.SecretKey, cfg.JWT.AccessExpiry)

	log.Info("JWT token service initialized")

	// =========================================================================
	// Создание use case services
	// =========================================================================

	tripService := trip.NewService(tripRepo, userRepo, dispatcher, trip.Options{
		StatusPolicy:      trip.StatusUpdatePolicy(cfg.Trips.StatusPolicy),
		NearbyMaxRadiusKm: cfg.Trips.NearbyMaxRadiusKm,
		NotifyHostOnLeave: cfg.Trips.NotifyHostOnLeave,
		NotifyOnCancel:    cfg.Trips.NotifyOnCancel,
	}, log)

	log.Info("Use case services initialized")

	// =========================================================================
	// Создание HTTP handlers и router
	// =========================================================================

	tripHandler := deliveryHTTP.NewTripHandler(tripService, log)

	router := deliveryHTTP.NewRouter(tripHandler, tokenService, cfg, log)
	handler := router.Setup()

	log.Info("HTTP router configured")

	// =========================================================================
	// Создание HTTP сервера
	// =========================================================================

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// =========================================================================
	// Запуск сервера в goroutine
	// =========================================================================

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("API server listening", map[string]interface{}{
			"address": srv.Addr,
		})
		serverErrors <- srv.ListenAndServe()
	}()

	// =========================================================================
	// Graceful shutdown
	// =========================================================================

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("Server error", map[string]interface{}{
			"error": err.Error(),
		})

	case sig := <-shutdown:
		log.Info("Shutdown signal received", map[string]interface{}{
			"signal": sig.String(),
		})

		// Даем серверу 30 секунд на graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Graceful shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})

			if err := srv.Close(); err != nil {
				log.Fatal("Failed to close server", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		// Дожидаемся отправки уже запущенных уведомлений
		if err := dispatcher.Close(); err != nil {
			log.Warn("Failed to close notification sender", map[string]interface{}{
				"error": err.Error(),
			})
		}

		log.Info("Server stopped gracefully")
	}
}

// newSender выбирает канал доставки уведомлений по NOTIFY_DRIVER
func newSender(ctx context.Context, cfg *config.NotifyConfig, log logger.Logger) (notify.Sender, error) {
	switch cfg.Driver {
	case "fcm":
		sender, err := notify.NewFCMSender(ctx, cfg.FCMCredentialsFile)
		if err != nil {
			return nil, err
		}
		return sender, nil

	case "kafka":
		brokers := cfg.Brokers()
		if len(brokers) > 0 {
			if err := notify.EnsureTopic(brokers[0], cfg.KafkaTopic, 3); err != nil {
				log.Warn("Failed to ensure notification topic", map[string]interface{}{
					"error": err.Error(),
					"topic": cfg.KafkaTopic,
				})
			}
		}
		return notify.NewKafkaSender(brokers, cfg.KafkaTopic), nil

	case "webhook":
		sender := notify.NewWebhookSender(cfg.WebhookURL, cfg.WebhookTimeout, cfg.WebhookMaxRetries)
		if err := sender.Health(ctx); err != nil {
			log.Warn("Notification webhook is not available", map[string]interface{}{
				"error": err.Error(),
				"url":   cfg.WebhookURL,
			})
		}
		return sender, nil

	default:
		return notify.NewLogSender(log), nil
	}
}
