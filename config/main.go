package config

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/akeren/digitalcraft-dispatch/config/router"
	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/internal/models"
	"github.com/akeren/digitalcraft-dispatch/pkg/constants"
	"github.com/akeren/digitalcraft-dispatch/pkg/idempotency"
	"github.com/akeren/digitalcraft-dispatch/pkg/mailer"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB // nil when no database is configured
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Mailer          *mailer.ResilientMailer
	Idempotency     idempotency.Store
	Config          *AppConfig
	Mail            *MailConfig
	Dispatch        *DispatchConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{
		RateLimitRequests: constants.DefaultRateLimitRequests,
		RateLimitWindow:   constants.DefaultRateLimitWindow(),
		RequestTimeout:    30 * time.Second, // Default request timeout
	}

	// Override from environment variables
	if reqStr := os.Getenv("RATE_LIMIT_REQUESTS"); reqStr != "" {
		if parsed, err := strconv.Atoi(reqStr); err == nil && parsed > 0 {
			config.RateLimitRequests = parsed
		}
	}

	if winStr := os.Getenv("RATE_LIMIT_WINDOW"); winStr != "" {
		if parsed, err := time.ParseDuration(winStr); err == nil && parsed > 0 {
			config.RateLimitWindow = parsed
		}
	}

	if timeoutStr := os.Getenv("REQUEST_TIMEOUT"); timeoutStr != "" {
		if parsed, err := time.ParseDuration(timeoutStr); err == nil && parsed > 0 {
			config.RequestTimeout = parsed
		}
	}

	return config
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Idempotency != nil {
		if err := ac.Idempotency.Close(); err != nil {
			ac.Logger.Error("Failed to close idempotency store", "error", err)
		}
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

var ErrAutoMigrateWithoutDatabase = errors.New("--auto-migrate requires APP_DATABASE_URL or POSTGRES_HOST")

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	mailConfig := NewMailConfig()
	resilientMailer, err := mailConfig.NewMailer(logger)
	if err != nil {
		return nil, err
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabaseOrNil(logger, &DBConfig{
		MaxIdleConns:    5,
		MaxOpenConns:    20,
		ConnMaxLifetime: 5 * time.Minute,
		SSLMode:         "require",
	})
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if db == nil {
			return nil, ErrAutoMigrateWithoutDatabase
		}
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}

	appConfig := NewAppConfig()
	cacheConfig := NewCacheConfig()
	cache := cacheConfig.NewCacheOrNil(logger)

	store := idempotency.NewStore(&idempotency.Config{
		Redis:     GetRedisClient(cache),
		KeyPrefix: cacheConfig.KeyPrefix("idempotency"),
	})

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
	})

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Mailer:          resilientMailer,
		Idempotency:     store,
		Config:          appConfig,
		Mail:            mailConfig,
		Dispatch:        NewDispatchConfig(),
		TracingShutdown: tracingShutdown,
	}, nil
}
