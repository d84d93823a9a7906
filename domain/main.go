package domain

import (
	"github.com/akeren/digitalcraft-dispatch/config"
	"github.com/akeren/digitalcraft-dispatch/domain/dispatch"
	"github.com/akeren/digitalcraft-dispatch/domain/monitoring"
	"github.com/akeren/digitalcraft-dispatch/pkg/factory"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	appConfig.RouterService.MountController(monitoring.NewMonitoringController(appConfig.DB, appConfig.Logger, appConfig.Cache, appConfig.Mailer))
	appConfig.RouterService.MountController(dispatch.NewDispatchController(newDispatchDependencies(appConfig)))
}

func newDispatchDependencies(appConfig *config.ApplicationConfig) *dispatch.Dependencies {
	return &dispatch.Dependencies{
		DB:       appConfig.DB,
		Logger:   appConfig.Logger,
		Mailer:   appConfig.Mailer,
		Store:    appConfig.Idempotency,
		Limiters: factory.NewDefaultRateLimiterFactory(appConfig.Cache, appConfig.Logger),
		Options: dispatch.ControllerOptions{
			Options: dispatch.Options{
				OperatorEmail:  appConfig.Mail.OperatorEmail,
				BrandName:      appConfig.Dispatch.BrandName,
				IdempotencyTTL: appConfig.Dispatch.IdempotencyTTL,
				InFlightTTL:    appConfig.Dispatch.InFlightTTL,
			},
			JWTSecret:         appConfig.Dispatch.JWTSecret,
			APIKey:            appConfig.Dispatch.APIKey,
			RateLimitRequests: appConfig.Dispatch.RateLimitRequests,
			RateLimitWindow:   appConfig.Dispatch.RateLimitWindow,
		},
	}
}
