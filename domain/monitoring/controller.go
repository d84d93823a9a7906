package monitoring

import (
	"context"
	"time"

	"github.com/akeren/digitalcraft-dispatch/config/router"
	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/pkg/circuitbreaker"
	"github.com/akeren/digitalcraft-dispatch/pkg/factory"
	"github.com/akeren/digitalcraft-dispatch/pkg/ratelimit"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

type Cache interface {
	Ping(ctx context.Context) error
}

// Mailer is the view of the delivery provider needed for health reporting.
type Mailer interface {
	Provider() string
	Breaker() circuitbreaker.CircuitBreaker
}

type HealthStatus struct {
	Database     int    `json:"database"` // 1 = healthy, 0 = unhealthy/not configured
	Cache        int    `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Mailer       int    `json:"mailer"`   // 1 = circuit closed or probing, 0 = open/not configured
	MailProvider string `json:"mail_provider"`
	Circuit      string `json:"circuit"`
	Uptime       int    `json:"uptime"` // uptime in seconds
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	mailer    Mailer
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache, mailer Mailer) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		mailer:    mailer,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			monitoringRateLimiter := createMonitoringRateLimiter(cache, logger)

			routerService.AddGetHandler(controller, monitoringRateLimiter, "", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.monitor(c)
			})

			routerService.AddGetHandler(controller, monitoringRateLimiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

func createMonitoringRateLimiter(cache Cache, logger *log.Logger) ratelimit.RateLimiter {
	const monitoringRequestsPerMinute = 10 // More restrictive than default 100

	return factory.NewDefaultRateLimiterFactory(cache, logger).
		CreateRateLimiter("monitoring", monitoringRequestsPerMinute, time.Minute)
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Info("Health check endpoint called")

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	healthStatus := ctrl.performHealthChecks(ctx, logger)

	return &router.ServiceResult{
		StatusCode: 200,
		Data:       healthStatus,
		Message:    "Dispatch health check completed",
	}
}

func (ctrl *MonitoringController) monitor(
	c *router.RequestContext,
) *router.ServiceResult {
	return &router.ServiceResult{
		StatusCode: 200,
		Data:       "Dispatch service is operational.",
		Message:    "Monitoring successful",
	}
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	checkDatabaseConnectivity(ctx, ctrl, &status, logger)

	checkCacheConnectivity(ctx, ctrl, &status, logger)

	checkMailer(ctrl, &status, logger)

	return status
}

func checkMailer(ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.mailer == nil {
		status.Circuit = "unknown"
		logger.Error("Mailer not configured")
		return
	}

	state := ctrl.mailer.Breaker().State()
	status.MailProvider = ctrl.mailer.Provider()
	status.Circuit = state.String()

	if state == circuitbreaker.Open {
		status.Mailer = 0
		logger.Error("Mailer circuit is open", "provider", status.MailProvider)
		return
	}

	status.Mailer = 1
	logger.Info("Mailer health check passed", "provider", status.MailProvider, "circuit", status.Circuit)
}

func checkCacheConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.cache != nil {
		if ctrl.checkCache(ctx) {
			status.Cache = 1
			logger.Info("Cache health check passed")
		} else {
			status.Cache = 0
			logger.Error("Cache health check failed")
		}
	} else {
		status.Cache = 0 // Cache not configured
		logger.Info("Cache not configured, cache health check skipped")
	}
}

func checkDatabaseConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.db == nil {
		status.Database = 0
		logger.Info("Database not configured, database health check skipped")
		return
	}

	if ctrl.checkDatabase(ctx) {
		status.Database = 1
		logger.Info("Database health check passed")
	} else {
		status.Database = 0
		logger.Error("Database health check failed")
	}
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}

func (ctrl *MonitoringController) checkCache(ctx context.Context) bool {
	return ctrl.cache.Ping(ctx) == nil
}
