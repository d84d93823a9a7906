package dispatch

import (
	"time"

	"github.com/akeren/digitalcraft-dispatch/config/router"
	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/pkg/factory"
	"github.com/akeren/digitalcraft-dispatch/pkg/idempotency"
	"github.com/akeren/digitalcraft-dispatch/pkg/mailer"
	"github.com/akeren/digitalcraft-dispatch/pkg/ratelimit"
	"gorm.io/gorm"
)

const (
	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = time.Minute
)

type ControllerOptions struct {
	Options

	JWTSecret         string
	APIKey            string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Dependencies wires the dispatch domain. DB and Store are optional.
type Dependencies struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Mailer   mailer.Mailer
	Store    idempotency.Store
	Limiters factory.RateLimiterFactory
	Options  ControllerOptions
}

func (d *Dependencies) newService(metrics *dispatchMetrics) DispatchService {
	return NewDispatchService(d.Logger, d.Mailer, NewDeliveryRepository(d.DB), d.Store, metrics, d.Options.Options)
}

func (d *Dependencies) newRateLimiter() ratelimit.RateLimiter {
	requests := d.Options.RateLimitRequests
	if requests <= 0 {
		requests = DefaultRateLimitRequests
	}
	window := d.Options.RateLimitWindow
	if window <= 0 {
		window = DefaultRateLimitWindow
	}

	if d.Limiters == nil {
		return ratelimit.NewInMemoryRateLimiter(requests, window)
	}
	return d.Limiters.CreateRateLimiter("dispatch", requests, window)
}

type DispatchServiceFactory interface {
	CreateService() DispatchService
	CreateController() *router.RESTController
}

type DefaultDispatchServiceFactory struct {
	deps *Dependencies
}

func NewDispatchServiceFactory(deps *Dependencies) DispatchServiceFactory {
	return &DefaultDispatchServiceFactory{deps: deps}
}

func (f *DefaultDispatchServiceFactory) CreateService() DispatchService {
	return f.deps.newService(nil)
}

func (f *DefaultDispatchServiceFactory) CreateController() *router.RESTController {
	return NewDispatchController(f.deps)
}
