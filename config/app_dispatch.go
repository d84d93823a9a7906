package config

import (
	"time"

	"github.com/akeren/digitalcraft-dispatch/pkg/utils"
)

const (
	DefaultBrandName               = "DigitalCraft"
	DefaultIdempotencyTTL          = 24 * time.Hour
	DefaultInFlightTTL             = 5 * time.Minute
	DefaultDispatchRateLimit       = 10
	DefaultDispatchRateLimitWindow = time.Minute
)

type DispatchConfig struct {
	BrandName         string
	JWTSecret         string
	APIKey            string
	IdempotencyTTL    time.Duration
	InFlightTTL       time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func NewDispatchConfig() *DispatchConfig {
	cfg := &DispatchConfig{
		BrandName:         utils.GetEnvTrimmedOrDefault("BRAND_NAME", DefaultBrandName),
		JWTSecret:         sanitizeEnv(utils.GetEnvTrimmed("DISPATCH_JWT_SECRET")),
		APIKey:            sanitizeEnv(utils.GetEnvTrimmed("DISPATCH_API_KEY")),
		IdempotencyTTL:    utils.GetEnvPositiveDuration("IDEMPOTENCY_TTL", DefaultIdempotencyTTL),
		InFlightTTL:       utils.GetEnvPositiveDuration("IDEMPOTENCY_IN_FLIGHT_TTL", DefaultInFlightTTL),
		RateLimitRequests: utils.GetEnvPositiveInt("DISPATCH_RATE_LIMIT_REQUESTS", DefaultDispatchRateLimit),
		RateLimitWindow:   utils.GetEnvPositiveDuration("DISPATCH_RATE_LIMIT_WINDOW", DefaultDispatchRateLimitWindow),
	}

	return cfg
}
