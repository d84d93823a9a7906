package config

import (
	"errors"
	"time"

	"github.com/akeren/digitalcraft-dispatch/pkg/utils"
)

const (
	DefaultDispatchEndpoint = "http://localhost:8080/functions/v1"
	DefaultDispatchTimeout  = 15 * time.Second
)

// ClientConfig configures the submission client used by the CLI.
type ClientConfig struct {
	Endpoint      string
	Token         string
	OperatorEmail string
	BrandName     string
	Timeout       time.Duration
	LogLevel      string
}

func NewClientConfig() *ClientConfig {
	cfg := &ClientConfig{
		Endpoint:      utils.GetEnvTrimmedOrDefault("DISPATCH_ENDPOINT", DefaultDispatchEndpoint),
		Token:         sanitizeEnv(utils.GetEnvTrimmed("DISPATCH_BEARER_TOKEN")),
		OperatorEmail: utils.GetEnvTrimmed("OPERATOR_EMAIL"),
		BrandName:     utils.GetEnvTrimmedOrDefault("BRAND_NAME", DefaultBrandName),
		Timeout:       utils.GetEnvPositiveDuration("DISPATCH_TIMEOUT", DefaultDispatchTimeout),
		LogLevel:      utils.GetEnvTrimmedOrDefault("LOG_LEVEL", "warn"),
	}

	return cfg
}

// Validate reports missing settings. The fallback links need the operator
// address even when the endpoint is unreachable.
func (cc *ClientConfig) Validate() error {
	if cc.OperatorEmail == "" {
		return errors.New("OPERATOR_EMAIL is required for the submission client")
	}
	return nil
}
