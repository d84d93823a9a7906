package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/pkg/circuitbreaker"
	"github.com/akeren/digitalcraft-dispatch/pkg/mailer"
	"github.com/akeren/digitalcraft-dispatch/pkg/retry"
	"github.com/akeren/digitalcraft-dispatch/pkg/utils"
)

const (
	MailProviderSendGrid = "sendgrid"
	MailProviderSMTP     = "smtp"
	MailProviderLog      = "log"

	DefaultMailFromName = "DigitalCraft Team"
)

type MailConfig struct {
	Provider        string
	SendGridAPIKey  string
	SendGridBaseURL string
	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	FromEmail       string
	FromName        string
	OperatorEmail   string

	RetryAttempts    int
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// NewMailConfig reads the mail settings. The provider defaults to SendGrid
// when an API key is present and to the log provider otherwise.
func NewMailConfig() *MailConfig {
	cfg := &MailConfig{
		Provider:         strings.ToLower(utils.GetEnvTrimmed("MAIL_PROVIDER")),
		SendGridAPIKey:   sanitizeEnv(utils.GetEnvTrimmed("SENDGRID_API_KEY")),
		SendGridBaseURL:  utils.GetEnvTrimmedOrDefault("SENDGRID_BASE_URL", mailer.DefaultSendGridBaseURL),
		SMTPHost:         utils.GetEnvTrimmed("SMTP_HOST"),
		SMTPPort:         utils.GetEnvTrimmedOrDefault("SMTP_PORT", "587"),
		SMTPUsername:     utils.GetEnvTrimmed("SMTP_USERNAME"),
		SMTPPassword:     sanitizeEnv(utils.GetEnvTrimmed("SMTP_PASSWORD")),
		FromEmail:        utils.GetEnvTrimmed("MAIL_FROM_EMAIL"),
		FromName:         utils.GetEnvTrimmedOrDefault("MAIL_FROM_NAME", DefaultMailFromName),
		OperatorEmail:    utils.GetEnvTrimmed("OPERATOR_EMAIL"),
		RetryAttempts:    utils.GetEnvPositiveInt("MAIL_RETRY_ATTEMPTS", 3),
		FailureThreshold: 5,
		RecoveryTimeout:  utils.GetEnvPositiveDuration("MAIL_CIRCUIT_RECOVERY", 30*time.Second),
	}

	if cfg.Provider == "" {
		if cfg.SendGridAPIKey != "" {
			cfg.Provider = MailProviderSendGrid
		} else {
			cfg.Provider = MailProviderLog
		}
	}

	return cfg
}

func (mc *MailConfig) Validate() error {
	missing := []string{}

	if mc.OperatorEmail == "" {
		missing = append(missing, "OPERATOR_EMAIL")
	}

	switch mc.Provider {
	case MailProviderSendGrid:
		if mc.SendGridAPIKey == "" {
			missing = append(missing, "SENDGRID_API_KEY")
		}
		if mc.FromEmail == "" {
			missing = append(missing, "MAIL_FROM_EMAIL")
		}
	case MailProviderSMTP:
		if mc.SMTPHost == "" {
			missing = append(missing, "SMTP_HOST")
		}
		if mc.SMTPUsername == "" {
			missing = append(missing, "SMTP_USERNAME")
		}
	case MailProviderLog:
	default:
		return fmt.Errorf("unsupported MAIL_PROVIDER %q (allowed: sendgrid, smtp, log)", mc.Provider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required mail env vars: %s", strings.Join(missing, ", "))
	}

	return nil
}

func (mc *MailConfig) NewMailer(logger *log.Logger) (*mailer.ResilientMailer, error) {
	if err := mc.Validate(); err != nil {
		logger.Error("Invalid mail configuration", "error", err)
		return nil, err
	}

	from := mailer.Address{Email: mc.FromEmail, Name: mc.FromName}

	var inner mailer.Mailer
	switch mc.Provider {
	case MailProviderSendGrid:
		inner = mailer.NewSendGridMailer(mailer.SendGridConfig{
			APIKey:  mc.SendGridAPIKey,
			BaseURL: mc.SendGridBaseURL,
			From:    from,
		})
	case MailProviderSMTP:
		inner = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     mc.SMTPHost,
			Port:     mc.SMTPPort,
			Username: mc.SMTPUsername,
			Password: mc.SMTPPassword,
			From:     from,
		})
	default:
		logger.Warn("MAIL_PROVIDER is log; emails will be written to the log and not delivered")
		inner = mailer.NewLogMailer(logger)
	}

	policy := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: mc.RetryAttempts,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	})
	breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
		FailureThreshold: mc.FailureThreshold,
		RecoveryTimeout:  mc.RecoveryTimeout,
		SuccessThreshold: 1,
	})

	logger.Info("Mailer configured", "provider", inner.Provider(), "retry_attempts", mc.RetryAttempts)

	return mailer.NewResilientMailer(inner, policy, breaker), nil
}
