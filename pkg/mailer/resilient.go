package mailer

import (
	"context"

	"github.com/akeren/digitalcraft-dispatch/pkg/circuitbreaker"
	"github.com/akeren/digitalcraft-dispatch/pkg/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/akeren/digitalcraft-dispatch/pkg/mailer"

// ResilientMailer retries transient provider failures and stops calling a
// provider that keeps failing.
type ResilientMailer struct {
	inner   Mailer
	policy  retry.RetryPolicy
	breaker circuitbreaker.CircuitBreaker
}

func NewResilientMailer(inner Mailer, policy retry.RetryPolicy, breaker circuitbreaker.CircuitBreaker) *ResilientMailer {
	if policy == nil {
		policy = retry.NewExponentialBackoff(nil)
	}
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(nil)
	}
	return &ResilientMailer{inner: inner, policy: policy, breaker: breaker}
}

func (m *ResilientMailer) Provider() string {
	return m.inner.Provider()
}

func (m *ResilientMailer) Breaker() circuitbreaker.CircuitBreaker {
	return m.breaker
}

func (m *ResilientMailer) Send(ctx context.Context, msg Message) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "mailer.send", trace.WithAttributes(
		attribute.String("mail.provider", m.inner.Provider()),
	))
	defer span.End()

	// A malformed message is the caller's fault and must not trip the breaker.
	if err := msg.validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid message")
		return err
	}

	err := m.breaker.Call(func() error {
		return m.policy.Execute(ctx, func(ctx context.Context) error {
			return m.inner.Send(ctx, msg)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		return err
	}

	return nil
}
