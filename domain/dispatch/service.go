package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/internal/models"
	"github.com/akeren/digitalcraft-dispatch/pkg/circuitbreaker"
	apperrors "github.com/akeren/digitalcraft-dispatch/pkg/errors"
	"github.com/akeren/digitalcraft-dispatch/pkg/idempotency"
	"github.com/akeren/digitalcraft-dispatch/pkg/mailer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBrandName      = "DigitalCraft"
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultInFlightTTL    = 5 * time.Minute

	tracerName = "github.com/akeren/digitalcraft-dispatch/domain/dispatch"
)

type DispatchService interface {
	// SubmitContact notifies the operator of a contact submission, then
	// acknowledges it to the submitter.
	SubmitContact(ctx context.Context, req *ContactRequest, idempotencyKey string) (*DispatchResponse, error)

	// ScheduleMeeting notifies the operator of a meeting request, then
	// acknowledges it to the submitter.
	ScheduleMeeting(ctx context.Context, req *MeetingRequest, idempotencyKey string) (*DispatchResponse, error)
}

type Options struct {
	OperatorEmail  string
	BrandName      string
	IdempotencyTTL time.Duration
	// InFlightTTL bounds how long an unfinished submission holds its key.
	InFlightTTL time.Duration
}

type dispatchService struct {
	logger     *log.Logger
	mailer     mailer.Mailer
	repository DeliveryRepository
	store      idempotency.Store
	metrics    *dispatchMetrics
	options    Options
}

// NewDispatchService builds the service. store may be nil, which disables
// idempotent replay.
func NewDispatchService(
	logger *log.Logger,
	m mailer.Mailer,
	repository DeliveryRepository,
	store idempotency.Store,
	metrics *dispatchMetrics,
	options Options,
) DispatchService {
	if options.BrandName == "" {
		options.BrandName = DefaultBrandName
	}
	if options.IdempotencyTTL <= 0 {
		options.IdempotencyTTL = DefaultIdempotencyTTL
	}
	if options.InFlightTTL <= 0 {
		options.InFlightTTL = DefaultInFlightTTL
	}
	if repository == nil {
		repository = discardRepository{}
	}

	return &dispatchService{
		logger:     logger,
		mailer:     m,
		repository: repository,
		store:      store,
		metrics:    metrics,
		options:    options,
	}
}

// delivery is one submission rendered into its two emails.
type delivery struct {
	kind           string
	idempotencyKey string
	operator       mailer.Message
	ack            mailer.Message
	successMessage string
}

func (s *dispatchService) SubmitContact(ctx context.Context, req *ContactRequest, idempotencyKey string) (*DispatchResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("SubmitContact received nil request")
		return nil, apperrors.NewInvalidRequestError(MsgMissingContactFields, ErrMissingContactFields)
	}

	operatorHTML, err := renderContactOperator(req)
	if err != nil {
		logger.Error("Failed to render contact notification", "error", err)
		return nil, apperrors.NewInternalServerError("failed to render email", err)
	}
	ackHTML, err := renderContactAck(req)
	if err != nil {
		logger.Error("Failed to render contact acknowledgment", "error", err)
		return nil, apperrors.NewInternalServerError("failed to render email", err)
	}

	return s.deliver(ctx, delivery{
		kind:           models.KindContact,
		idempotencyKey: idempotencyKey,
		operator: mailer.Message{
			To:      mailer.Address{Email: s.options.OperatorEmail},
			ReplyTo: req.Email,
			Subject: "New Contact from " + req.Name,
			HTML:    operatorHTML,
		},
		ack: mailer.Message{
			To:      mailer.Address{Email: req.Email, Name: req.Name},
			Subject: "Thanks for contacting " + s.options.BrandName + "!",
			HTML:    ackHTML,
			Text:    "Hi " + req.Name + ",\nWe received your message and will get back to you soon.",
		},
		successMessage: MsgContactSubmitted,
	})
}

func (s *dispatchService) ScheduleMeeting(ctx context.Context, req *MeetingRequest, idempotencyKey string) (*DispatchResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("ScheduleMeeting received nil request")
		return nil, apperrors.NewInvalidRequestError(MsgMissingMeetingFields, ErrMissingMeetingFields)
	}

	operatorHTML, err := renderMeetingOperator(req)
	if err != nil {
		logger.Error("Failed to render meeting notification", "error", err)
		return nil, apperrors.NewInternalServerError("failed to render email", err)
	}
	ackHTML, err := renderMeetingAck(req)
	if err != nil {
		logger.Error("Failed to render meeting acknowledgment", "error", err)
		return nil, apperrors.NewInternalServerError("failed to render email", err)
	}

	return s.deliver(ctx, delivery{
		kind:           models.KindMeeting,
		idempotencyKey: idempotencyKey,
		operator: mailer.Message{
			To:      mailer.Address{Email: s.options.OperatorEmail},
			ReplyTo: req.Email,
			Subject: "New Meeting Scheduled by " + req.Name,
			HTML:    operatorHTML,
		},
		ack: mailer.Message{
			To:      mailer.Address{Email: req.Email, Name: req.Name},
			Subject: "Meeting Scheduled with " + s.options.BrandName,
			HTML:    ackHTML,
			Text:    "Hi " + req.Name + ",\nYour meeting has been scheduled. We'll contact you soon.",
		},
		successMessage: MsgMeetingScheduled,
	})
}

func (s *dispatchService) deliver(ctx context.Context, d delivery) (*DispatchResponse, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch."+d.kind, trace.WithAttributes(
		attribute.String("dispatch.kind", d.kind),
		attribute.Bool("dispatch.idempotent", d.idempotencyKey != ""),
	))
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger).With("kind", d.kind)

	idemKey := d.kind + ":" + d.idempotencyKey
	reserved := false
	if d.idempotencyKey != "" && s.store != nil {
		status, err := s.store.Reserve(ctx, idemKey, s.options.InFlightTTL)
		switch {
		case err != nil:
			// Never block a submission on the idempotency store.
			logger.Warn("Idempotency store unavailable; dispatching without replay protection", "error", err)
		case status == idempotency.StatusCompleted:
			logger.Info("Replayed submission; no email sent")
			s.metrics.outcome(d.kind, outcomeReplayed)
			span.SetAttributes(attribute.Bool("dispatch.replayed", true))
			return &DispatchResponse{Success: true, Message: d.successMessage, Replayed: true}, nil
		case status == idempotency.StatusInFlight:
			logger.Info("Submission with the same idempotency key is still in flight")
			s.metrics.outcome(d.kind, outcomeInFlight)
			span.SetAttributes(attribute.Bool("dispatch.in_flight", true))
			return nil, apperrors.NewConflictError(MsgSubmissionInFlight, ErrSubmissionInFlight)
		default:
			reserved = true
		}
	}

	started := time.Now()
	stage, err := s.send(ctx, d)
	s.metrics.observeDelivery(d.kind, started)

	if err != nil {
		if reserved {
			if releaseErr := s.store.Release(context.WithoutCancel(ctx), idemKey); releaseErr != nil {
				logger.Warn("Failed to release idempotency key", "error", releaseErr)
			}
		}

		logger.Error("Email delivery failed", "stage", stage, "provider", s.mailer.Provider(), "error", err)
		s.metrics.outcome(d.kind, outcomeFailed)
		s.metrics.failure(d.kind, stage)
		s.record(ctx, d, models.DeliveryStatusFailed, stage, err)

		span.RecordError(err)
		span.SetStatus(codes.Error, stage+" delivery failed")
		return nil, apperrors.NewDeliveryError(MsgDeliveryFailed, &StageError{Stage: stage, Err: err})
	}

	if reserved {
		if completeErr := s.store.Complete(context.WithoutCancel(ctx), idemKey, s.options.IdempotencyTTL); completeErr != nil {
			logger.Warn("Failed to complete idempotency key", "error", completeErr)
		}
	}

	logger.Info("Submission delivered", "provider", s.mailer.Provider(), "duration_ms", time.Since(started).Milliseconds())
	s.metrics.outcome(d.kind, outcomeDelivered)
	s.record(ctx, d, models.DeliveryStatusDelivered, "", nil)

	return &DispatchResponse{Success: true, Message: d.successMessage}, nil
}

// send delivers the operator notification and then the acknowledgment. The
// acknowledgment is only attempted once the operator email was accepted.
func (s *dispatchService) send(ctx context.Context, d delivery) (string, error) {
	if err := s.mailer.Send(ctx, d.operator); err != nil {
		return models.StageOperator, err
	}
	if err := s.mailer.Send(ctx, d.ack); err != nil {
		return models.StageAcknowledgment, err
	}
	return "", nil
}

func (s *dispatchService) record(ctx context.Context, d delivery, status, stage string, cause error) {
	record := &models.DeliveryRecord{
		Kind:        d.kind,
		Provider:    s.mailer.Provider(),
		Status:      status,
		FailedStage: stage,
		ErrorType:   errorType(cause),
	}
	if d.idempotencyKey != "" {
		key := d.idempotencyKey
		record.IdempotencyKey = &key
	}

	if err := s.repository.RecordDelivery(context.WithoutCancel(ctx), record); err != nil {
		log.GetLoggerInstanceFromContext(ctx, s.logger).Warn("Failed to record delivery", "error", err)
	}
}

// errorType classifies a delivery failure without leaking provider text.
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var providerErr *mailer.ProviderError
	switch {
	case errors.As(err, &providerErr):
		if providerErr.Temporary() {
			return "provider_unavailable"
		}
		return "provider_rejected"
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "transport"
	}
}
