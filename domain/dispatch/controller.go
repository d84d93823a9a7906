package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/akeren/digitalcraft-dispatch/config/router"
	"github.com/akeren/digitalcraft-dispatch/internal/models"
	apperrors "github.com/akeren/digitalcraft-dispatch/pkg/errors"
	"github.com/gin-gonic/gin/binding"
)

const maxIdempotencyKeyLength = 255

// CORSPolicy is attached to every response of the dispatch route.
var CORSPolicy = router.CORSPolicy{
	AllowOrigin:  "*",
	AllowHeaders: "authorization, x-client-info, apikey, content-type",
	AllowMethods: "POST, OPTIONS",
}

func NewDispatchController(deps *Dependencies) *router.RESTController {
	return router.NewVersionedRESTController(
		"DispatchController",
		"functions/v1",
		"send-email",
		func(rs *router.RouterService, c *router.RESTController) {
			metrics := newDispatchMetrics(rs.MetricsRegisterer())
			service := deps.newService(metrics)
			limiter := deps.newRateLimiter()
			auth := NewAuthenticator(deps.Options.JWTSecret, deps.Options.APIKey)

			if !auth.Enabled() {
				deps.Logger.Warn("Dispatch endpoint is open; set DISPATCH_JWT_SECRET or DISPATCH_API_KEY to require a bearer credential")
			} else {
				deps.Logger.Info("Dispatch endpoint authentication enabled", "mode", auth.Mode())
			}

			rs.AddPreflightHandler(c, "", CORSPolicy)
			rs.AddPostHandler(c, limiter, "", sendEmailHandler(service, metrics), auth.Middleware())
		},
	)
}

func sendEmailHandler(service DispatchService, metrics *dispatchMetrics) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req DispatchRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind dispatch request", "error", err)
			return errorResult(http.StatusBadRequest, MsgInvalidRequestBody, apperrors.ErrorTypeInvalidRequest, nil)
		}

		idempotencyKey := strings.TrimSpace(ctx.GetHeader(IdempotencyKeyHeader))
		if len(idempotencyKey) > maxIdempotencyKeyLength {
			return errorResult(http.StatusBadRequest, MsgInvalidIdempotency, apperrors.ErrorTypeInvalidRequest, nil)
		}

		switch kind := req.Kind(); kind {
		case models.KindContact:
			var data ContactRequest
			if fields, ok := bindData(req.Data, &data); !ok {
				logger.Warn("Rejected contact submission", "fields", fields)
				metrics.outcome(models.KindContact, outcomeRejected)
				return errorResult(http.StatusBadRequest, MsgMissingContactFields, apperrors.ErrorTypeInvalidRequest, fields)
			}
			return dispatchResult(service.SubmitContact(ctx.Request.Context(), &data, idempotencyKey))

		case models.KindMeeting:
			var data MeetingRequest
			if fields, ok := bindData(req.Data, &data); !ok {
				logger.Warn("Rejected meeting submission", "fields", fields)
				metrics.outcome(models.KindMeeting, outcomeRejected)
				return errorResult(http.StatusBadRequest, MsgMissingMeetingFields, apperrors.ErrorTypeInvalidRequest, fields)
			}
			return dispatchResult(service.ScheduleMeeting(ctx.Request.Context(), &data, idempotencyKey))

		default:
			logger.Warn("Rejected dispatch request with unknown type", "type", kind, "raw_type", string(req.Type))
			return errorResult(http.StatusBadRequest, MsgInvalidRequestType, apperrors.ErrorTypeInvalidRequest, nil)
		}
	}
}

// bindData decodes the submission data strictly as an object of strings and
// runs the binding rules of target. It reports the offending fields on failure.
func bindData(raw json.RawMessage, target any) ([]apperrors.ValidationErrorResponse, bool) {
	registerValidators()

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	if err := json.Unmarshal(trimmed, target); err != nil {
		return apperrors.FormatValidationErrors(err, target), false
	}

	if err := binding.Validator.ValidateStruct(target); err != nil {
		return apperrors.FormatValidationErrors(err, target), false
	}

	return nil, true
}

func dispatchResult(response *DispatchResponse, err error) *router.ServiceResult {
	if err != nil {
		return errorResult(
			apperrors.HTTPStatusCode(err),
			apperrors.GetHumanReadableMessage(err),
			apperrors.GetErrorType(err),
			nil,
		)
	}

	return router.JSONResult(http.StatusOK, response)
}

func errorResult(status int, message, code string, fields []apperrors.ValidationErrorResponse) *router.ServiceResult {
	return router.JSONResult(status, ErrorResponse{
		Error:  message,
		Code:   code,
		Fields: fields,
	})
}
