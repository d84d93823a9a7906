package dispatch

import (
	"encoding/json"

	apperrors "github.com/akeren/digitalcraft-dispatch/pkg/errors"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// DispatchRequest is the envelope posted by the submission client. Type is
// kept raw so a non-string value is reported as an unknown type rather than
// a malformed body.
type DispatchRequest struct {
	Type json.RawMessage `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Kind returns the submission kind, or "" when type is absent or not a string.
func (r DispatchRequest) Kind() string {
	var kind string
	if err := json.Unmarshal(r.Type, &kind); err != nil {
		return ""
	}
	return kind
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=255,single_line"`
	Email   string `json:"email" binding:"required,max=255,single_line"`
	Company string `json:"company" binding:"omitempty,max=255"`
	Service string `json:"service" binding:"required,max=255"`
	Budget  string `json:"budget" binding:"omitempty,max=255"`
	Message string `json:"message" binding:"required,max=5000"`
}

type MeetingRequest struct {
	Name     string `json:"name" binding:"required,max=255,single_line"`
	Email    string `json:"email" binding:"required,max=255,single_line"`
	Date     string `json:"date" binding:"required,max=64"`
	Time     string `json:"time" binding:"required,max=64"`
	Timezone string `json:"timezone" binding:"required,max=64"`
	Message  string `json:"message" binding:"omitempty,max=5000"`
}

type DispatchResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Replayed bool   `json:"replayed,omitempty"`
}

type ErrorResponse struct {
	Error  string                              `json:"error"`
	Code   string                              `json:"code,omitempty"`
	Fields []apperrors.ValidationErrorResponse `json:"fields,omitempty"`
}
