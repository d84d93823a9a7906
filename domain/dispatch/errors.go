package dispatch

import (
	"errors"
	"fmt"
)

// Messages returned to callers.
const (
	MsgInvalidRequestType   = "Invalid request type"
	MsgMissingContactFields = "Missing required contact fields"
	MsgMissingMeetingFields = "Missing required meeting fields"
	MsgInvalidRequestBody   = "Invalid request body"
	MsgInvalidIdempotency   = "Invalid Idempotency-Key header"
	MsgDeliveryFailed       = "Failed to send email"
	MsgUnauthorized         = "Missing or invalid authorization"
	MsgSubmissionInFlight   = "Submission with this Idempotency-Key is still being processed"

	MsgContactSubmitted = "Contact form submitted successfully"
	MsgMeetingScheduled = "Meeting scheduled successfully"
)

// Sentinel errors for the dispatch domain.
var (
	ErrMissingContactFields = errors.New("missing required contact fields")
	ErrMissingMeetingFields = errors.New("missing required meeting fields")
	ErrMissingCredentials   = errors.New("missing bearer credentials")
	ErrInvalidCredentials   = errors.New("invalid bearer credentials")
	ErrSubmissionInFlight   = errors.New("submission with the same idempotency key is in flight")
)

// StageError records which step of a dispatch failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
