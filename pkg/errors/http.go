package errors

import (
	"errors"
	"net/http"
)

var statusByType = map[string]int{
	ErrorTypeInvalidRequest: http.StatusBadRequest,
	ErrorTypeUnauthorized:   http.StatusUnauthorized,
	ErrorTypeConflict:       http.StatusConflict,
	ErrorTypeDeliveryFailed: http.StatusBadGateway,
}

// HTTPStatusCode maps an error to its response status. Anything unmapped,
// database failures included, is a 500.
func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetHumanReadableMessage returns the client-safe message of an AppError.
// Other errors never leak their text.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An unexpected error occurred"
}
