package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrorResponse names one rejected submission field.
type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var tagMessages = map[string]string{
	"required":    "This field is required",
	"email":       "Invalid email format",
	"max":         "Value is too long",
	"min":         "Value is too short",
	"oneof":       "Value is not one of the accepted options",
	"single_line": "Value must not contain line breaks",
}

// paramMessages take the tag parameter, e.g. max=255.
var paramMessages = map[string]string{
	"max":   "Must not exceed %s characters",
	"min":   "Must be at least %s characters",
	"oneof": "Must be one of: %s",
}

func messageFor(fe validator.FieldError) string {
	if format, ok := paramMessages[fe.Tag()]; ok && fe.Param() != "" {
		return fmt.Sprintf(format, fe.Param())
	}
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	return "Invalid value"
}

// jsonFieldName maps a Go field name to its json tag so responses use the
// wire names the client sent.
func jsonFieldName(model any, field string) string {
	if model == nil {
		return field
	}

	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return field
	}

	sf, ok := t.FieldByName(field)
	if !ok {
		return field
	}

	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field
	}
	return name
}

// FormatValidationErrors turns a decode or validation failure for model into
// per-field messages. Errors of other kinds yield an empty list.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
		}}
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []ValidationErrorResponse{}
	}

	out := make([]ValidationErrorResponse, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, ValidationErrorResponse{
			Field:   jsonFieldName(model, fe.StructField()),
			Message: messageFor(fe),
		})
	}
	return out
}
