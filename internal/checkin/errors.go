package checkin

import (
	"errors"
	"fmt"
)

// ErrZoneNotFound is returned when a check-in names a zone that does not exist
var ErrZoneNotFound = errors.New("zone not found")

// ValidationError reports the first invalid field of a request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// fieldMessages maps a field and failed rule to the message shown to clients.
var fieldMessages = map[string]string{
	"name":     "Name is required",
	"email":    "Invalid email",
	"zoneId":   "Zone is required",
	"duration": "Duration is required",
	"userId":   "User ID is required",
}

func newValidationError(field string) *ValidationError {
	msg, ok := fieldMessages[field]
	if !ok {
		msg = "Invalid value"
	}
	return &ValidationError{Field: field, Message: msg}
}
