package upload

import (
	"fmt"
	"time"
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upload rejected: HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upload rejected: HTTP %d", e.StatusCode)
}

// Temporary reports whether a retry might succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// FieldError describes an invalid payload field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid payload: %s: %s", e.Field, e.Reason)
}

func errMissing(field string) error {
	return &FieldError{Field: field, Reason: "required"}
}
