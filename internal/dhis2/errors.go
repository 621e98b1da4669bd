package dhis2

import (
	"errors"
	"fmt"
)

// Error is a classified failure from the registry. Transient errors
// (timeouts, 5xx, throttling) may be retried; everything else is fatal and
// carries the remote message verbatim.
type Error struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("dhis2: %s", e.Message)
	}
	return fmt.Sprintf("dhis2: status %d: %s", e.StatusCode, e.Message)
}

// IsTransient reports whether the error is worth retrying.
func IsTransient(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Transient
	}
	return false
}

func classify(status int, message string) *Error {
	transient := status >= 500 || status == 408 || status == 429
	return &Error{StatusCode: status, Message: message, Transient: transient}
}
