package api

import "fmt"

// ErrorKind classifies backend failures so callers can branch without
// inspecting status codes.
type ErrorKind string

const (
	// KindAuth covers missing/invalid credentials; the views redirect to
	// login when they see it.
	KindAuth ErrorKind = "auth"
	// KindValidation covers backend-rejected input (422).
	KindValidation ErrorKind = "validation"
	// KindRejected covers any other non-2xx response.
	KindRejected ErrorKind = "rejected"
	// KindNetwork covers requests that never completed (timeout, refused).
	KindNetwork ErrorKind = "network"
)

// Error is the tagged result for a failed backend call. Backend failures are
// values, not panics: every caller handles both branches explicitly.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend error (%s, status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (%s): %s", e.Kind, e.Message)
}

// IsAuth reports whether err is a backend authentication failure.
func IsAuth(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.Kind == KindAuth
}
