package identity

import (
	"errors"
	"fmt"
)

// APIError defines a public type used by tmauth APIs.
//
// APIError is a non-2xx response from the identity service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity: HTTP %d: %s", e.StatusCode, e.Detail)
}

// ConflictError defines a public type used by tmauth APIs.
//
// ConflictError is the 409 registration outcome carrying the candidate
// identity already bound to the submitted phone number.
type ConflictError struct {
	Detail       string
	ExistingUser ExistingUser
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("identity: HTTP 409: %s", e.Detail)
}

// IsStatus reports whether err (or any wrapped error) is an APIError or
// ConflictError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return code == 409
	}
	return false
}

// AsConflict extracts a ConflictError from err, if present.
func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
