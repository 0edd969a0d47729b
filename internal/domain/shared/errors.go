package shared

import "errors"

// DomainError represents a client-side domain error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so wrapped
// errors built with NewDomainError still match the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidInput       = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrLoginRequired      = NewDomainError("LOGIN_REQUIRED", "You need to log in first")
	ErrActionUnavailable  = NewDomainError("ACTION_UNAVAILABLE", "This action is not available")
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrNetwork            = NewDomainError("NETWORK_ERROR", "Could not reach the server")
)

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
