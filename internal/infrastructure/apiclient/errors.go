package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobvengers/mapmate/internal/domain/shared"
)

// FallbackMessage is shown when the server rejected a request without a
// readable explanation.
const FallbackMessage = "The request failed. Please try again."

// Kind classifies gateway failures
type Kind int

const (
	// KindServerRejected means the server answered with a non-2xx status
	KindServerRejected Kind = iota + 1
	// KindUnreachable means the request never produced an HTTP response
	KindUnreachable
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindServerRejected:
		return "ServerRejected"
	case KindUnreachable:
		return "Unreachable"
	}
	return "Unknown"
}

// Error is returned by the gateway for every failed request
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface. For rejections this is exactly the
// message meant for the user.
func (e *Error) Error() string {
	if e.Kind == KindUnreachable {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", shared.ErrNetwork.Message, e.Err)
		}
		return shared.ErrNetwork.Message
	}
	return e.Message
}

// Unwrap returns the transport error, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets unreachable errors match shared.ErrNetwork
func (e *Error) Is(target error) bool {
	return e.Kind == KindUnreachable && target == shared.ErrNetwork
}

func rejected(method, path string, status int, body []byte) *Error {
	return &Error{
		Kind:       KindServerRejected,
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    rejectionMessage(body),
	}
}

func unreachable(method, path string, err error) *Error {
	return &Error{Kind: KindUnreachable, Method: method, Path: path, Err: err}
}

// rejectionMessage extracts the user-facing text from an error body. Plain
// text and JSON strings are shown verbatim; empty bodies, JSON objects, and
// any other JSON value fall back to the generic message.
func rejectionMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return FallbackMessage
	}
	if json.Valid(trimmed) {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
		return FallbackMessage
	}
	return string(trimmed)
}

// AsError returns the gateway error in err's chain
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsServerRejected reports whether the server answered with a non-2xx status
func IsServerRejected(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindServerRejected
}

// IsUnreachable reports whether the request failed before any response
func IsUnreachable(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindUnreachable
}

// IsConflict reports a 409 rejection, which the backend uses for duplicates
// such as a second application to the same post.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

// IsNotFound reports a 404 rejection
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status of a rejection, or 0
func StatusCode(err error) int {
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindServerRejected {
		return 0
	}
	return apiErr.StatusCode
}
