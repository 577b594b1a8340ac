package scrapbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotLoggedIn means the profile endpoint answered with a guest user.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrProfileUnavailable wraps any failure to fetch the profile.
	ErrProfileUnavailable = errors.New("failed to get profile")
)

// HTTPError is a response outside the 2xx range. Name and Message are taken
// from the JSON error body when the service sends one.
type HTTPError struct {
	Status     int
	StatusText string
	Name       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	s := fmt.Sprintf("HTTP %d %s", e.Status, e.StatusText)
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

// NetworkError means the request never produced a response.
type NetworkError struct {
	Message string
	URL     string
	Err     error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return ""
	}
	return "network error: " + e.Message
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AbortError means the request was cancelled or timed out.
type AbortError struct {
	Message string
	URL     string
	Err     error
}

func (e *AbortError) Error() string {
	if e == nil {
		return ""
	}
	return "request aborted: " + e.Message
}

func (e *AbortError) Unwrap() error { return e.Err }

// DecodeError means a response body was not the JSON we expected.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	return "decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind is the coarse class of a failure, used to pick user-facing messages
// and exit codes.
type Kind int

const (
	KindNone Kind = iota
	KindAuthRequired
	KindServer
	KindNetwork
	KindAborted
	KindDecode
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuthRequired:
		return "auth_required"
	case KindServer:
		return "server_error"
	case KindNetwork:
		return "network_error"
	case KindAborted:
		return "aborted"
	case KindDecode:
		return "decode_error"
	default:
		return "unknown"
	}
}

// Service error names that mean the session cannot write to the project.
var authErrorNames = map[string]bool{
	"NotLoggedInError":      true,
	"NotMemberError":        true,
	"NotPrivilegeEditError": true,
	"UnauthorizedError":     true,
}

// Classify maps err to a Kind by type. It never inspects message text.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrNotLoggedIn) {
		return KindAuthRequired
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusForbidden || authErrorNames[httpErr.Name] {
			return KindAuthRequired
		}
		return KindServer
	}
	var abortErr *AbortError
	if errors.As(err, &abortErr) {
		return KindAborted
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindAborted
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return KindDecode
	}
	return KindUnknown
}
