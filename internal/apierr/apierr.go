// Package apierr holds the error variants raised by the details API client.
//
// Each variant carries an explicit Kind tag. Retry classification compares
// tags and concrete types of a single error value, so a wrapper and the
// cause it wraps are never confused with each other.
package apierr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindAPI  Kind = "api"
	KindHTTP Kind = "http"
	KindSDK  Kind = "sdk"
)

type Severity string

const (
	SeverityError   Severity = "Error"
	SeverityWarning Severity = "Warning"
)

// ErrorDetail is one structured sub-error reported by the API.
type ErrorDetail struct {
	Code         string   `json:"errorCode"`
	Severity     Severity `json:"severityCode"`
	ShortMessage string   `json:"shortMessage,omitempty"`
	LongMessage  string   `json:"longMessage,omitempty"`
}

// Kinded is implemented by every error variant of this package.
type Kinded interface {
	error
	Kind() Kind
}

// APIError is the domain-level failure of an API call. It may wrap the
// transport error that caused it.
type APIError struct {
	Errors []ErrorDetail
	Err    error
}

func (e *APIError) Kind() Kind { return KindAPI }

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string
	for _, d := range e.Errors {
		if d.Severity != SeverityError {
			continue
		}
		msg := d.ShortMessage
		if msg == "" {
			msg = d.LongMessage
		}
		parts = append(parts, fmt.Sprintf("%s: %s", d.Code, msg))
	}

	switch {
	case len(parts) > 0 && e.Err != nil:
		return fmt.Sprintf("api error [%s]: %v", strings.Join(parts, "; "), e.Err)
	case len(parts) > 0:
		return fmt.Sprintf("api error [%s]", strings.Join(parts, "; "))
	case e.Err != nil:
		return fmt.Sprintf("api error: %v", e.Err)
	default:
		return "api error"
	}
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HasErrors reports whether any sub-error has Error severity.
func (e *APIError) HasErrors() bool {
	if e == nil {
		return false
	}
	for _, d := range e.Errors {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HTTPError is a transport failure. StatusCode is 0 when no response was
// received (timeout, refused connection...).
type HTTPError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *HTTPError) Kind() Kind { return KindHTTP }

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("transport error: %v", e.Err)
		}
		return "transport error"
	}
	if len(e.Body) > 0 {
		return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, truncate(e.Body, 256))
	}
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Error is the generic variant: an arbitrary kind tag with a message and an
// optional cause. KindSDK is used for client-side failures.
type Error struct {
	K   Kind
	Msg string
	Err error
}

func New(kind Kind, msg string, cause error) *Error {
	return &Error{K: kind, Msg: msg, Err: cause}
}

// SDK builds a KindSDK error.
func SDK(msg string, cause error) *Error {
	return New(KindSDK, msg, cause)
}

func (e *Error) Kind() Kind {
	if e == nil {
		return ""
	}
	return e.K
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.K, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.K, e.Msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the tag of err itself. The chain is not inspected and
// nil pointers carry no tag.
func KindOf(err error) (Kind, bool) {
	switch v := err.(type) {
	case *APIError:
		if v == nil {
			return "", false
		}
	case *HTTPError:
		if v == nil {
			return "", false
		}
	case *Error:
		if v == nil {
			return "", false
		}
	}
	k, ok := err.(Kinded)
	if !ok || k == nil {
		return "", false
	}
	kind := k.Kind()
	return kind, kind != ""
}

// StatusCode returns the transport status found anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode, true
	}
	return 0, false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
