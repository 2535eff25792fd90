package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure so callers branch on it instead of message text.
type Kind int

const (
	// KindNone is reported for a nil error.
	KindNone Kind = iota
	// KindUnauthenticated means no token or an invalid/expired one (HTTP 401).
	KindUnauthenticated
	// KindUnverified means a valid token for an account that is not activated (HTTP 403).
	KindUnverified
	// KindValidation means a local pre-submit check failed; nothing was sent.
	KindValidation
	// KindRemote is a 4xx business error carrying a server-supplied message.
	KindRemote
	// KindTransport covers network errors, timeouts, 5xx and malformed payloads.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnverified:
		return "unverified"
	case KindValidation:
		return "validation"
	case KindRemote:
		return "remote"
	case KindTransport:
		return "transport"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Generic messages shown when the server did not supply one.
const (
	MsgUnauthenticated = "your session has expired, please log in again"
	MsgUnverified      = "please complete verification"
	MsgRemote          = "request was rejected"
	MsgTransport       = "something went wrong, please try again"
	MsgTimeout         = "the server took too long to respond"
)

// Error is the typed failure returned by every Client call.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	// Message is safe to show to the user.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err. Errors produced outside this package that
// declare themselves validation failures (a Validation() bool method) map to
// KindValidation; any other foreign error maps to KindTransport.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var v interface{ Validation() bool }
	if errors.As(err, &v) && v.Validation() {
		return KindValidation
	}
	return KindTransport
}

// MessageOf returns a user-facing message for err, falling back to fallback
// when err carries none.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var v interface{ Validation() bool }
	if errors.As(err, &v) && v.Validation() {
		return err.Error()
	}
	return fallback
}

// IsUnauthenticated reports whether err is a 401-class failure.
func IsUnauthenticated(err error) bool { return KindOf(err) == KindUnauthenticated }

// IsUnverified reports whether err is a 403-class failure.
func IsUnverified(err error) bool { return KindOf(err) == KindUnverified }

// parseError maps a non-2xx response onto an *Error.
func parseError(statusCode int, body []byte) *Error {
	msg := serverMessage(body)

	switch {
	case statusCode == http.StatusUnauthorized:
		return &Error{Kind: KindUnauthenticated, StatusCode: statusCode, Message: fallback(msg, MsgUnauthenticated)}
	case statusCode == http.StatusForbidden:
		return &Error{Kind: KindUnverified, StatusCode: statusCode, Message: fallback(msg, MsgUnverified)}
	case statusCode >= 400 && statusCode < 500:
		return &Error{Kind: KindRemote, StatusCode: statusCode, Message: fallback(msg, MsgRemote)}
	default:
		return &Error{Kind: KindTransport, StatusCode: statusCode, Message: MsgTransport}
	}
}

// serverMessage extracts {"error": "..."} or {"message": "..."} from body.
func serverMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Error) > 0 {
		var s string
		if err := json.Unmarshal(payload.Error, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return strings.TrimSpace(payload.Message)
}

func fallback(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
