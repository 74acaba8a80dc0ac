package particle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors returned by the Particle client.
// All errors are defined here for easy discovery and consistent organization.
var (
	// Authentication errors
	ErrNoCredentials = errors.New("particle: no credentials")
	ErrEmptyToken    = errors.New("particle: access token cannot be empty")

	// Outcome classes. Every failed call matches exactly one of these.
	ErrRequestFailed   = errors.New("particle: request failed")
	ErrRequestTimeout  = errors.New("particle: request timeout")
	ErrInvalidResponse = errors.New("particle: invalid response")
	ErrAPI             = errors.New("particle: api error")
	ErrActionFailed    = errors.New("particle: action failed")

	// Request validation errors
	ErrEmptyPath     = errors.New("particle: request path cannot be empty")
	ErrInvalidMethod = errors.New("particle: unsupported request method")

	// Device validation errors
	ErrEmptyDeviceID   = errors.New("particle: device ID cannot be empty")
	ErrEmptyDeviceName = errors.New("particle: device name cannot be empty")
	ErrEmptyVariable   = errors.New("particle: variable name cannot be empty")
	ErrEmptyFunction   = errors.New("particle: function name cannot be empty")

	// Event validation errors
	ErrEmptyEventName = errors.New("particle: event name cannot be empty")

	// Token validation errors
	ErrEmptyAccessToken = errors.New("particle: access token to delete cannot be empty")

	// Stream errors
	ErrStreamClosed = errors.New("particle: event stream closed")
)

// ErrorKind identifies which member of the error taxonomy an error belongs to.
type ErrorKind int

const (
	// KindNone is returned for nil errors and errors outside the taxonomy.
	KindNone ErrorKind = iota
	KindNoCredentials
	KindRequestFailed
	KindRequestTimeout
	KindInvalidResponse
	KindAPI
	KindActionFailed
)

// String returns the human-readable name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNoCredentials:
		return "no credentials"
	case KindRequestFailed:
		return "request failed"
	case KindRequestTimeout:
		return "request timeout"
	case KindInvalidResponse:
		return "invalid response"
	case KindAPI:
		return "api error"
	case KindActionFailed:
		return "action failed"
	default:
		return "none"
	}
}

// KindOf classifies err. The checks run in taxonomy order so the first match wins.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNoCredentials):
		return KindNoCredentials
	case errors.Is(err, ErrRequestTimeout):
		return KindRequestTimeout
	case errors.Is(err, ErrRequestFailed):
		return KindRequestFailed
	case errors.Is(err, ErrInvalidResponse):
		return KindInvalidResponse
	case errors.Is(err, ErrAPI):
		return KindAPI
	case errors.Is(err, ErrActionFailed):
		return KindActionFailed
	default:
		return KindNone
	}
}

// RequestError is a transport-level failure: no HTTP response was received.
type RequestError struct {
	// Timeout is true when the request was aborted by its deadline or the
	// connection was reset underneath it.
	Timeout bool
	Err     error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	msg := "particle: request failed"
	if e.Timeout {
		msg = "particle: request timeout"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying transport error.
func (e *RequestError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match ErrRequestTimeout or ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	if e.Timeout {
		return target == ErrRequestTimeout
	}
	return target == ErrRequestFailed
}

// InvalidResponseError reports a response body that could not be decoded as JSON.
type InvalidResponseError struct {
	StatusCode int
	Body       string // truncated preview
	Err        error
}

// Error implements the error interface.
func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("particle: invalid response (status %d): %v (body: %s)", e.StatusCode, e.Err, e.Body)
}

// Unwrap returns the JSON decoding error.
func (e *InvalidResponseError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match ErrInvalidResponse.
func (e *InvalidResponseError) Is(target error) bool { return target == ErrInvalidResponse }

// APIError represents an error response from the Particle API.
type APIError struct {
	StatusCode  int
	Code        int    // provider "code" field, 0 when absent
	ErrorCode   string // provider "error" field, e.g. "invalid_token"
	Description string // provider "error_description" field
	Info        string // provider "info" field

	// RetryAfter is the wait requested by a 429 reply's Retry-After header.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "particle: API error %d", e.StatusCode)
	if e.ErrorCode != "" {
		b.WriteString(": " + e.ErrorCode)
	}
	if e.Description != "" {
		b.WriteString(" - " + e.Description)
	} else if e.Info != "" {
		b.WriteString(" - " + e.Info)
	}
	return b.String()
}

// Is allows errors.Is() to match ErrAPI.
func (e *APIError) Is(target error) bool { return target == ErrAPI }

// ActionFailedError is returned when an otherwise successful response carries
// the failure sentinel. Data holds the decoded payload for inspection.
type ActionFailedError struct {
	Field string
	Value float64
	Data  any
}

// Error implements the error interface.
func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("particle: action failed (%s = %v)", e.Field, e.Value)
}

// Is allows errors.Is() to match ErrActionFailed.
func (e *ActionFailedError) Is(target error) bool { return target == ErrActionFailed }

// IsNoCredentials returns true if the call was refused before any request was sent.
func IsNoCredentials(err error) bool {
	return errors.Is(err, ErrNoCredentials)
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrRequestTimeout) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsAPIError returns true if the API answered with an error payload or status.
func IsAPIError(err error) bool {
	return errors.Is(err, ErrAPI)
}

// IsActionFailed returns true if the response carried the failure sentinel.
func IsActionFailed(err error) bool {
	return errors.Is(err, ErrActionFailed)
}

// IsUnauthorized returns true if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.ErrorCode == "invalid_token"
	}
	return false
}

// IsNotFound returns true if the error indicates the resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}
