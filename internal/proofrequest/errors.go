package proofrequest

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies proof-service failures so callers can decide on
// retries without inspecting messages.
type ErrorCategory string

const (
	ErrorTimeout       ErrorCategory = "timeout"
	ErrorOutage        ErrorCategory = "outage"
	ErrorRateLimited   ErrorCategory = "rate_limited"
	ErrorBadData       ErrorCategory = "bad_data"
	ErrorNotConfigured ErrorCategory = "not_configured"
	ErrorRejected      ErrorCategory = "rejected"
	ErrorInternal      ErrorCategory = "internal"
)

// FetchError wraps failures talking to the config endpoint or the status URL.
type FetchError struct {
	Category   ErrorCategory
	Provider   string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Underlying
}

// NewFetchError sets Retryable for timeout, outage and rate-limited failures.
func NewFetchError(category ErrorCategory, provider, message string, underlying error) *FetchError {
	return &FetchError{
		Category:   category,
		Provider:   provider,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout || category == ErrorOutage || category == ErrorRateLimited,
	}
}

// IsRetryable reports whether err is a retryable FetchError.
func IsRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// SessionError is reported through Callbacks.OnError when the proof service
// marks a session failed (declined, expired on the device, ...).
type SessionError struct {
	SessionID string
	Message   string
}

func (e *SessionError) Error() string {
	if e.Message == "" {
		return "Verification failed"
	}
	return e.Message
}

var (
	ErrInvalidConfig    = errors.New("invalid proof request config")
	ErrSessionStarted   = errors.New("session already started")
	ErrNoResolution     = errors.New("proof request has neither a status URL nor a callback inbox")
	ErrUnknownSession   = errors.New("no pending session for id")
	ErrDuplicateSession = errors.New("session already awaiting a callback")
	ErrAlreadyDelivered = errors.New("session result already delivered")
	ErrMissingCallbacks = errors.New("both OnSuccess and OnError callbacks are required")
)
