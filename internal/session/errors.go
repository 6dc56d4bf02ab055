package session

import (
	"errors"

	"credmint/internal/proofrequest"
)

// ErrorKind classifies why an attempt ended in StatusFailed.
type ErrorKind string

const (
	// KindConfigFetch: the config endpoint did not return a usable configuration.
	KindConfigFetch ErrorKind = "config_fetch"
	// KindProofRequest: the proof request could not be built, triggered or started.
	KindProofRequest ErrorKind = "proof_request"
	// KindProvider: the proof service reported the session failed.
	KindProvider ErrorKind = "provider"
	// KindValidation: a proof arrived but was structurally rejected.
	KindValidation ErrorKind = "validation"
	// KindTimeout: the companion-device step did not finish in time.
	KindTimeout ErrorKind = "timeout"
)

// Error is returned by Start and recorded in the snapshot when an attempt fails.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a session error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

var (
	// ErrSuperseded is returned by Start when the attempt was cancelled or
	// replaced before it finished starting. State is left to the newer call.
	ErrSuperseded = errors.New("verification attempt was cancelled")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("verification controller closed")
)

const (
	msgConfigFetch = "Failed to fetch verification config"
	msgFlow        = "An error occurred during verification"
	msgProvider    = "Verification failed"
	msgValidation  = "Proof verification failed"
	msgTimeout     = "Verification timed out waiting for the mobile device"
)

// humanMessage prefers the message a collaborator meant for the user.
func humanMessage(err error, fallback string) string {
	var fe *proofrequest.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	var se *proofrequest.SessionError
	if errors.As(err, &se) {
		return se.Error()
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
