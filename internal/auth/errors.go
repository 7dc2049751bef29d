package auth

import "errors"

// Errors returned while waiting for an authorization code. Returned errors
// wrap one of these, so callers match them with errors.Is.
var (
	// ErrDuplicateWait is returned when a wait is registered for a nonce
	// that already has one pending.
	ErrDuplicateWait = errors.New("already waiting for nonce")

	// ErrUnexpectedExchange is returned when a code arrives for a nonce with
	// no pending wait (unknown, replayed, or already settled).
	ErrUnexpectedExchange = errors.New("unexpected code exchange received")

	// ErrCancelledByUser is returned when the wait's context is cancelled
	// before a code arrives.
	ErrCancelledByUser = errors.New("authentication was cancelled by the user")

	// ErrTimeoutExceeded is returned when no code arrives within the
	// exchange timeout.
	ErrTimeoutExceeded = errors.New("exchange timeout exceeded")

	// ErrMalformedRedirect is returned when a redirect lacks the nonce or
	// the code.
	ErrMalformedRedirect = errors.New("malformed redirect")

	// ErrDisposed is returned for every wait pending when the CodeManager
	// is disposed, and for every wait attempted afterwards.
	ErrDisposed = errors.New("authentication provider has been disposed")
)
