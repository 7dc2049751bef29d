package cmd

import (
	"fmt"

	"colabauth/internal/signin"
)

// AuthFailedError indicates the sign-in failed.
type AuthFailedError struct {
	// Flow is the flow that was used.
	Flow string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Sign-in using the %s flow failed: %v

To retry, run:
  colab-auth login --flow %s`, e.Flow, e.Reason, e.Flow)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// AuthCancelledError indicates the user cancelled the sign-in.
type AuthCancelledError struct {
	Reason error
}

func (e *AuthCancelledError) Error() string {
	return "Sign-in was cancelled."
}

// Unwrap returns the underlying error.
func (e *AuthCancelledError) Unwrap() error {
	return e.Reason
}

// AuthTimeoutError indicates no authorization code arrived in time.
type AuthTimeoutError struct {
	Reason error
}

func (e *AuthTimeoutError) Error() string {
	return fmt.Sprintf(`Sign-in timed out: %v

Complete the sign-in in the browser promptly after running:
  colab-auth login`, e.Reason)
}

// Unwrap returns the underlying error.
func (e *AuthTimeoutError) Unwrap() error {
	return e.Reason
}

// signInError wraps an error returned by a sign-in in the type matching its
// outcome.
func signInError(flow string, err error) error {
	if err == nil {
		return nil
	}
	switch signin.Classify(err) {
	case signin.OutcomeCancelled:
		return &AuthCancelledError{Reason: err}
	case signin.OutcomeTimedOut:
		return &AuthTimeoutError{Reason: err}
	default:
		return &AuthFailedError{Flow: flow, Reason: err}
	}
}
