package config

import (
	"fmt"
	"net/url"
	"strings"

	"colabauth/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the settings every sign-in needs.
func (c Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.OAuth.ClientID) == "" {
		errs.Add("oauth.clientId", "is required")
	}
	validateAbsoluteURL(&errs, "oauth.authUrl", c.OAuth.AuthURL)
	validateAbsoluteURL(&errs, "oauth.tokenUrl", c.OAuth.TokenURL)
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Add("logLevel", err.Error(), c.LogLevel)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidateProxied checks the settings the proxied redirect flow needs.
func (c Config) ValidateProxied() error {
	var errs ValidationErrors

	validateAbsoluteURL(&errs, "redirect.proxyUrl", c.Redirect.ProxyURL)
	if u, err := url.Parse(c.Redirect.CallbackURI); err != nil || u.Scheme == "" {
		errs.Add("redirect.callbackUri", "must be a URI with a scheme", c.Redirect.CallbackURI)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateAbsoluteURL(errs *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "is required")
		return
	}
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || u.Host == "" {
		errs.Add(field, "must be an absolute URL", value)
	}
}
