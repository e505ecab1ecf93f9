package providers

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrMissingCredential = errors.New("missing credential")
	ErrIncompleteProfile = errors.New("incomplete provider profile")
)

// UnknownProviderError is returned by Registry.Select for a tag that is not
// registered. It is a configuration error and is never retried.
type UnknownProviderError struct {
	Tag       string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("providers: unknown provider %q", e.Tag)
	}
	return fmt.Sprintf("providers: unknown provider %q; must be one of: %s",
		e.Tag, strings.Join(e.Available, ", "))
}

func (e *UnknownProviderError) Unwrap() error { return ErrUnknownProvider }

// MissingCredentialError is returned when the credential variable of a
// profile is unset or empty. No network call may be attempted in this state.
type MissingCredentialError struct {
	Provider string
	EnvVar   string
}

func (e *MissingCredentialError) Error() string {
	if e.EnvVar == "" {
		return fmt.Sprintf("providers: %s: no API key configured", e.Provider)
	}
	return fmt.Sprintf("providers: %s: environment variable %s is not set", e.Provider, e.EnvVar)
}

func (e *MissingCredentialError) Unwrap() error { return ErrMissingCredential }

// IncompleteProfileError is returned when a profile without static defaults
// (the custom profile) is materialized without the required overrides.
type IncompleteProfileError struct {
	Provider string
	Missing  []string
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("providers: %s: missing %s", e.Provider, strings.Join(e.Missing, ", "))
}

func (e *IncompleteProfileError) Unwrap() error { return ErrIncompleteProfile }
