package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means a provider or tool credential is absent or
	// still holds a placeholder value.
	ErrMissingCredential = errors.New("missing credential")
	// ErrUnsupportedProvider means the provider name is not a known kind.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// Error is a configuration error raised at construction time. It names the
// environment variable or provider value at fault.
type Error struct {
	Var      string
	Provider string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnsupportedProvider):
		return fmt.Sprintf("config: unsupported provider: %q", e.Provider)
	case e.Var != "":
		return fmt.Sprintf("config: %s not found in environment (%v)", e.Var, e.Err)
	default:
		return fmt.Sprintf("config: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// MissingCredential builds the error for an absent credential.
func MissingCredential(envVar string) error {
	return &Error{Var: envVar, Err: ErrMissingCredential}
}

// UnsupportedProvider builds the error for an unknown provider name.
func UnsupportedProvider(name string) error {
	return &Error{Provider: name, Err: ErrUnsupportedProvider}
}
