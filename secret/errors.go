package secret

import "errors"

var (
	// ErrMissingEnv is returned when a ${VAR} reference names an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrProviderNotRegistered is returned for a reference to an unknown provider.
	ErrProviderNotRegistered = errors.New("secret: provider not registered")

	// ErrEmptySecret is returned in strict mode when a provider resolves to "".
	ErrEmptySecret = errors.New("secret: resolved to empty value")

	// ErrInvalidRef is returned for a malformed secretref.
	ErrInvalidRef = errors.New("secret: invalid secret reference")
)
