package registry

import "errors"

var (
	// ErrInvalidName is returned when registering an empty provider name.
	ErrInvalidName = errors.New("registry: provider name is required")

	// ErrNilFactory is returned when registering a nil factory.
	ErrNilFactory = errors.New("registry: factory is nil")

	// ErrDuplicateProvider is returned when a name is registered twice.
	ErrDuplicateProvider = errors.New("registry: provider already registered")

	// ErrNilAdapter is returned when a factory yields a nil adapter.
	ErrNilAdapter = errors.New("registry: factory returned nil adapter")
)
