package generation

import "context"

// Adapter performs generation calls against one external provider.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: Perform should honor cancellation/deadlines.
//   - Errors: Perform must not retry and should return *Error values (or
//     errors with recognizable messages) so failures can be classified.
//   - Cost: adapters must not charge for failed calls.
type Adapter interface {
	// Capabilities returns the static capability description. Pure, no I/O.
	Capabilities() Capabilities

	// Perform executes the generation call.
	Perform(ctx context.Context, req Request) (*Result, error)
}

// Factory constructs an adapter from a resolved API credential.
type Factory func(credential string) (Adapter, error)

// AdapterFunc adapts a capability set and a function to the Adapter interface.
type AdapterFunc struct {
	Caps Capabilities
	Fn   func(ctx context.Context, req Request) (*Result, error)
}

// Capabilities returns the configured capabilities.
func (a AdapterFunc) Capabilities() Capabilities {
	return a.Caps
}

// Perform calls Fn.
func (a AdapterFunc) Perform(ctx context.Context, req Request) (*Result, error) {
	return a.Fn(ctx, req)
}

var _ Adapter = AdapterFunc{}
