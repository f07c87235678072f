// Package generation defines the value types and contracts shared by the
// orchestration layer and provider adapters.
//
// A Request describes one generation call (prompt, kind, model, parameters and
// an optional per-call budget). An Adapter performs the call against a single
// external provider and reports a Result. Failures are expressed as *Error
// values carrying a Class from a closed taxonomy so that retry and circuit
// breaker decisions dispatch on the tag rather than on error text.
//
// # Adapter Contract
//
//	type Adapter interface {
//	    Capabilities() Capabilities
//	    Perform(ctx context.Context, req Request) (*Result, error)
//	}
//
// Adapters must not retry or track health themselves. Errors they return
// should be *Error values (see FromStatus) or at least carry a recognizable
// message so ClassOf can classify them.
package generation
