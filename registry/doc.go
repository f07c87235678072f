// Package registry owns the providers a process can generate with.
//
// A Registry binds each provider name to a factory, a resolved credential,
// a circuit breaker, a per-attempt resilience pipeline and aggregate call
// statistics. Adapters are constructed lazily on first use; concurrent first
// use constructs exactly one instance. The registry also owns the budget
// ledger shared by every provider.
//
// Select picks a provider for requests that do not name one: a preferred
// provider configured for the request kind wins unless it is disabled,
// otherwise the first capable provider whose circuit admits calls is used,
// or the cheapest one that fits the request's budget limit.
package registry
