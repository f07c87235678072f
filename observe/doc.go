// Package observe provides observability primitives for generation calls.
//
// It sets up OpenTelemetry tracing and metrics, provides a JSON structured
// logger with redaction of credentials and prompts, and a Middleware that
// wraps one orchestrated generation call with a span, metrics and a log line.
// No provider I/O happens here.
package observe
