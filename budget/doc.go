// Package budget estimates the cost of generation requests and keeps the
// cumulative spend ledger.
//
// Estimation is pure: Estimate derives an amount from a request and a
// provider's price table. The Ledger records actual spend after successful
// calls and answers pre-flight checks against per-call limits and an
// optional global ceiling.
//
// # Soft limit
//
// Check and Commit are separate operations and nothing is reserved between
// them. Concurrent requests may each pass Check and together overshoot the
// global ceiling by up to the sum of their estimates. Callers needing a hard
// cap must serialize requests themselves.
package budget
