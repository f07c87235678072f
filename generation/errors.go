package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/genops/resilience"
)

// Class is the failure category of a generation error.
type Class int

const (
	// ClassUnknown is an error outside the taxonomy. It is not retried.
	ClassUnknown Class = iota
	// ClassValidation means the request is structurally invalid.
	ClassValidation
	// ClassBudgetExceeded means the estimate exceeds a per-call or global budget.
	ClassBudgetExceeded
	// ClassAuthentication means the provider rejected the credentials.
	ClassAuthentication
	// ClassRateLimit means the provider (or the local limiter) throttled the call.
	ClassRateLimit
	// ClassTransient covers timeouts, network failures and 5xx responses.
	ClassTransient
	// ClassProviderUnavailable means the provider's circuit is open.
	ClassProviderUnavailable
	// ClassUnknownProvider means no factory is registered under the name.
	ClassUnknownProvider
	// ClassDisabled means an operator disabled the provider.
	ClassDisabled
	// ClassNoProviderAvailable means selection found no candidate.
	ClassNoProviderAvailable
	// ClassCanceled means the caller abandoned the request.
	ClassCanceled
)

var classNames = map[Class]string{
	ClassUnknown:             "unknown",
	ClassValidation:          "validation",
	ClassBudgetExceeded:      "budget_exceeded",
	ClassAuthentication:      "authentication",
	ClassRateLimit:           "rate_limit",
	ClassTransient:           "transient",
	ClassProviderUnavailable: "provider_unavailable",
	ClassUnknownProvider:     "unknown_provider",
	ClassDisabled:            "disabled",
	ClassNoProviderAvailable: "no_provider_available",
	ClassCanceled:            "canceled",
}

// String returns the snake_case class name.
func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}

// Retryable reports whether errors of this class are retried.
func (c Class) Retryable() bool {
	return c == ClassRateLimit || c == ClassTransient
}

// Sentinel errors, one per class. errors.Is(err, ErrBudgetExceeded) matches
// any *Error of that class.
var (
	ErrUnknown             = errors.New("generation: unknown error")
	ErrValidation          = errors.New("generation: validation error")
	ErrBudgetExceeded      = errors.New("generation: budget exceeded")
	ErrAuthentication      = errors.New("generation: authentication error")
	ErrRateLimit           = errors.New("generation: rate limited")
	ErrTransient           = errors.New("generation: transient error")
	ErrProviderUnavailable = errors.New("generation: provider unavailable")
	ErrUnknownProvider     = errors.New("generation: unknown provider")
	ErrDisabled            = errors.New("generation: provider disabled")
	ErrNoProviderAvailable = errors.New("generation: no provider available")
	ErrCanceled            = errors.New("generation: canceled")
)

var classSentinels = map[Class]error{
	ClassUnknown:             ErrUnknown,
	ClassValidation:          ErrValidation,
	ClassBudgetExceeded:      ErrBudgetExceeded,
	ClassAuthentication:      ErrAuthentication,
	ClassRateLimit:           ErrRateLimit,
	ClassTransient:           ErrTransient,
	ClassProviderUnavailable: ErrProviderUnavailable,
	ClassUnknownProvider:     ErrUnknownProvider,
	ClassDisabled:            ErrDisabled,
	ClassNoProviderAvailable: ErrNoProviderAvailable,
	ClassCanceled:            ErrCanceled,
}

// Error is a classified generation failure.
type Error struct {
	Class    Class
	Provider string
	Message  string

	// RetryAfter is a provider hint for rate-limit errors (optional).
	RetryAfter time.Duration

	// Err is the underlying cause (optional).
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: provider %q: %s", e.Class, e.Provider, msg)
	}
	return fmt.Sprintf("%s: %s", e.Class, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's class.
func (e *Error) Is(target error) bool {
	return classSentinels[e.Class] == target
}

// NewError creates a classified error wrapping err.
func NewError(class Class, provider string, err error) *Error {
	e := &Error{Class: class, Provider: provider, Err: err}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// Errorf creates a classified error with a formatted message.
func Errorf(class Class, provider, format string, args ...any) *Error {
	return &Error{Class: class, Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// FromStatus classifies an HTTP status returned by a provider.
func FromStatus(provider string, status int, message string) *Error {
	class := ClassUnknown
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		class = ClassValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		class = ClassAuthentication
	case status == http.StatusTooManyRequests:
		class = ClassRateLimit
	case status == http.StatusRequestTimeout:
		class = ClassTransient
	case status >= 500 && status <= 599:
		class = ClassTransient
	}
	if message == "" {
		message = fmt.Sprintf("status %d %s", status, http.StatusText(status))
	}
	return &Error{Class: class, Provider: provider, Message: message}
}

// Message vocabularies used when an error carries no tag. Checked in order.
var (
	authVocabulary = []string{
		"unauthorized", "invalid api key", "invalid_api_key", "authentication", "permission denied", "forbidden",
	}
	rateLimitVocabulary = []string{
		"rate limit", "ratelimit", "rate_limit", "too many requests", "quota exceeded",
	}
	transientVocabulary = []string{
		"timeout", "timed out", "connection", "network", "service unavailable", "temporarily unavailable",
		"bad gateway", "gateway timeout", "internal server error", "502", "503", "504",
	}
)

// ClassOf classifies err. Tagged errors are classified by their tag; the
// message vocabulary is only a fallback for untagged errors.
func ClassOf(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Class
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, resilience.ErrTimeout),
		errors.Is(err, resilience.ErrBulkheadFull):
		return ClassTransient
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return ClassRateLimit
	case errors.Is(err, resilience.ErrCircuitOpen):
		return ClassProviderUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, authVocabulary):
		return ClassAuthentication
	case containsAny(msg, rateLimitVocabulary):
		return ClassRateLimit
	case containsAny(msg, transientVocabulary):
		return ClassTransient
	}
	return ClassUnknown
}

// ShouldRetry reports whether err is worth another attempt.
func ShouldRetry(err error) bool {
	return ClassOf(err).Retryable()
}

// IsRateLimited reports whether err is a rate-limit error.
func IsRateLimited(err error) bool {
	return ClassOf(err) == ClassRateLimit
}

// RetryAfter returns the provider's retry hint carried by err, if any.
func RetryAfter(err error) time.Duration {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.RetryAfter
	}
	return 0
}

// Classify returns err as an *Error, classifying untagged errors.
func Classify(provider string, err error) *Error {
	if err == nil {
		return nil
	}
	var genErr *Error
	if errors.As(err, &genErr) {
		if genErr.Provider == "" && provider != "" {
			clone := *genErr
			clone.Provider = provider
			return &clone
		}
		return genErr
	}
	return NewError(ClassOf(err), provider, err)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
