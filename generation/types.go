package generation

import (
	"fmt"
	"maps"
	"math"
	"strconv"
	"time"
)

// Kind is the type of content a request asks for.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindText  Kind = "text"
)

// Kinds lists every supported generation kind.
var Kinds = []Kind{KindImage, KindVideo, KindAudio, KindText}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindText:
		return true
	default:
		return false
	}
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown generation kind: %q", s)
	}
	return k, nil
}

// Well-known parameter keys understood by the estimator and validator.
const (
	ParamWidth    = "width"
	ParamHeight   = "height"
	ParamDuration = "duration" // seconds
	ParamCount    = "count"
	ParamN        = "n"
)

// MaxCount is the largest number of outputs one request may ask for.
const MaxCount = 100

// Request is a single generation call. Treat it as immutable once submitted.
type Request struct {
	// ID identifies the call. Assigned by the orchestrator when empty.
	ID string

	// Prompt is the free-text prompt.
	Prompt string

	// Kind is the requested generation kind.
	Kind Kind

	// Provider optionally pins the call to a provider. When empty the
	// registry selects one.
	Provider string

	// Model optionally names the model.
	Model string

	// Parameters is an open set of provider parameters.
	Parameters map[string]any

	// BudgetLimit is the per-call ceiling in USD. Zero means no limit.
	BudgetLimit float64

	// ProjectID attributes spend to a project (optional).
	ProjectID string
}

// Clone returns a copy of r with its own parameter map.
func (r Request) Clone() Request {
	r.Parameters = maps.Clone(r.Parameters)
	return r
}

// HasBudgetLimit reports whether a per-call limit is set.
func (r Request) HasBudgetLimit() bool {
	return r.BudgetLimit > 0
}

// FloatParam returns a numeric parameter. Numbers, numeric strings and
// durations (as seconds) are accepted.
func (r Request) FloatParam(key string) (float64, bool) {
	v, ok := r.Parameters[key]
	if !ok || v == nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case time.Duration:
		f = n.Seconds()
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Count returns the number of outputs requested, defaulting to 1.
func (r Request) Count() int {
	for _, key := range []string{ParamCount, ParamN} {
		if f, ok := r.FloatParam(key); ok {
			return int(max(min(f, math.MaxInt32), math.MinInt32))
		}
	}
	return 1
}

// Result is the outcome of one orchestrated generation call.
type Result struct {
	RequestID string

	// Success is true when the provider produced content.
	Success bool

	// Cost is the actual cost in USD, nil when the provider did not report one.
	Cost *float64

	// Elapsed is the total wall time, including retries.
	Elapsed time.Duration

	// Metadata is free-form provider output (URLs, token usage, seeds...).
	Metadata map[string]any

	// Error describes the failure when Success is false.
	Error string

	Provider    string
	Model       string
	CompletedAt time.Time
}

// CostOr returns the reported cost or fallback when none was reported.
func (r *Result) CostOr(fallback float64) float64 {
	if r == nil || r.Cost == nil {
		return fallback
	}
	return *r.Cost
}

// Amount returns a pointer to v, for populating Result.Cost.
func Amount(v float64) *float64 {
	return &v
}
