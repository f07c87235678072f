package budget

import (
	"math"

	"github.com/jonwraymond/genops/generation"
)

// Breakdown component names.
const (
	ComponentBase       = "base"
	ComponentResolution = "resolution_modifier"
	ComponentDuration   = "duration_modifier"
	ComponentCount      = "count_modifier"
)

const (
	// PricedConfidence is reported when a price table entry exists.
	PricedConfidence = 0.9

	// ExactConfidence is reported when no price exists and the cost is zero.
	ExactConfidence = 1.0

	// ReferencePixels is the resolution the image base price covers (1024x1024).
	ReferencePixels = 1024 * 1024

	// ReferenceSeconds is the clip length the video base price covers.
	ReferenceSeconds = 5
)

// Estimate is a pre-flight cost estimate.
type Estimate struct {
	// Amount is the estimated cost in USD, rounded to the micro-dollar.
	Amount float64 `json:"amount"`

	// Confidence is 0.9 for priced models and 1.0 when the cost is zero by definition.
	Confidence float64 `json:"confidence"`

	// Breakdown lists the named components summing to Amount.
	Breakdown map[string]float64 `json:"breakdown"`
}

// EstimateCost prices req using caps.
//
// The base price is scaled by resolution for images relative to 1024x1024,
// by duration for videos longer than 5 seconds, and by the requested count.
// Each adjustment appears as its own breakdown component.
func EstimateCost(req generation.Request, caps generation.Capabilities) Estimate {
	base, ok := caps.Price(req.Model)
	if !ok {
		return Estimate{
			Amount:     0,
			Confidence: ExactConfidence,
			Breakdown:  map[string]float64{ComponentBase: 0},
		}
	}

	est := Estimate{
		Confidence: PricedConfidence,
		Breakdown:  map[string]float64{ComponentBase: base},
	}
	subtotal := base

	if req.Kind == generation.KindImage {
		w, wok := req.FloatParam(generation.ParamWidth)
		h, hok := req.FloatParam(generation.ParamHeight)
		if wok && hok {
			mod := base * ((w*h)/ReferencePixels - 1)
			est.Breakdown[ComponentResolution] = mod
			subtotal += mod
		}
	}

	if req.Kind == generation.KindVideo {
		if d, ok := req.FloatParam(generation.ParamDuration); ok && d > ReferenceSeconds {
			mod := base * (d/ReferenceSeconds - 1)
			est.Breakdown[ComponentDuration] = mod
			subtotal += mod
		}
	}

	if n := req.Count(); n > 1 {
		mod := subtotal * float64(n-1)
		est.Breakdown[ComponentCount] = mod
		subtotal += mod
	}

	est.Amount = roundMicros(subtotal)
	return est
}

func roundMicros(v float64) float64 {
	return float64(toMicros(v)) / microsPerDollar
}

const microsPerDollar = 1e6

// MaxAmount is the largest amount the ledger can represent. Larger and
// non-finite amounts saturate to it.
const MaxAmount = math.MaxInt64 / microsPerDollar

// toMicros converts dollars to micro-dollars, saturating at the int64
// range. NaN saturates high so it can never pass a budget check.
func toMicros(v float64) int64 {
	m := math.Round(v * microsPerDollar)
	switch {
	case math.IsNaN(m), m >= math.MaxInt64:
		return math.MaxInt64
	case m <= math.MinInt64:
		return math.MinInt64
	}
	return int64(m)
}

func addMicros(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func fromMicros(m int64) float64 {
	return float64(m) / microsPerDollar
}
