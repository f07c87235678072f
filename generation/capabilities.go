package generation

import (
	"slices"
	"time"
)

// Capabilities is the static description of what a provider can do.
// Adapters supply it at construction; the orchestrator never mutates it.
type Capabilities struct {
	// Kinds lists supported generation kinds.
	Kinds []Kind

	// Models lists supported model names. Empty means any model.
	Models []string

	// Pricing maps model name to its base price per unit (per image, per
	// 5 seconds of video, per 1K tokens...). The empty key is the default.
	Pricing map[string]float64

	// MaxWidth and MaxHeight bound image dimensions. Zero means unbounded.
	MaxWidth  int
	MaxHeight int

	// MaxDuration bounds video/audio length. Zero means unbounded.
	MaxDuration time.Duration
}

// SupportsKind reports whether kind is supported.
func (c Capabilities) SupportsKind(kind Kind) bool {
	return slices.Contains(c.Kinds, kind)
}

// SupportsModel reports whether model is supported. An empty model is
// always accepted.
func (c Capabilities) SupportsModel(model string) bool {
	if model == "" || len(c.Models) == 0 {
		return true
	}
	return slices.Contains(c.Models, model)
}

// Price returns the base price for model, falling back to the default entry.
func (c Capabilities) Price(model string) (float64, bool) {
	if c.Pricing == nil {
		return 0, false
	}
	if p, ok := c.Pricing[model]; ok {
		return p, true
	}
	if p, ok := c.Pricing[""]; ok {
		return p, true
	}
	return 0, false
}

// Validate checks req against the capabilities. Failures are ValidationErrors.
func (c Capabilities) Validate(provider string, req Request) error {
	if !req.Kind.Valid() {
		return Errorf(ClassValidation, provider, "unknown generation kind %q", req.Kind)
	}
	if !c.SupportsKind(req.Kind) {
		return Errorf(ClassValidation, provider, "kind %q is not supported", req.Kind)
	}
	if !c.SupportsModel(req.Model) {
		return Errorf(ClassValidation, provider, "model %q is not supported", req.Model)
	}
	if req.BudgetLimit < 0 {
		return Errorf(ClassValidation, provider, "budget limit must not be negative")
	}

	if err := checkDimension(provider, req, ParamWidth, c.MaxWidth); err != nil {
		return err
	}
	if err := checkDimension(provider, req, ParamHeight, c.MaxHeight); err != nil {
		return err
	}

	if d, ok := req.FloatParam(ParamDuration); ok {
		if d <= 0 {
			return Errorf(ClassValidation, provider, "duration must be positive, got %v", d)
		}
		if c.MaxDuration > 0 && d > c.MaxDuration.Seconds() {
			return Errorf(ClassValidation, provider, "duration %vs exceeds maximum %v", d, c.MaxDuration)
		}
	}

	if n := req.Count(); n < 1 || n > MaxCount {
		return Errorf(ClassValidation, provider, "count must be between 1 and %d, got %d", MaxCount, n)
	}
	return nil
}

func checkDimension(provider string, req Request, key string, limit int) error {
	v, ok := req.FloatParam(key)
	if !ok {
		return nil
	}
	if v <= 0 {
		return Errorf(ClassValidation, provider, "%s must be positive, got %v", key, v)
	}
	if limit > 0 && v > float64(limit) {
		return Errorf(ClassValidation, provider, "%s %v exceeds maximum %d", key, v, limit)
	}
	return nil
}
