package budget

import (
	"testing"

	"github.com/jonwraymond/genops/generation"
)

func BenchmarkEstimateCost(b *testing.B) {
	caps := generation.Capabilities{Pricing: map[string]float64{"": 0.04}}
	req := generation.Request{
		Kind:       generation.KindImage,
		Parameters: map[string]any{"width": 1536, "height": 1024, "count": 2},
	}

	for b.Loop() {
		_ = EstimateCost(req, caps)
	}
}

// BenchmarkLedger_Commit measures concurrent commits against one ledger.
func BenchmarkLedger_Commit(b *testing.B) {
	l := NewLedger(LedgerConfig{})

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			l.Commit(0.01, "alpha", "p1")
		}
	})
}
