package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/genops/generation"
	"github.com/jonwraymond/genops/mock"
	"github.com/jonwraymond/genops/resilience"
)

func TestSelect(t *testing.T) {
	video := generation.Capabilities{
		Kinds:   []generation.Kind{generation.KindVideo},
		Pricing: map[string]float64{"": 0.02},
	}

	tests := []struct {
		name    string
		setup   func(r *Registry)
		req     generation.Request
		want    string
		wantErr error
	}{
		{
			name: "first capable without limit",
			setup: func(r *Registry) {
				_ = r.Register("video", mock.Factory(video))
				_ = r.Register("pricey", mock.Factory(imageCaps(0.08)))
				_ = r.Register("cheap", mock.Factory(imageCaps(0.01)))
			},
			req:  generation.Request{Kind: generation.KindImage},
			want: "pricey",
		},
		{
			name: "cheapest that fits the limit",
			setup: func(r *Registry) {
				_ = r.Register("pricey", mock.Factory(imageCaps(0.08)))
				_ = r.Register("mid", mock.Factory(imageCaps(0.03)))
				_ = r.Register("cheap", mock.Factory(imageCaps(0.01)))
			},
			req:  generation.Request{Kind: generation.KindImage, BudgetLimit: 0.05},
			want: "cheap",
		},
		{
			name: "tie goes to registration order",
			setup: func(r *Registry) {
				_ = r.Register("first", mock.Factory(imageCaps(0.01)))
				_ = r.Register("second", mock.Factory(imageCaps(0.01)))
			},
			req:  generation.Request{Kind: generation.KindImage, BudgetLimit: 0.05},
			want: "first",
		},
		{
			name: "nothing fits the limit",
			setup: func(r *Registry) {
				_ = r.Register("pricey", mock.Factory(imageCaps(0.08)))
			},
			req:     generation.Request{Kind: generation.KindImage, BudgetLimit: 0.05},
			wantErr: generation.ErrBudgetExceeded,
		},
		{
			name: "no capable provider",
			setup: func(r *Registry) {
				_ = r.Register("video", mock.Factory(video))
			},
			req:     generation.Request{Kind: generation.KindImage},
			wantErr: generation.ErrNoProviderAvailable,
		},
		{
			name: "disabled providers are skipped",
			setup: func(r *Registry) {
				_ = r.Register("alpha", mock.Factory(imageCaps(0.02)), WithDisabled())
				_ = r.Register("beta", mock.Factory(imageCaps(0.02)))
			},
			req:  generation.Request{Kind: generation.KindImage},
			want: "beta",
		},
		{
			name: "open circuits are skipped",
			setup: func(r *Registry) {
				_ = r.Register("alpha", mock.Factory(imageCaps(0.02)))
				_ = r.Register("beta", mock.Factory(imageCaps(0.02)))
				cb, _ := r.Breaker("alpha")
				for range 5 {
					cb.RecordFailure()
				}
			},
			req:  generation.Request{Kind: generation.KindImage},
			want: "beta",
		},
		{
			name: "unsupported model is skipped",
			setup: func(r *Registry) {
				caps := imageCaps(0.02)
				caps.Models = []string{"img-1"}
				_ = r.Register("alpha", mock.Factory(caps))
				_ = r.Register("beta", mock.Factory(imageCaps(0.02)))
			},
			req:  generation.Request{Kind: generation.KindImage, Model: "img-2"},
			want: "beta",
		},
		{
			name: "preferred overrides search",
			setup: func(r *Registry) {
				_ = r.Register("alpha", mock.Factory(imageCaps(0.02)))
				_ = r.Register("beta", mock.Factory(imageCaps(0.08)))
				_ = r.SetPreferred(generation.KindImage, "beta")
			},
			req:  generation.Request{Kind: generation.KindImage, BudgetLimit: 0.05},
			want: "beta",
		},
		{
			name: "disabled preferred falls back to search",
			setup: func(r *Registry) {
				_ = r.Register("alpha", mock.Factory(imageCaps(0.02)))
				_ = r.Register("beta", mock.Factory(imageCaps(0.02)))
				_ = r.SetPreferred(generation.KindImage, "beta")
				_ = r.Disable("beta")
			},
			req:  generation.Request{Kind: generation.KindImage},
			want: "alpha",
		},
		{
			name: "failing factory is skipped",
			setup: func(r *Registry) {
				_ = r.Register("broken", func(string) (generation.Adapter, error) {
					return nil, errors.New("no credential")
				})
				_ = r.Register("beta", mock.Factory(imageCaps(0.02)))
			},
			req:  generation.Request{Kind: generation.KindImage},
			want: "beta",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Config{})
			tt.setup(r)

			got, err := r.Select(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Select() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Select() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelect_PreferredWithOpenCircuit(t *testing.T) {
	r := New(Config{Circuit: resilience.CircuitBreakerConfig{RecoveryTimeout: time.Hour}})
	_ = r.Register("alpha", mock.Factory(imageCaps(0.02)))
	_ = r.Register("beta", mock.Factory(imageCaps(0.02)))
	_ = r.SetPreferred(generation.KindImage, "alpha")
	cb, _ := r.Breaker("alpha")
	for range 5 {
		cb.RecordFailure()
	}

	got, err := r.Select(context.Background(), generation.Request{Kind: generation.KindImage})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got != "alpha" {
		t.Errorf("Select() = %q, want preferred alpha", got)
	}
}
