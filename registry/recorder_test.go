package registry

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/genops/observe"
)

type transitionRecorder struct {
	mu          sync.Mutex
	transitions []string
}

func (r *transitionRecorder) RecordGeneration(context.Context, observe.CallMeta, time.Duration, observe.Outcome, error) {
}

func (r *transitionRecorder) RecordCircuitTransition(_ context.Context, provider, from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, provider+":"+from+"->"+to)
}

func (r *transitionRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.transitions...)
}

var _ observe.Metrics = (*transitionRecorder)(nil)
