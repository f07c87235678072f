package budget

import (
	"math"
	"sync"
	"time"

	"github.com/jonwraymond/genops/generation"
)

// DayLayout is the key format of the per-day buckets (UTC).
const DayLayout = "2006-01-02"

// LedgerConfig configures the ledger.
type LedgerConfig struct {
	// Ceiling is the global spend ceiling in USD. Zero means no ceiling.
	Ceiling float64

	// Now is the clock used for day buckets. Default: time.Now
	Now func() time.Time
}

// Ledger is the cumulative spend record. Safe for concurrent use.
//
// Amounts are held as integer micro-dollars so repeated commits do not
// accumulate floating-point drift.
type Ledger struct {
	now func() time.Time

	mu         sync.RWMutex
	ceiling    int64
	total      int64
	commits    int64
	byProvider map[string]int64
	byProject  map[string]int64
	byDay      map[string]int64
}

// NewLedger creates an empty ledger.
func NewLedger(config LedgerConfig) *Ledger {
	if config.Now == nil {
		config.Now = time.Now
	}
	l := &Ledger{
		now:        config.Now,
		byProvider: make(map[string]int64),
		byProject:  make(map[string]int64),
		byDay:      make(map[string]int64),
	}
	l.ceiling = toMicros(max(config.Ceiling, 0))
	return l
}

// Check is the pre-flight budget check. It fails with a BudgetExceeded
// error if limit is positive and the estimate exceeds it, or if a global
// ceiling is set and committing the estimate would pass it.
// Estimates that are not finite or reach MaxAmount always fail.
// Check never mutates the ledger.
func (l *Ledger) Check(provider string, est Estimate, limit float64) error {
	if math.IsNaN(est.Amount) || math.IsInf(est.Amount, 0) || est.Amount >= MaxAmount {
		return generation.Errorf(generation.ClassBudgetExceeded, provider,
			"estimated cost %v is not representable", est.Amount)
	}
	amount := toMicros(est.Amount)

	if limit > 0 && amount > toMicros(limit) {
		return generation.Errorf(generation.ClassBudgetExceeded, provider,
			"estimated cost $%.4f exceeds request limit $%.4f", est.Amount, limit)
	}

	l.mu.RLock()
	ceiling, total := l.ceiling, l.total
	l.mu.RUnlock()

	if ceiling > 0 && amount > ceiling-total {
		return generation.Errorf(generation.ClassBudgetExceeded, provider,
			"estimated cost $%.4f exceeds remaining budget $%.4f",
			est.Amount, fromMicros(max(ceiling-total, 0)))
	}
	return nil
}

// Commit records actual spend. Negative amounts are ignored; the ledger
// never decreases.
func (l *Ledger) Commit(amount float64, provider, project string) {
	m := toMicros(amount)
	if m < 0 {
		return
	}
	day := l.now().UTC().Format(DayLayout)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.total = addMicros(l.total, m)
	l.commits++
	l.byProvider[provider] = addMicros(l.byProvider[provider], m)
	if project != "" {
		l.byProject[project] = addMicros(l.byProject[project], m)
	}
	l.byDay[day] = addMicros(l.byDay[day], m)
}

// SetCeiling replaces the global ceiling. Zero removes it.
func (l *Ledger) SetCeiling(ceiling float64) {
	l.mu.Lock()
	l.ceiling = toMicros(max(ceiling, 0))
	l.mu.Unlock()
}

// TotalSpent returns the cumulative spend.
func (l *Ledger) TotalSpent() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fromMicros(l.total)
}

// Summary returns a snapshot of the ledger.
func (l *Ledger) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Summary{
		TotalSpent: fromMicros(l.total),
		Commits:    l.commits,
		ByProvider: toDollars(l.byProvider),
		ByProject:  toDollars(l.byProject),
		ByDay:      toDollars(l.byDay),
	}
	if l.ceiling > 0 {
		s.Ceiling = fromMicros(l.ceiling)
		remaining := fromMicros(max(l.ceiling-l.total, 0))
		s.Remaining = &remaining
	}
	return s
}

func toDollars(in map[string]int64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = fromMicros(v)
	}
	return out
}

// Summary is a point-in-time view of the ledger.
type Summary struct {
	TotalSpent float64            `json:"total_spent"`
	Commits    int64              `json:"commits"`
	ByProvider map[string]float64 `json:"by_provider"`
	ByProject  map[string]float64 `json:"by_project"`
	ByDay      map[string]float64 `json:"by_day"`

	// Ceiling is zero and Remaining nil when no global ceiling is set.
	Ceiling   float64  `json:"ceiling,omitempty"`
	Remaining *float64 `json:"remaining,omitempty"`
}
