package solver

import "time"

// autoLocalSearchLocationCount is the location-count threshold below which
// an automatic, short local search pass runs instead of the caller-budgeted
// guided local search (§4.4): depot plus up to 10 jobs.
const autoLocalSearchLocationCount = 12

// autoLocalSearchBudget is the wall-clock cap for the automatic local
// search pass used on small instances.
const autoLocalSearchBudget = 5 * time.Second

// DefaultSolveBudget is the guided-local-search budget used when the
// caller doesn't supply one.
const DefaultSolveBudget = 30 * time.Second

// Options configures a single Solve call.
type Options struct {
	// Budget bounds the guided-local-search pass. Ignored when the
	// instance is small enough to use the automatic local search
	// (fewer than autoLocalSearchLocationCount locations).
	Budget time.Duration
}

func (o Options) budgetOrDefault() time.Duration {
	if o.Budget <= 0 {
		return DefaultSolveBudget
	}
	return o.Budget
}
