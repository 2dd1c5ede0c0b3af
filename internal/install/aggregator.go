package install

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateResult is returned when a device reports twice
	ErrDuplicateResult = errors.New("duplicate result for device")

	// ErrIncomplete is returned when a report is built before every device reported
	ErrIncomplete = errors.New("results missing for some devices")
)

// Aggregator collects one result per device from concurrent tasks.
// It is append-only: existing entries are never modified.
type Aggregator struct {
	mu       sync.Mutex
	expected int
	seen     []bool
	results  []Result
}

// NewAggregator creates an aggregator for the given number of devices
func NewAggregator(expected int) *Aggregator {
	return &Aggregator{
		expected: expected,
		seen:     make([]bool, expected),
		results:  make([]Result, 0, expected),
	}
}

// Add records a result. Safe for concurrent use.
func (a *Aggregator) Add(r Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.Index < 0 || r.Index >= a.expected {
		return fmt.Errorf("result index %d out of range [0,%d)", r.Index, a.expected)
	}
	if a.seen[r.Index] {
		return fmt.Errorf("%w %s", ErrDuplicateResult, r.Device())
	}

	a.seen[r.Index] = true
	a.results = append(a.results, r)
	return nil
}

// Len returns the number of results recorded so far
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

// Results returns a copy of the results in the order they arrived
func (a *Aggregator) Results() []Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Result, len(a.results))
	copy(out, a.results)
	return out
}

// Missing returns the indices of devices with no result yet
func (a *Aggregator) Missing() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var missing []int
	for i, ok := range a.seen {
		if !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Report builds the final report. It fails if any device has no result.
func (a *Aggregator) Report(state State) (*Report, error) {
	if missing := a.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %d of %d (indices %v)", ErrIncomplete, len(missing), a.expected, missing)
	}
	return &Report{State: state, Results: a.Results()}, nil
}
