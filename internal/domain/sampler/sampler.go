// Package sampler implements weighted sampling without replacement.
//
// Each step draws one id with probability proportional to its weight among
// the ids not yet drawn, then removes it. When every remaining weight is
// zero the step falls back to a uniform pick, so zero-ticket entries never
// make an otherwise satisfiable draw fail.
package sampler

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// pcgStream is the second PCG word derived from a single seed.
const pcgStream = 0x9e3779b97f4a7c15

// Entry is one weighted candidate.
type Entry struct {
	ID     string
	Weight uint64
}

// Rand is the subset of *math/rand/v2.Rand the sampler needs.
type Rand interface {
	Uint64N(n uint64) uint64
	IntN(n int) int
}

// Sampler selects k distinct ids from a weighted pool.
type Sampler interface {
	// Select returns k distinct ids in the order they were drawn.
	// It fails with ErrInsufficientPool when k exceeds len(pool).
	Select(pool []Entry, k int) ([]string, error)
}

// Weighted is the default Sampler. It is safe for concurrent use.
type Weighted struct {
	mu  sync.Mutex
	rng Rand
}

// New creates a sampler. Without options it is seeded from crypto/rand.
func New(opts ...Option) *Weighted {
	w := &Weighted{}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		seed, err := NewSeed()
		if err != nil {
			seed = uint64(time.Now().UnixNano())
		}
		w.rng = newSeeded(seed)
	}
	return w
}

// Select draws k distinct ids. Weights are summed as exact integers.
func (w *Weighted) Select(pool []Entry, k int) ([]string, error) {
	switch {
	case k < 0:
		return nil, fmt.Errorf("select %d: %w", k, ErrInvalidCount)
	case k > len(pool):
		return nil, fmt.Errorf("select %d from %d: %w", k, len(pool), ErrInsufficientPool)
	case k == 0:
		return []string{}, nil
	}
	if err := checkUnique(pool); err != nil {
		return nil, err
	}
	total, err := sum(pool)
	if err != nil {
		return nil, err
	}

	remaining := slices.Clone(pool)
	picked := make([]string, 0, k)

	w.mu.Lock()
	defer w.mu.Unlock()

	for range k {
		var idx int
		if total > 0 {
			idx = walk(remaining, w.rng.Uint64N(total))
		} else {
			idx = w.rng.IntN(len(remaining))
		}
		picked = append(picked, remaining[idx].ID)
		total -= remaining[idx].Weight
		remaining = slices.Delete(remaining, idx, idx+1)
	}
	return picked, nil
}

// walk returns the index where the running weight first exceeds u.
// u must be below the total weight of entries.
func walk(entries []Entry, u uint64) int {
	var acc uint64
	for i, e := range entries {
		acc += e.Weight
		if acc > u {
			return i
		}
	}
	// unreachable while u < total
	return len(entries) - 1
}

func sum(pool []Entry) (uint64, error) {
	var total uint64
	for _, e := range pool {
		next := total + e.Weight
		if next < total {
			return 0, ErrWeightOverflow
		}
		total = next
	}
	return total, nil
}

func checkUnique(pool []Entry) error {
	seen := make(map[string]struct{}, len(pool))
	for _, e := range pool {
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("id %q: %w", e.ID, ErrDuplicateID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}
