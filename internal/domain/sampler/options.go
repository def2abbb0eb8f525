package sampler

import "math/rand/v2"

// Option applies a configuration option to the Weighted sampler.
type Option func(*Weighted)

// WithRand sets the random source. The sampler serializes access to it.
func WithRand(r Rand) Option {
	return func(w *Weighted) {
		if r != nil {
			w.rng = r
		}
	}
}

// WithSeed makes sampling reproducible under a fixed seed.
func WithSeed(seed uint64) Option {
	return func(w *Weighted) {
		w.rng = newSeeded(seed)
	}
}

func newSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgStream)) //nolint:gosec // statistical fairness only
}
