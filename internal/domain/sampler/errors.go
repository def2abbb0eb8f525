package sampler

import "errors"

// Sentinel kinds for sampler errors.
var (
	// ErrInsufficientPool means more ids were requested than the pool holds.
	// Callers clamp k before sampling, so seeing it is a programming error.
	ErrInsufficientPool = errors.New("insufficient pool")
	ErrInvalidCount     = errors.New("invalid sample count")
	ErrDuplicateID      = errors.New("duplicate id in pool")
	ErrWeightOverflow   = errors.New("total weight overflows uint64")
)
