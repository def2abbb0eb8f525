package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrInvalidRoster = errors.New("invalid roster")
	ErrDuplicateID   = errors.New("duplicate guide id")
	ErrMissingID     = errors.New("missing id")
)
