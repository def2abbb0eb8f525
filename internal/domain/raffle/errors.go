package raffle

import (
	"errors"
	"fmt"
)

// Sentinel kinds for raffle errors. DrawError values match them via errors.Is.
var (
	ErrInvalidSettings = errors.New("invalid raffle settings")
	ErrConcurrentDraw  = errors.New("draw already in progress")
	ErrEmptyPool       = errors.New("no eligible candidates")
	ErrPersistence     = errors.New("winner ledger unavailable")
	ErrInternal        = errors.New("internal raffle error")
)

// DrawError carries the failing operation, its kind and the underlying cause.
type DrawError struct {
	Op   string
	Kind error
	Err  error
}

func (e *DrawError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause.
func (e *DrawError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind, err error) error {
	return &DrawError{Op: op, Kind: kind, Err: err}
}
