package repository

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrDuplicateGuide  = errors.New("guide already recorded as winner")
	ErrClosed          = errors.New("ledger is closed")
	ErrUnknownDriver   = errors.New("unknown ledger driver")
	ErrTicketsOverflow = errors.New("ticket count exceeds storable range")
)
