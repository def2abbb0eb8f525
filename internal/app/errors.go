package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("raffle service not started")
	ErrLedgerClosed = errors.New("ledger closed by an earlier stop")
)
