package rosterkit

import "errors"

var (
	// ErrUnhealthy indicates the service did not answer its health check.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrDuplicateWinner indicates a guide appears in the ledger more than once.
	ErrDuplicateWinner = errors.New("guide won more than once")
	// ErrUnknownGuide indicates a ledger entry names a guide missing from the roster.
	ErrUnknownGuide = errors.New("winner not on roster")
	// ErrSnapshotMismatch indicates a ledger entry disagrees with the roster.
	ErrSnapshotMismatch = errors.New("winner snapshot differs from roster")
	// ErrUnexpectedStatus indicates the service answered with an unexpected status code.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
