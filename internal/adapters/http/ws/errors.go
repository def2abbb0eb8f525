package ws

import "errors"

// Sentinel kinds for live feed errors.
var (
	ErrHubStopped = errors.New("live feed hub stopped")
	ErrHubBusy    = errors.New("live feed hub busy")
)
