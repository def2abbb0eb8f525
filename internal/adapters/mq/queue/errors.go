package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed = errors.New("draw event queue closed")
	ErrFull   = errors.New("draw event queue full")
)
