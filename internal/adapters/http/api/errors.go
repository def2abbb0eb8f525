package api

import (
	"errors"
	"net/http"

	"github.com/okian/raffle/internal/domain/raffle"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error codes returned in the JSON error body.
const (
	codeBadRequest      = "bad_request"
	codeInvalidSettings = "invalid_settings"
	codeDrawInProgress  = "draw_in_progress"
	codeEmptyPool       = "empty_pool"
	codePersistence     = "persistence_failed"
	codeInternal        = "internal_error"
)

// classify maps a service error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, raffle.ErrInvalidSettings):
		return http.StatusBadRequest, codeInvalidSettings
	case errors.Is(err, raffle.ErrConcurrentDraw):
		return http.StatusConflict, codeDrawInProgress
	case errors.Is(err, raffle.ErrEmptyPool):
		return http.StatusConflict, codeEmptyPool
	case errors.Is(err, raffle.ErrPersistence):
		return http.StatusServiceUnavailable, codePersistence
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
