package api

import (
	"net/http"

	"github.com/okian/raffle/internal/domain/pool"
)

// WinnersHandler serves the winner ledger.
type WinnersHandler struct {
	svc RaffleService
}

// NewWinnersHandler creates a winners handler.
func NewWinnersHandler(svc RaffleService) *WinnersHandler {
	return &WinnersHandler{svc: svc}
}

// HandleWinners handles GET /winners. Winners are listed in the order they were recorded.
func (h *WinnersHandler) HandleWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.svc.Winners(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, winners)
}

// HandleStats handles GET /winners/stats.
func (h *WinnersHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	winners, err := h.svc.Winners(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool.WinnerStats(winners))
}
