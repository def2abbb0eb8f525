package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/internal/domain/pool"
	"github.com/okian/raffle/internal/domain/types"
)

const maxSettingsBody = 64 << 10

// Draw request idempotency headers.
const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyKey    = 255
)

// RaffleHandler serves settings, draws and the eligible pool.
type RaffleHandler struct {
	svc RaffleService
}

// NewRaffleHandler creates a raffle handler.
func NewRaffleHandler(svc RaffleService) *RaffleHandler {
	return &RaffleHandler{svc: svc}
}

type drawResponse struct {
	Winners []model.Winner `json:"winners"`
}

type poolResponse struct {
	Candidates []model.Candidate `json:"candidates"`
	Stats      types.PoolStats   `json:"stats"`
}

// HandleGetSettings handles GET /raffle/settings.
func (h *RaffleHandler) HandleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// HandlePutSettings handles PUT /raffle/settings.
func (h *RaffleHandler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req model.Settings
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeServiceError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := h.svc.Configure(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// HandleDraw handles POST /raffle/draw. Requests carrying an
// Idempotency-Key header draw at most once; retries get the original
// winners with 200 and Idempotent-Replayed: true.
func (h *RaffleHandler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	if len(key) > maxIdempotencyKey {
		writeServiceError(w, fmt.Errorf("%w: %s longer than %d bytes", ErrBadRequest, headerIdempotencyKey, maxIdempotencyKey))
		return
	}
	winners, replayed, err := h.svc.RunDrawOnce(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if replayed {
		w.Header().Set(headerReplayed, "true")
		writeJSON(w, http.StatusOK, drawResponse{Winners: winners})
		return
	}
	writeJSON(w, http.StatusCreated, drawResponse{Winners: winners})
}

// HandlePool handles GET /raffle/pool.
func (h *RaffleHandler) HandlePool(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.svc.EligiblePool(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poolResponse{Candidates: candidates, Stats: pool.Summarize(candidates)})
}
