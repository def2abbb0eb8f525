package api

import (
	"net/http"

	"github.com/okian/raffle/internal/domain/pool"
)

// RosterHandler serves the static roster views.
type RosterHandler struct {
	svc RaffleService
}

// NewRosterHandler creates a roster handler.
func NewRosterHandler(svc RaffleService) *RosterHandler {
	return &RosterHandler{svc: svc}
}

// HandleGuides handles GET /guides. The optional q, department and
// supervisor query parameters narrow the listing.
func (h *RosterHandler) HandleGuides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, pool.FilterGuides(h.svc.Roster(), pool.GuideFilter{
		Query:      q.Get("q"),
		Department: q.Get("department"),
		Supervisor: q.Get("supervisor"),
	}))
}

// HandleGuideStats handles GET /guides/stats.
func (h *RosterHandler) HandleGuideStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pool.RosterStats(h.svc.Roster()))
}

// HandleDepartments handles GET /departments.
func (h *RosterHandler) HandleDepartments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Departments())
}

// HandleSupervisors handles GET /supervisors.
func (h *RosterHandler) HandleSupervisors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pool.Supervisors(h.svc.Roster()))
}
