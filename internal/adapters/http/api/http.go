// Package api exposes the raffle over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/raffle/internal/domain/model"
)

// RaffleService is everything the handlers need from the service layer.
type RaffleService interface {
	Settings() model.Settings
	Configure(ctx context.Context, s model.Settings) error
	RunDrawOnce(ctx context.Context, key string) (winners []model.Winner, replayed bool, err error)
	EligiblePool(ctx context.Context) ([]model.Candidate, error)
	Roster() []model.Candidate
	Departments() []string
	Winners(ctx context.Context) ([]model.Winner, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	raffleHandler  *RaffleHandler
	rosterHandler  *RosterHandler
	winnersHandler *WinnersHandler
	feed           http.Handler
}

// NewServer creates an API server. feed may be nil when the live feed is disabled.
func NewServer(svc RaffleService, statsProvider StatsProvider, feed http.Handler) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		raffleHandler:  NewRaffleHandler(svc),
		rosterHandler:  NewRosterHandler(svc),
		winnersHandler: NewWinnersHandler(svc),
		feed:           feed,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /raffle/settings", MetricsMiddleware(s.raffleHandler.HandleGetSettings, "settings"))
	mux.HandleFunc("PUT /raffle/settings", MetricsMiddleware(s.raffleHandler.HandlePutSettings, "settings"))
	mux.HandleFunc("POST /raffle/draw", MetricsMiddleware(s.raffleHandler.HandleDraw, "draw"))
	mux.HandleFunc("GET /raffle/pool", MetricsMiddleware(s.raffleHandler.HandlePool, "pool"))

	mux.HandleFunc("GET /guides", MetricsMiddleware(s.rosterHandler.HandleGuides, "guides"))
	mux.HandleFunc("GET /guides/stats", MetricsMiddleware(s.rosterHandler.HandleGuideStats, "guide_stats"))
	mux.HandleFunc("GET /departments", MetricsMiddleware(s.rosterHandler.HandleDepartments, "departments"))
	mux.HandleFunc("GET /supervisors", MetricsMiddleware(s.rosterHandler.HandleSupervisors, "supervisors"))

	mux.HandleFunc("GET /winners", MetricsMiddleware(s.winnersHandler.HandleWinners, "winners"))
	mux.HandleFunc("GET /winners/stats", MetricsMiddleware(s.winnersHandler.HandleStats, "winner_stats"))

	if s.feed != nil {
		// Not wrapped: the middleware's writer does not support hijacking.
		mux.Handle("GET /ws/draws", s.feed)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError never echoes the cause of an internal error to the client.
func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && code != codeInternal {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError classifies err and writes the matching response.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
