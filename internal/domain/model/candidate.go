// Package model contains domain models passed between layers.
package model

// Candidate is one entry of the roster. The roster is supplied once at
// startup and never mutated by the raffle.
type Candidate struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Department    string  `json:"department"`
	Supervisor    string  `json:"supervisor"`
	NPS           float64 `json:"nps"`
	NRPC          float64 `json:"nrpc"`
	RefundPercent float64 `json:"refundPercent"`
	TotalTickets  uint64  `json:"totalTickets"` // sampling weight
}
