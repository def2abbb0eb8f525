package model

import "time"

// Winner is an immutable snapshot of a Candidate taken when it was drawn.
// ID is generated per win and is distinct from GuideID.
type Winner struct {
	ID            string    `json:"id"`
	GuideID       string    `json:"guideId"`
	Name          string    `json:"name"`
	Supervisor    string    `json:"supervisor"`
	Department    string    `json:"department"`
	NPS           float64   `json:"nps"`
	NRPC          float64   `json:"nrpc"`
	RefundPercent float64   `json:"refundPercent"`
	TotalTickets  uint64    `json:"totalTickets"`
	WonAt         time.Time `json:"wonAt"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// NewWinner snapshots c under the given win id and timestamp.
func NewWinner(id string, c Candidate, at time.Time) Winner {
	return Winner{
		ID:            id,
		GuideID:       c.ID,
		Name:          c.Name,
		Supervisor:    c.Supervisor,
		Department:    c.Department,
		NPS:           c.NPS,
		NRPC:          c.NRPC,
		RefundPercent: c.RefundPercent,
		TotalTickets:  c.TotalTickets,
		WonAt:         at,
		RecordedAt:    at,
	}
}

// DrawEvent announces a completed draw to out-of-band listeners (live feed).
type DrawEvent struct {
	DrawID      string    `json:"drawId"`
	Winners     []Winner  `json:"winners"`
	Settings    Settings  `json:"settings"`
	PoolSize    int       `json:"poolSize"`
	PoolTickets uint64    `json:"poolTickets"`
	DrawnAt     time.Time `json:"drawnAt"`
}
