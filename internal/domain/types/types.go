// Package types contains read models shared by the service and the API.
package types

// DepartmentCount is the number of candidates (or winners) in one department.
type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// PoolStats summarizes an eligible pool.
type PoolStats struct {
	Candidates   int               `json:"candidates"`
	TotalTickets uint64            `json:"totalTickets"`
	AvgNPS       float64           `json:"avgNps"`
	Departments  []DepartmentCount `json:"departments"`
}

// WinnerStats summarizes the winner ledger.
type WinnerStats struct {
	TotalWinners int               `json:"totalWinners"`
	TotalTickets uint64            `json:"totalTickets"`
	AvgNPS       float64           `json:"avgNps"`
	AvgNRPC      float64           `json:"avgNrpc"`
	Departments  []DepartmentCount `json:"departments"` // count desc, then name asc
}

// RosterStats summarizes the whole roster.
type RosterStats struct {
	TotalGuides      int     `json:"totalGuides"`
	TotalTickets     uint64  `json:"totalTickets"`
	AvgNPS           float64 `json:"avgNps"`
	AvgNRPC          float64 `json:"avgNrpc"`
	AvgRefundPercent float64 `json:"avgRefundPercent"`
}
