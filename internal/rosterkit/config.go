// Package rosterkit generates synthetic rosters and exercises a running
// raffle service end to end, checking the winner ledger it exports.
package rosterkit

import "time"

// Config holds configuration for a kit run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Guides      int           // Number of guides to generate
	Departments []string      // Department names assigned round-robin
	Seed        uint64        // Generator seed; equal seeds give equal rosters
	Draws       int           // Upper bound on draws to run; 0 drains the pool
	Timeout     time.Duration // HTTP request timeout
	RosterFile  string        // Roster to verify against, or to write when generating
	Verbose     bool          // Log every winner
}

// DefaultDepartments is used when Config.Departments is empty.
var DefaultDepartments = []string{"Sales", "Billing", "Support", "Retention", "Onboarding"}

// Stats holds run statistics.
type Stats struct {
	DrawsRun     int
	DrawsFailed  int
	WinnersDrawn int
	LedgerSize   int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}
