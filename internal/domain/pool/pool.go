// Package pool derives the eligible candidate set for a draw.
//
// Everything here is a pure function of its inputs: the roster, the winner
// ledger and the active settings.
package pool

import (
	"cmp"
	"math"
	"math/bits"
	"slices"
	"strings"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/internal/domain/sampler"
	"github.com/okian/raffle/internal/domain/types"
)

// Eligible returns the roster minus every candidate that already won,
// restricted to the selected categories when the settings filter. Roster
// order is preserved. An empty result is not an error.
func Eligible(roster []model.Candidate, ledger []model.Winner, settings model.Settings) []model.Candidate {
	excluded := make(map[string]struct{}, len(ledger))
	for _, w := range ledger {
		excluded[w.GuideID] = struct{}{}
	}

	var allowed map[string]struct{}
	if settings.Filtering() {
		allowed = make(map[string]struct{}, len(settings.SelectedCategories))
		for _, c := range settings.SelectedCategories {
			allowed[c] = struct{}{}
		}
	}

	out := make([]model.Candidate, 0, len(roster))
	for _, c := range roster {
		if _, won := excluded[c.ID]; won {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[c.Department]; !ok {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// Entries converts candidates into sampler input, keeping their order.
func Entries(candidates []model.Candidate) []sampler.Entry {
	out := make([]sampler.Entry, len(candidates))
	for i, c := range candidates {
		out[i] = sampler.Entry{ID: c.ID, Weight: c.TotalTickets}
	}
	return out
}

// Departments returns the sorted, de-duplicated department names of roster.
func Departments(roster []model.Candidate) []string {
	return distinct(roster, func(c model.Candidate) string { return c.Department })
}

// Supervisors returns the sorted, de-duplicated supervisor names of roster.
func Supervisors(roster []model.Candidate) []string {
	return distinct(roster, func(c model.Candidate) string { return c.Supervisor })
}

func distinct(roster []model.Candidate, key func(model.Candidate) string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, c := range roster {
		k := key(c)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// GuideFilter narrows a roster listing. Query matches name, supervisor or
// department as a case-insensitive substring. Department and Supervisor
// match exactly. Empty fields match everything.
type GuideFilter struct {
	Query      string
	Department string
	Supervisor string
}

// FilterGuides returns the roster entries matching f in roster order.
func FilterGuides(roster []model.Candidate, f GuideFilter) []model.Candidate {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]model.Candidate, 0, len(roster))
	for _, c := range roster {
		if f.Department != "" && c.Department != f.Department {
			continue
		}
		if f.Supervisor != "" && c.Supervisor != f.Supervisor {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(c.Name), q) &&
			!strings.Contains(strings.ToLower(c.Supervisor), q) &&
			!strings.Contains(strings.ToLower(c.Department), q) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// RosterStats computes the roster summary card over every guide, won or not.
func RosterStats(roster []model.Candidate) types.RosterStats {
	stats := types.RosterStats{TotalGuides: len(roster)}
	if len(roster) == 0 {
		return stats
	}
	var nps, nrpc, refund float64
	for _, c := range roster {
		stats.TotalTickets = addTickets(stats.TotalTickets, c.TotalTickets)
		nps += c.NPS
		nrpc += c.NRPC
		refund += c.RefundPercent
	}
	n := float64(len(roster))
	stats.AvgNPS = nps / n
	stats.AvgNRPC = nrpc / n
	stats.AvgRefundPercent = refund / n
	return stats
}

// addTickets saturates at math.MaxUint64.
func addTickets(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// Summarize computes the pool summary card: size, tickets, average NPS and
// per-department counts (alphabetical).
func Summarize(candidates []model.Candidate) types.PoolStats {
	stats := types.PoolStats{
		Candidates:  len(candidates),
		Departments: []types.DepartmentCount{},
	}
	if len(candidates) == 0 {
		return stats
	}
	counts := make(map[string]int)
	var nps float64
	for _, c := range candidates {
		stats.TotalTickets = addTickets(stats.TotalTickets, c.TotalTickets)
		nps += c.NPS
		counts[c.Department]++
	}
	stats.AvgNPS = nps / float64(len(candidates))
	for dept, n := range counts {
		stats.Departments = append(stats.Departments, types.DepartmentCount{Department: dept, Count: n})
	}
	slices.SortFunc(stats.Departments, func(a, b types.DepartmentCount) int {
		return cmp.Compare(a.Department, b.Department)
	})
	return stats
}

// WinnerStats summarizes the ledger. Departments are ordered by win count
// descending, then by name.
func WinnerStats(ledger []model.Winner) types.WinnerStats {
	stats := types.WinnerStats{
		TotalWinners: len(ledger),
		Departments:  []types.DepartmentCount{},
	}
	if len(ledger) == 0 {
		return stats
	}
	counts := make(map[string]int)
	var nps, nrpc float64
	for _, w := range ledger {
		stats.TotalTickets = addTickets(stats.TotalTickets, w.TotalTickets)
		nps += w.NPS
		nrpc += w.NRPC
		counts[w.Department]++
	}
	n := float64(len(ledger))
	stats.AvgNPS = nps / n
	stats.AvgNRPC = nrpc / n
	for dept, c := range counts {
		stats.Departments = append(stats.Departments, types.DepartmentCount{Department: dept, Count: c})
	}
	slices.SortFunc(stats.Departments, func(a, b types.DepartmentCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Department, b.Department)
	})
	return stats
}
