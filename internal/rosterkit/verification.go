package rosterkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/internal/domain/pool"
	"github.com/okian/raffle/internal/domain/types"
	"github.com/okian/raffle/pkg/logger"
)

// Report summarizes a verified ledger.
type Report struct {
	Winners int
	Stats   types.WinnerStats
}

// Verify checks a ledger export against the roster it was drawn from:
// no guide appears twice, every winner is on the roster, and each
// winner's snapshot matches the roster entry. All problems are returned.
func Verify(roster []model.Candidate, winners []model.Winner) (Report, error) {
	byID := make(map[string]model.Candidate, len(roster))
	for _, c := range roster {
		byID[c.ID] = c
	}

	var errs []error
	seen := make(map[string]int, len(winners))
	for i, w := range winners {
		if prev, ok := seen[w.GuideID]; ok {
			errs = append(errs, fmt.Errorf("%w: %s at %d and %d", ErrDuplicateWinner, w.GuideID, prev, i))
			continue
		}
		seen[w.GuideID] = i

		c, ok := byID[w.GuideID]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownGuide, w.GuideID))
			continue
		}
		if c.Department != w.Department || c.TotalTickets != w.TotalTickets || c.Name != w.Name {
			errs = append(errs, fmt.Errorf("%w: %s", ErrSnapshotMismatch, w.GuideID))
		}
	}

	return Report{Winners: len(winners), Stats: pool.WinnerStats(winners)}, errors.Join(errs...)
}

// logReport logs the per-department breakdown and, when verbose, every winner.
func logReport(ctx context.Context, r Report, winners []model.Winner, verbose bool) {
	l := logger.Get()
	l.Info(ctx, "ledger verified", logger.Int("winners", r.Winners))
	for _, d := range r.Stats.Departments {
		l.Info(ctx, "department", logger.String("name", d.Department), logger.Int("winners", d.Count))
	}
	if !verbose {
		return
	}
	for i, w := range winners {
		l.Info(ctx, "winner",
			logger.Int("position", i+1),
			logger.String("guideId", w.GuideID),
			logger.String("name", w.Name),
			logger.String("department", w.Department),
			logger.Uint64("tickets", w.TotalTickets),
		)
	}
}
