package rosterkit

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/raffle/internal/adapters/roster"
	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/logger"
)

// GenerateFile writes a generated roster to cfg.RosterFile.
func GenerateFile(ctx context.Context, cfg *Config) error {
	if cfg.RosterFile == "" {
		cfg.RosterFile = DefaultRosterFile()
	}
	guides := Generate(cfg.Guides, cfg.Seed, cfg.Departments)
	return WriteRoster(ctx, cfg.RosterFile, guides)
}

// Run draws against a running service and verifies the ledger it exports.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	l := logger.Get()

	l.Info(ctx, "starting raffle run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("draws", cfg.Draws),
		logger.String("timeout", cfg.Timeout.String()),
		logger.String("rosterFile", cfg.RosterFile),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, err
	}

	// Step 2: Resolve the roster to verify against
	guides, err := resolveRoster(ctx, client, cfg.RosterFile)
	if err != nil {
		return stats, fmt.Errorf("roster retrieval failed: %w", err)
	}

	// Step 3: Draw
	if err := runDraws(ctx, client, cfg.Draws, stats); err != nil {
		return stats, err
	}

	// Step 4: Verify the ledger
	winners, err := client.Winners(ctx)
	if err != nil {
		return stats, fmt.Errorf("winner retrieval failed: %w", err)
	}
	stats.LedgerSize = len(winners)

	report, err := Verify(guides, winners)
	if err != nil {
		return stats, fmt.Errorf("ledger verification failed: %w", err)
	}
	logReport(ctx, report, winners, cfg.Verbose)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func resolveRoster(ctx context.Context, client *HTTPClient, path string) ([]model.Candidate, error) {
	if path != "" {
		return roster.Load(path)
	}
	return client.Roster(ctx)
}

// runDraws posts draws until limit is reached or the pool is empty. A zero
// limit drains the pool.
func runDraws(ctx context.Context, client *HTTPClient, limit int, stats *Stats) error {
	l := logger.Get()
	for limit == 0 || stats.DrawsRun < limit {
		if err := ctx.Err(); err != nil {
			return err
		}
		winners, done, err := client.Draw(ctx)
		if err != nil {
			stats.DrawsFailed++
			return fmt.Errorf("draw %d failed: %w", stats.DrawsRun+1, err)
		}
		if done {
			l.Info(ctx, "eligible pool exhausted", logger.Int("draws", stats.DrawsRun))
			return nil
		}
		stats.DrawsRun++
		stats.WinnersDrawn += len(winners)
		l.Debug(ctx, "draw completed", logger.Int("draw", stats.DrawsRun), logger.Int("winners", len(winners)))
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var drawsPerSecond float64
	if stats.Duration > 0 {
		drawsPerSecond = float64(stats.DrawsRun) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("drawsRun", stats.DrawsRun),
		logger.Int("drawsFailed", stats.DrawsFailed),
		logger.Int("winnersDrawn", stats.WinnersDrawn),
		logger.Int("ledgerSize", stats.LedgerSize),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("drawsPerSecond", drawsPerSecond),
	)
}
