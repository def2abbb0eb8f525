package service

import (
	"context"

	"github.com/okian/raffle/internal/adapters/mq/worker"
	"github.com/okian/raffle/internal/adapters/repository"
	"github.com/okian/raffle/internal/domain/dedupe"
	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRoster sets the guides the raffle draws from.
func WithRoster(roster []model.Candidate) Option {
	return func(s *Service) {
		s.roster = roster
	}
}

// WithLedger sets the winner ledger. The service closes it on Stop, so a
// restart needs WithLedgerOpener. Without either, each Start opens a fresh
// in-memory ledger.
func WithLedger(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.ledger = store
		}
	}
}

// WithLedgerOpener sets how Start opens the ledger when none is held, as on
// the first Start without WithLedger or after a Stop.
func WithLedgerOpener(open func(ctx context.Context) (repository.Store, error)) Option {
	return func(s *Service) {
		if open != nil {
			s.openLedger = open
		}
	}
}

// WithSettings sets the settings the raffle starts with.
func WithSettings(settings model.Settings) Option {
	return func(s *Service) {
		s.settings = settings
	}
}

// WithSeed fixes the sampler seed. Zero keeps the secure default.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithQueueSize sets the capacity of the draw event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithNotifyWorkers sets the number of draw event workers.
func WithNotifyWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithPublishers adds listeners for recorded draws.
func WithPublishers(publishers ...worker.Publisher) Option {
	return func(s *Service) {
		for _, p := range publishers {
			if p != nil {
				s.publishers = append(s.publishers, p)
			}
		}
	}
}

// WithRequestKeys bounds how many completed draw request keys are remembered.
func WithRequestKeys(n int) Option {
	return func(s *Service) {
		s.requests = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(n))
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
