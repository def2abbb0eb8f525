// Package service wires the raffle domain to its storage and notification
// adapters and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	eventqueue "github.com/okian/raffle/internal/adapters/mq/queue"
	workerpool "github.com/okian/raffle/internal/adapters/mq/worker"
	"github.com/okian/raffle/internal/adapters/repository"
	"github.com/okian/raffle/internal/domain/dedupe"
	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/internal/domain/pool"
	"github.com/okian/raffle/internal/domain/raffle"
	"github.com/okian/raffle/internal/domain/sampler"
	"github.com/okian/raffle/pkg/logger"
	"github.com/okian/raffle/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Service owns the raffle and its supporting components.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster       []model.Candidate
	ledger       repository.Store
	openLedger   func(context.Context) (repository.Store, error)
	orchestrator *raffle.Orchestrator
	eventQueue   *eventqueue.InMemoryQueue
	notifiers    *workerpool.Pool
	publishers   []workerpool.Publisher
	requests     dedupe.Deduper

	// Configuration
	settings    model.Settings
	seed        uint64
	queueSize   int
	workerCount int

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc

	drawsSucceeded atomic.Int64
	drawsFailed    atomic.Int64
	drawsReplayed  atomic.Int64
	eventsDropped  atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		settings:    model.DefaultSettings(),
		queueSize:   1024,
		workerCount: 1,
		logger:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.requests == nil {
		s.requests = dedupe.NewInMemoryDeduper()
	}
	if s.ledger == nil && s.openLedger == nil {
		s.openLedger = func(ctx context.Context) (repository.Store, error) {
			return repository.NewMemoryStore(ctx), nil
		}
	}
	return s
}

// Start builds the orchestrator and starts the notifier workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting raffle service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	if s.ledger == nil {
		if s.openLedger == nil {
			cancel()
			return ErrLedgerClosed
		}
		ledger, err := s.openLedger(runCtx)
		if err != nil {
			cancel()
			return fmt.Errorf("open ledger: %w", err)
		}
		s.ledger = ledger
		s.logger.Info(ctx, "ledger opened")
	}

	var samplerOpts []sampler.Option
	if s.seed != 0 {
		samplerOpts = append(samplerOpts, sampler.WithSeed(s.seed))
		s.logger.Warn(ctx, "sampler seed is fixed; draws are reproducible", logger.Uint64("seed", s.seed))
	}

	orchestrator, err := raffle.New(s.roster, s.ledger,
		raffle.WithSampler(sampler.New(samplerOpts...)),
		raffle.WithSettings(s.settings),
		raffle.WithLogger(s.logger.Named("raffle")),
		raffle.WithObserver(s),
	)
	if err != nil {
		cancel()
		return err
	}
	s.orchestrator = orchestrator

	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	publishers := append([]workerpool.Publisher{workerpool.NewLogPublisher(s.logger)}, s.publishers...)
	s.notifiers = workerpool.NewPool(s.workerCount, s.eventQueue, publishers, s.logger)
	s.notifiers.Start(runCtx)

	if n, err := s.ledger.Count(ctx); err == nil {
		metrics.UpdateLedgerWinners(n)
	}

	s.cancel = cancel
	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "raffle service started",
		logger.Int("guides", len(s.roster)),
		logger.Int("departments", len(orchestrator.Departments())),
		logger.Int("notifyWorkers", s.notifiers.Size()),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop drains pending notifications and releases the ledger. The settings
// in force are kept for Settings and the next Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping raffle service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.notifiers.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "notifier shutdown incomplete", logger.Error(err))
	}
	s.cancel()

	s.settings = s.orchestrator.Settings()
	if err := s.ledger.Close(); err != nil {
		s.logger.Error(ctx, "error closing ledger", logger.Error(err))
	}
	s.ledger = nil

	s.started = false
	s.logger.Info(ctx, "raffle service stopped")
}

func (s *Service) running() (*raffle.Orchestrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.orchestrator, nil
}

// Settings returns the current raffle settings.
func (s *Service) Settings() model.Settings {
	o, err := s.running()
	if err != nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.settings.Clone()
	}
	return o.Settings()
}

// Configure replaces the raffle settings.
func (s *Service) Configure(ctx context.Context, settings model.Settings) error {
	o, err := s.running()
	if err != nil {
		return err
	}
	if err := o.Configure(settings); err != nil {
		s.logger.Info(ctx, "settings rejected", logger.Error(err))
		return err
	}
	current := o.Settings()
	s.logger.Info(ctx, "settings updated",
		logger.Int("maxWinners", current.MaxWinners),
		logger.String("drawFrom", string(current.DrawFrom)),
		logger.Strings("categories", current.SelectedCategories),
	)
	return nil
}

// RunDraw runs one draw.
func (s *Service) RunDraw(ctx context.Context) ([]model.Winner, error) {
	o, err := s.running()
	if err != nil {
		return nil, err
	}
	winners, err := o.RunDraw(ctx)
	if err != nil {
		s.drawsFailed.Add(1)
		return nil, err
	}
	s.drawsSucceeded.Add(1)
	return winners, nil
}

// RunDrawOnce runs at most one draw per request key. A key that already
// completed replays its winners with replayed set; a key still in flight
// fails with raffle.ErrConcurrentDraw. An empty key always draws.
func (s *Service) RunDrawOnce(ctx context.Context, key string) (winners []model.Winner, replayed bool, err error) {
	if key == "" {
		winners, err = s.RunDraw(ctx)
		return winners, false, err
	}
	if _, err := s.running(); err != nil {
		return nil, false, err
	}

	switch status, prior := s.requests.Begin(ctx, key); status {
	case dedupe.Done:
		s.drawsReplayed.Add(1)
		s.logger.Debug(ctx, "draw replayed", logger.String("requestKey", key), logger.Int("winners", len(prior)))
		return prior, true, nil
	case dedupe.Pending:
		return nil, false, &raffle.DrawError{Op: "service.run_draw_once", Kind: raffle.ErrConcurrentDraw}
	}

	winners, err = s.RunDraw(ctx)
	if err != nil {
		s.requests.Abandon(ctx, key)
		return nil, false, err
	}
	s.requests.Complete(ctx, key, winners)
	return winners, false, nil
}

// EligiblePool returns the candidates the next draw would sample from.
func (s *Service) EligiblePool(ctx context.Context) ([]model.Candidate, error) {
	o, err := s.running()
	if err != nil {
		return nil, err
	}
	return o.CurrentEligiblePool(ctx)
}

// Roster returns every guide.
func (s *Service) Roster() []model.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Candidate, len(s.roster))
	copy(out, s.roster)
	return out
}

// Departments returns the roster's departments, sorted.
func (s *Service) Departments() []string {
	return pool.Departments(s.Roster())
}

// Winners returns the ledger in the order winners were recorded.
func (s *Service) Winners(ctx context.Context) ([]model.Winner, error) {
	s.mu.RLock()
	ledger := s.ledger
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	winners, err := ledger.ListAll(ctx)
	if err != nil {
		return nil, &raffle.DrawError{Op: "service.winners", Kind: raffle.ErrPersistence, Err: err}
	}
	return winners, nil
}

// DrawCompleted implements raffle.Observer by queueing the event for the
// notifiers. A full queue drops the event; the draw itself already succeeded.
func (s *Service) DrawCompleted(ctx context.Context, e model.DrawEvent) {
	if err := s.eventQueue.Enqueue(ctx, e); err != nil {
		s.eventsDropped.Add(1)
		metrics.RecordEventDropped()
		s.logger.Warn(ctx, "draw event not queued",
			logger.String("drawId", e.DrawID),
			logger.Error(err),
		)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	stats := map[string]interface{}{
		"started":        started,
		"rosterSize":     len(s.roster),
		"queueSize":      s.queueSize,
		"notifyWorkers":  s.workerCount,
		"drawsSucceeded": s.drawsSucceeded.Load(),
		"drawsFailed":    s.drawsFailed.Load(),
		"drawsReplayed":  s.drawsReplayed.Load(),
		"eventsDropped":  s.eventsDropped.Load(),
		"requestKeys":    s.requests.Size(),
	}
	if !started {
		s.mu.RUnlock()
		return stats
	}
	o, q, ledger, startedAt := s.orchestrator, s.eventQueue, s.ledger, s.startedAt
	s.mu.RUnlock()

	ctx := context.Background()
	stats["state"] = o.State().String()
	stats["settings"] = o.Settings()
	stats["queueLength"] = q.Len()
	stats["uptimeSeconds"] = int64(time.Since(startedAt).Seconds())

	if n, err := ledger.Count(ctx); err == nil {
		stats["totalWinners"] = n
		metrics.UpdateLedgerWinners(n)
	} else {
		stats["ledgerError"] = err.Error()
	}
	if eligible, err := o.CurrentEligiblePool(ctx); err == nil {
		stats["eligible"] = len(eligible)
	}
	metrics.UpdateQueueSize(q.Len())
	return stats
}
