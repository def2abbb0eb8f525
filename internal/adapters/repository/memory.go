package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/metrics"
)

// MemoryStore is a Store kept in process memory. It is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	winners []model.Winner
	guides  map[string]struct{}
	closed  bool

	fault                 func([]model.Winner) error
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an empty in-memory ledger.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		guides:                make(map[string]struct{}),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Append implements Store.Append.
func (s *MemoryStore) Append(_ context.Context, winners []model.Winner) error {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerAppendLatency(float64(time.Since(start).Milliseconds()))
	}()

	if s.fault != nil {
		if err := s.fault(winners); err != nil {
			metrics.RecordErrorByComponent("repository", "fault")
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	batch := make(map[string]struct{}, len(winners))
	for _, w := range winners {
		if _, ok := s.guides[w.GuideID]; ok {
			metrics.RecordErrorByComponent("repository", "duplicate_guide")
			return fmt.Errorf("%w: %s", ErrDuplicateGuide, w.GuideID)
		}
		if _, ok := batch[w.GuideID]; ok {
			metrics.RecordErrorByComponent("repository", "duplicate_guide")
			return fmt.Errorf("%w: %s", ErrDuplicateGuide, w.GuideID)
		}
		batch[w.GuideID] = struct{}{}
	}
	for id := range batch {
		s.guides[id] = struct{}{}
	}
	s.winners = append(s.winners, winners...)
	return nil
}

// ListAll implements Store.ListAll.
func (s *MemoryStore) ListAll(context.Context) ([]model.Winner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := slices.Clone(s.winners)
	if out == nil {
		out = []model.Winner{}
	}
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.winners), nil
}

// Close stops the metrics updater. Later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// startMetricsUpdater starts a background goroutine that publishes ledger size.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				n := len(s.winners)
				s.mu.RUnlock()
				metrics.UpdateLedgerWinners(n)
			}
		}
	}()
}
