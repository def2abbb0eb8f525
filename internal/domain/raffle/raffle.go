// Package raffle coordinates draws end to end.
//
// An Orchestrator validates settings, asks the pool for eligible candidates,
// samples winners, and records them in the ledger. At most one draw runs at
// a time; a second caller is rejected with ErrConcurrentDraw rather than
// queued.
package raffle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/internal/domain/pool"
	"github.com/okian/raffle/internal/domain/sampler"
	"github.com/okian/raffle/pkg/logger"
	"github.com/okian/raffle/pkg/metrics"
)

// Ledger is the persisted winner record.
type Ledger interface {
	// Append records a batch atomically: all winners or none.
	Append(ctx context.Context, winners []model.Winner) error
	// ListAll returns every recorded winner in insertion order.
	ListAll(ctx context.Context) ([]model.Winner, error)
}

// Observer is told about each draw that reached the ledger. It runs on the
// drawing goroutine and must not block.
type Observer interface {
	DrawCompleted(ctx context.Context, e model.DrawEvent)
}

// State is the orchestrator's draw state.
type State int32

// Draw states.
const (
	StateIdle State = iota
	StateDrawing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Orchestrator runs draws against a fixed roster.
type Orchestrator struct {
	roster      []model.Candidate
	departments map[string]struct{}
	ledger      Ledger
	sampler     sampler.Sampler
	observers   []Observer
	now         func() time.Time
	newID       func() string
	logger      logger.Logger

	state atomic.Int32

	mu       sync.RWMutex
	settings model.Settings
}

// New creates an Orchestrator over roster and ledger. The roster is copied.
func New(roster []model.Candidate, ledger Ledger, opts ...Option) (*Orchestrator, error) {
	if ledger == nil {
		return nil, errors.New("raffle: ledger is required")
	}
	o := &Orchestrator{
		roster:      slices.Clone(roster),
		departments: make(map[string]struct{}),
		ledger:      ledger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		logger:      logger.NewNop(),
		settings:    model.DefaultSettings(),
	}
	for _, c := range o.roster {
		o.departments[c.Department] = struct{}{}
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.sampler == nil {
		o.sampler = sampler.New()
	}
	if err := o.validate(o.settings); err != nil {
		return nil, err
	}
	o.settings = o.settings.Normalize()
	metrics.UpdateRosterSize(len(o.roster))
	return o, nil
}

// Configure validates and installs new settings. A draw already running
// keeps the settings it started with.
func (o *Orchestrator) Configure(settings model.Settings) error {
	if err := o.validate(settings); err != nil {
		metrics.RecordSettingsUpdate(metrics.SettingsResultRejected)
		return err
	}
	normalized := settings.Normalize()
	o.mu.Lock()
	o.settings = normalized
	o.mu.Unlock()
	metrics.RecordSettingsUpdate(metrics.SettingsResultAccepted)
	return nil
}

func (o *Orchestrator) validate(s model.Settings) error {
	const op = "raffle.configure"
	if s.MaxWinners < model.MinWinners || s.MaxWinners > model.MaxWinners {
		return newError(op, ErrInvalidSettings,
			fmt.Errorf("maxWinners %d outside [%d, %d]", s.MaxWinners, model.MinWinners, model.MaxWinners))
	}
	if !s.DrawFrom.Valid() {
		return newError(op, ErrInvalidSettings, fmt.Errorf("unknown drawFrom %q", s.DrawFrom))
	}
	if s.DrawFrom == model.DrawFromFiltered {
		for _, c := range s.SelectedCategories {
			if _, ok := o.departments[c]; !ok {
				return newError(op, ErrInvalidSettings, fmt.Errorf("unknown category %q", c))
			}
		}
	}
	return nil
}

// Settings returns a copy of the current settings.
func (o *Orchestrator) Settings() model.Settings {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.settings.Clone()
}

// State reports whether a draw is running.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Roster returns a copy of the roster.
func (o *Orchestrator) Roster() []model.Candidate {
	return slices.Clone(o.roster)
}

// Departments returns the roster's departments, sorted.
func (o *Orchestrator) Departments() []string {
	return pool.Departments(o.roster)
}

// CurrentEligiblePool returns the candidates the next draw would sample from.
func (o *Orchestrator) CurrentEligiblePool(ctx context.Context) ([]model.Candidate, error) {
	const op = "raffle.current_pool"
	winners, err := o.ledger.ListAll(ctx)
	if err != nil {
		return nil, newError(op, ErrPersistence, err)
	}
	return pool.Eligible(o.roster, winners, o.Settings()), nil
}

// RunDraw performs one draw and returns the recorded winners in draw order.
//
// Once the draw has started it runs to completion: cancellation of ctx is
// not propagated to the ledger. When the ledger rejects the batch nothing is
// recorded and the same candidates stay eligible for a retry.
func (o *Orchestrator) RunDraw(ctx context.Context) ([]model.Winner, error) {
	const op = "raffle.run_draw"
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateDrawing)) {
		metrics.RecordDraw(metrics.OutcomeConcurrent, 0)
		return nil, newError(op, ErrConcurrentDraw, nil)
	}
	defer o.state.Store(int32(StateIdle))

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	settings := o.Settings()

	winners, err := o.draw(ctx, op, settings)
	elapsed := time.Since(start)
	durationMs := float64(elapsed) / float64(time.Millisecond)
	if err != nil {
		metrics.RecordDraw(outcome(err), durationMs)
		o.logger.Warn(ctx, "draw failed",
			logger.String("outcome", outcome(err)),
			logger.Duration("took", elapsed),
			logger.Error(err),
		)
		return nil, err
	}

	metrics.RecordDraw(metrics.OutcomeSuccess, durationMs)
	metrics.RecordWinnersDrawn(len(winners))
	return winners, nil
}

func (o *Orchestrator) draw(ctx context.Context, op string, settings model.Settings) ([]model.Winner, error) {
	recorded, err := o.ledger.ListAll(ctx)
	if err != nil {
		return nil, newError(op, ErrPersistence, err)
	}
	eligible := pool.Eligible(o.roster, recorded, settings)
	summary := pool.Summarize(eligible)
	metrics.UpdateEligiblePool(summary.Candidates, summary.TotalTickets)
	if len(eligible) == 0 {
		return nil, newError(op, ErrEmptyPool, nil)
	}

	k := min(settings.MaxWinners, len(eligible))
	ids, err := o.sampler.Select(pool.Entries(eligible), k)
	if err != nil {
		o.logger.Error(ctx, "sampler rejected a clamped draw",
			logger.Int("k", k),
			logger.Int("pool", len(eligible)),
			logger.Error(err),
		)
		return nil, newError(op, ErrInternal, err)
	}

	byID := make(map[string]model.Candidate, len(eligible))
	for _, c := range eligible {
		byID[c.ID] = c
	}
	at := o.now()
	winners := make([]model.Winner, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, newError(op, ErrInternal, fmt.Errorf("sampler returned unknown id %q", id))
		}
		winners = append(winners, model.NewWinner(o.newID(), c, at))
	}

	appendStart := time.Now()
	if err := o.ledger.Append(ctx, winners); err != nil {
		metrics.RecordLedgerAppendError()
		return nil, newError(op, ErrPersistence, err)
	}
	metrics.RecordLedgerAppendLatency(float64(time.Since(appendStart)) / float64(time.Millisecond))
	metrics.UpdateLedgerWinners(len(recorded) + len(winners))

	event := model.DrawEvent{
		DrawID:      o.newID(),
		Winners:     slices.Clone(winners),
		Settings:    settings,
		PoolSize:    summary.Candidates,
		PoolTickets: summary.TotalTickets,
		DrawnAt:     at,
	}
	o.logger.Info(ctx, "draw recorded",
		logger.String("drawId", event.DrawID),
		logger.Int("winners", len(winners)),
		logger.Int("pool", summary.Candidates),
		logger.Uint64("poolTickets", summary.TotalTickets),
		logger.String("drawFrom", string(settings.DrawFrom)),
		logger.Strings("categories", settings.SelectedCategories),
	)
	for _, obs := range o.observers {
		obs.DrawCompleted(ctx, event)
	}
	return winners, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrConcurrentDraw):
		return metrics.OutcomeConcurrent
	case errors.Is(err, ErrEmptyPool):
		return metrics.OutcomeEmptyPool
	case errors.Is(err, ErrPersistence):
		return metrics.OutcomePersistence
	default:
		return metrics.OutcomeInternal
	}
}
