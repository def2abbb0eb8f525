package raffle

import (
	"time"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/internal/domain/sampler"
	"github.com/okian/raffle/pkg/logger"
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithSampler sets the weighted sampler.
func WithSampler(s sampler.Sampler) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sampler = s
		}
	}
}

// WithClock sets the time source used for WonAt and RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the generator for winner and draw ids.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSettings sets the initial settings. They are validated by New.
func WithSettings(s model.Settings) Option {
	return func(o *Orchestrator) {
		o.settings = s
	}
}

// WithObserver registers an observer notified after every recorded draw.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}
