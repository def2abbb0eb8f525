package repository

import (
	"time"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/logger"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithFaultInjector installs a hook consulted before every append. A non-nil
// return fails the append without recording anything.
func WithFaultInjector(fault func([]model.Winner) error) Option {
	return func(s *MemoryStore) {
		s.fault = fault
	}
}

// SQLOption applies a configuration option to the SQLStore.
type SQLOption func(*SQLStore)

// WithSQLLogger sets the logger used by the SQL store.
func WithSQLLogger(l logger.Logger) SQLOption {
	return func(s *SQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxOpenConns caps the connection pool. sqlite in-memory databases need 1.
func WithMaxOpenConns(n int) SQLOption {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}
