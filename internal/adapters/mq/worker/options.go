// Package worker drains draw events and fans them out to publishers.
package worker

import (
	"github.com/okian/raffle/pkg/logger"
)

// Option applies a configuration option to the Notifier.
type Option func(*Notifier)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Notifier) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Notifier) {
		if l != nil {
			w.logger = l
		}
	}
}
