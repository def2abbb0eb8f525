// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/raffle/internal/domain/model"
)

// Supported ledger drivers.
const (
	LedgerMemory   = "memory"
	LedgerSQLite   = "sqlite"
	LedgerPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RosterPath points at the roster JSON file.
	RosterPath string `koanf:"roster_path"`

	// LedgerDriver is one of memory, sqlite or postgres.
	LedgerDriver string `koanf:"ledger_driver"`

	// LedgerDSN is the data source for sqlite and postgres ledgers.
	LedgerDSN string `koanf:"ledger_dsn"`

	// MaxWinners, DrawFrom and SelectedCategories seed the initial settings.
	MaxWinners         int      `koanf:"max_winners"`
	DrawFrom           string   `koanf:"draw_from"`
	SelectedCategories []string `koanf:"selected_categories"`

	// RNGSeed fixes the sampler seed. Zero draws a secure seed at startup.
	RNGSeed uint64 `koanf:"rng_seed"`

	// EventQueueSize bounds the draw event queue.
	EventQueueSize int `koanf:"event_queue_size"`

	// NotifyWorkers sets the number of draw event workers.
	NotifyWorkers int `koanf:"notify_workers"`

	// RequestKeys bounds the remembered draw idempotency keys. Zero or
	// negative keeps every key.
	RequestKeys int `koanf:"request_keys"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		RosterPath:     "roster.json",
		LedgerDriver:   LedgerMemory,
		MaxWinners:     model.DefaultMaxWinners,
		DrawFrom:       string(model.DrawFromAll),
		EventQueueSize: 1024,
		NotifyWorkers:  1,
		RequestKeys:    1024,
	}
}

// Settings returns the initial raffle settings described by c.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		MaxWinners:         c.MaxWinners,
		DrawFrom:           model.DrawFrom(c.DrawFrom),
		SelectedCategories: append([]string(nil), c.SelectedCategories...),
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	case c.MaxWinners < model.MinWinners || c.MaxWinners > model.MaxWinners:
		return fmt.Errorf("%w: max_winners %d outside [%d, %d]", ErrInvalidConfig, c.MaxWinners, model.MinWinners, model.MaxWinners)
	case !model.DrawFrom(c.DrawFrom).Valid():
		return fmt.Errorf("%w: draw_from %q must be all or filtered", ErrInvalidConfig, c.DrawFrom)
	case c.EventQueueSize < 1:
		return fmt.Errorf("%w: event_queue_size must be positive", ErrInvalidConfig)
	case c.NotifyWorkers < 1:
		return fmt.Errorf("%w: notify_workers must be positive", ErrInvalidConfig)
	}

	switch c.LedgerDriver {
	case LedgerMemory:
	case LedgerSQLite, LedgerPostgres:
		if strings.TrimSpace(c.LedgerDSN) == "" {
			return fmt.Errorf("%w: ledger_dsn is required for %s", ErrInvalidConfig, c.LedgerDriver)
		}
	default:
		return fmt.Errorf("%w: unknown ledger_driver %q", ErrInvalidConfig, c.LedgerDriver)
	}
	return nil
}

// splitList flattens comma-separated entries, as env vars deliver lists as one string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
