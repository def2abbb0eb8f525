package rosterkit

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/raffle/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// SetupLogging logs to stdout and, when logFile is set, to that file too.
func SetupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.InitWithWriter(w, logger.FormatText); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// DefaultRosterFile returns a timestamped roster file name.
func DefaultRosterFile() string {
	return "roster_" + time.Now().Format("20060102_150405") + ".json"
}

// ShowHelp prints usage information.
func ShowHelp() {
	os.Stdout.WriteString(`Raffle Roster Kit
=================

Generates synthetic rosters and checks a running raffle service end to end.

Usage:
  go run ./cmd/rostergen generate [options]
  go run ./cmd/rostergen run [options]

Commands:
  generate   write a seeded roster JSON file
  run        draw against a service and verify its winner ledger

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -guides int
        Number of guides to generate (default 200)
  -departments string
        Comma-separated department names
  -seed uint
        Generator seed (default 1)
  -draws int
        Maximum draws to run; 0 drains the pool (default 0)
  -roster string
        Roster file to write (generate) or verify against (run)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Also write logs to this file
  -verbose
        Log every winner
  -help
        Show this help message

Environment variables prefixed with ROSTERKIT_ (for example ROSTERKIT_URL)
provide defaults; a .env file in the working directory is read first.

Examples:
  go run ./cmd/rostergen generate -guides 500 -seed 42 -roster roster.json
  go run ./cmd/rostergen run -roster roster.json -verbose
`)
}
