package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/raffle/internal/rosterkit"
)

// Default configuration constants.
const (
	defaultURL     = "http://localhost:9080"
	defaultGuides  = 200
	defaultSeed    = 1
	defaultTimeout = 30 * time.Second
	runTimeout     = 10 * time.Minute
	envPrefix      = "ROSTERKIT_"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("failed to read .env: " + err.Error() + "\n")
		os.Exit(1)
	}

	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		rosterkit.ShowHelp()
		return
	}
	command := os.Args[1]

	fset := flag.NewFlagSet(command, flag.ExitOnError)
	var (
		baseURL     = fset.String("url", envString("URL", defaultURL), "Base URL of the service")
		guides      = fset.Int("guides", envInt("GUIDES", defaultGuides), "Number of guides to generate")
		departments = fset.String("departments", envString("DEPARTMENTS", ""), "Comma-separated department names")
		seed        = fset.Uint64("seed", uint64(envInt("SEED", defaultSeed)), "Generator seed")
		draws       = fset.Int("draws", envInt("DRAWS", 0), "Maximum draws to run; 0 drains the pool")
		rosterFile  = fset.String("roster", envString("ROSTER", ""), "Roster file to write or verify against")
		timeout     = fset.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile     = fset.String("log", "", "Also write logs to this file")
		verbose     = fset.Bool("verbose", false, "Log every winner")
		help        = fset.Bool("help", false, "Show help")
	)
	_ = fset.Parse(os.Args[2:])

	if *help {
		rosterkit.ShowHelp()
		return
	}

	if err := rosterkit.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := &rosterkit.Config{
		BaseURL:     *baseURL,
		Guides:      *guides,
		Departments: splitList(*departments),
		Seed:        *seed,
		Draws:       *draws,
		Timeout:     *timeout,
		RosterFile:  *rosterFile,
		Verbose:     *verbose,
	}

	var err error
	switch command {
	case "generate":
		err = rosterkit.GenerateFile(ctx, cfg)
	case "run":
		_, err = rosterkit.Run(ctx, cfg)
	default:
		rosterkit.ShowHelp()
		os.Exit(2)
	}
	if err != nil {
		os.Stderr.WriteString(command + " failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(envString(key, ""))
	if err != nil {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
