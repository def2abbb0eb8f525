package rosterkit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/logger"
)

// Generation ranges.
const (
	npsMin       = 40.0
	npsRange     = 60.0
	nrpcRange    = 30.0
	refundRange  = 8.0
	maxTickets   = 120
	zeroTicketPc = 5 // percent of guides with no tickets
	supervisors  = 4

	filePermission      = 0o600
	directoryPermission = 0o750
)

var firstNames = []string{"Ana", "Ben", "Chloe", "Dev", "Elif", "Femi", "Gus", "Hana", "Ivo", "Jae", "Kofi", "Lena"}
var lastNames = []string{"Park", "Silva", "Okafor", "Novak", "Reyes", "Khan", "Berg", "Moreau"}

// Generate builds a roster of n guides. The same seed always produces the
// same roster, ids included.
func Generate(n int, seed uint64, departments []string) []model.Candidate {
	if len(departments) == 0 {
		departments = DefaultDepartments
	}
	src := rand.NewChaCha8(seedBytes(seed))
	rng := rand.New(src)

	guides := make([]model.Candidate, n)
	for i := range guides {
		dept := departments[i%len(departments)]
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			// ChaCha8 reads never fail.
			panic(err)
		}
		tickets := uint64(rng.IntN(maxTickets) + 1)
		if rng.IntN(100) < zeroTicketPc {
			tickets = 0
		}
		guides[i] = model.Candidate{
			ID:            id.String(),
			Name:          firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))],
			Department:    dept,
			Supervisor:    fmt.Sprintf("%s Lead %d", dept, i%supervisors+1),
			NPS:           round1(npsMin + rng.Float64()*npsRange),
			NRPC:          round1(rng.Float64() * nrpcRange),
			RefundPercent: round1(rng.Float64() * refundRange),
			TotalTickets:  tickets,
		}
	}
	return guides
}

func seedBytes(seed uint64) [32]byte {
	var b [32]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(seed >> (8 * i))
	}
	return b
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// WriteRoster writes guides to path as a {"guides": [...]} document.
func WriteRoster(ctx context.Context, path string, guides []model.Candidate) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(struct {
		Guides []model.Candidate `json:"guides"`
	}{guides}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}
	logger.Get().Info(ctx, "roster written", logger.String("path", path), logger.Int("guides", len(guides)))
	return nil
}
