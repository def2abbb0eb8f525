// Package roster reads the guide roster a raffle draws from.
//
// The file is JSON: either a bare array of guides or an object with a
// "guides" array. Field names are accepted in camelCase or snake_case.
package roster

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"strings"

	"github.com/jmoiron/jsonq"

	"github.com/okian/raffle/internal/domain/model"
)

// Load reads and validates the roster at path.
func Load(path string) ([]model.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads and validates a roster document.
func Parse(r io.Reader) ([]model.Candidate, error) {
	var doc interface{}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}

	root, ok := doc.(map[string]interface{})
	if !ok {
		arr, isArr := doc.([]interface{})
		if !isArr {
			return nil, fmt.Errorf("%w: expected an array or an object with \"guides\"", ErrInvalidRoster)
		}
		root = map[string]interface{}{"guides": arr}
	}

	entries, err := jsonq.NewQuery(root).ArrayOfObjects("guides")
	if err != nil {
		return nil, fmt.Errorf("%w: guides: %w", ErrInvalidRoster, err)
	}

	out := make([]model.Candidate, 0, len(entries))
	seen := make(map[string]int, len(entries))
	var total uint64
	for i, entry := range entries {
		c, err := candidate(jsonq.NewQuery(entry))
		if err != nil {
			return nil, fmt.Errorf("%w: guide %d: %w", ErrInvalidRoster, i, err)
		}
		if j, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: %q at %d and %d", ErrDuplicateID, c.ID, j, i)
		}
		seen[c.ID] = i
		var carry uint64
		if total, carry = bits.Add64(total, c.TotalTickets, 0); carry != 0 {
			return nil, fmt.Errorf("%w: total tickets overflow at guide %d", ErrInvalidRoster, i)
		}
		out = append(out, c)
	}
	return out, nil
}

// maxTickets is the largest float64 below 2^63, so a guide's tickets fit a
// signed 64-bit ledger column.
const maxTickets = math.MaxInt64 - 1023

func candidate(q *jsonq.JsonQuery) (model.Candidate, error) {
	var c model.Candidate

	id, err := q.String("id")
	if err != nil || strings.TrimSpace(id) == "" {
		return c, ErrMissingID
	}
	c.ID = id
	c.Name = optionalString(q, "name")
	c.Department = optionalString(q, "department")
	c.Supervisor = optionalString(q, "supervisor")

	if c.NPS, err = optionalFloat(q, "nps"); err != nil {
		return c, err
	}
	if c.NRPC, err = optionalFloat(q, "nrpc"); err != nil {
		return c, err
	}
	if c.RefundPercent, err = optionalFloat(q, "refundPercent", "refund_percent"); err != nil {
		return c, err
	}
	tickets, err := optionalFloat(q, "totalTickets", "total_tickets")
	if err != nil {
		return c, err
	}

	switch {
	case c.NPS < 0 || c.NPS > 100:
		return c, fmt.Errorf("nps %v outside [0, 100]", c.NPS)
	case c.NRPC < 0 || c.NRPC > 100:
		return c, fmt.Errorf("nrpc %v outside [0, 100]", c.NRPC)
	case tickets < 0:
		return c, fmt.Errorf("totalTickets %v is negative", tickets)
	case tickets != math.Trunc(tickets):
		return c, fmt.Errorf("totalTickets %v is not a whole number", tickets)
	case tickets > maxTickets:
		return c, fmt.Errorf("totalTickets %v exceeds %d", tickets, int64(math.MaxInt64))
	}
	c.TotalTickets = uint64(tickets)
	return c, nil
}

func optionalString(q *jsonq.JsonQuery, key string) string {
	s, err := q.String(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// optionalFloat returns the first present key. Missing keys read as zero;
// a present key of the wrong type is an error.
func optionalFloat(q *jsonq.JsonQuery, keys ...string) (float64, error) {
	for _, key := range keys {
		raw, err := q.Interface(key)
		if err != nil || raw == nil {
			continue
		}
		f, ok := raw.(float64)
		if !ok {
			return 0, fmt.Errorf("%s must be a number", key)
		}
		return f, nil
	}
	return 0, nil
}
