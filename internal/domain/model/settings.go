package model

import "slices"

// Bounds for Settings.MaxWinners.
const (
	MinWinners = 1
	MaxWinners = 28

	DefaultMaxWinners = 5
)

// DrawFrom selects which part of the roster a draw samples from.
type DrawFrom string

// Supported draw sources.
const (
	DrawFromAll      DrawFrom = "all"
	DrawFromFiltered DrawFrom = "filtered"
)

// Valid reports whether d is a known draw source.
func (d DrawFrom) Valid() bool {
	return d == DrawFromAll || d == DrawFromFiltered
}

// Settings configures a draw. Callers replace it wholesale between draws.
type Settings struct {
	MaxWinners         int      `json:"maxWinners"`
	DrawFrom           DrawFrom `json:"drawFrom"`
	SelectedCategories []string `json:"selectedCategories"`
}

// DefaultSettings returns the settings a fresh raffle starts with.
func DefaultSettings() Settings {
	return Settings{
		MaxWinners: DefaultMaxWinners,
		DrawFrom:   DrawFromAll,
	}
}

// Filtering reports whether the settings restrict the pool to categories.
// An empty category set under DrawFromFiltered means the whole roster.
func (s Settings) Filtering() bool {
	return s.DrawFrom == DrawFromFiltered && len(s.SelectedCategories) > 0
}

// Clone returns a copy that shares no slice storage with s.
func (s Settings) Clone() Settings {
	s.SelectedCategories = slices.Clone(s.SelectedCategories)
	return s
}

// Normalize drops categories when drawing from the whole roster and removes
// duplicate category names, keeping first occurrence order.
func (s Settings) Normalize() Settings {
	out := s.Clone()
	if out.DrawFrom == DrawFromAll {
		out.SelectedCategories = nil
		return out
	}
	seen := make(map[string]struct{}, len(out.SelectedCategories))
	uniq := out.SelectedCategories[:0]
	for _, c := range out.SelectedCategories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		uniq = append(uniq, c)
	}
	out.SelectedCategories = uniq
	return out
}

// ClampMaxWinners forces n into [MinWinners, MaxWinners].
func ClampMaxWinners(n int) int {
	return min(MaxWinners, max(MinWinners, n))
}
