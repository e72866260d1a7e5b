// Package text turns free-form figure descriptions into a structured analysis
// the matching engine can score: colors, materials, key features, series and
// name hints, with a calibrated confidence.
package text

import (
	"sort"
	"strings"

	"github.com/turtacn/FigureLens/internal/domain/feature"
)

// Analysis is the structured reading of one description.  All term lists hold
// canonical vocabulary terms in lower case; Confidence is in [0,1].
type Analysis struct {
	Summary     string   `json:"summary,omitempty"`
	NameHints   []string `json:"name_hints,omitempty"`
	SeriesHints []string `json:"series_hints,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	Materials   []string `json:"materials,omitempty"`
	KeyFeatures []string `json:"key_features,omitempty"`
	Confidence  float64  `json:"confidence"`
	// IsMatchCandidate reports whether the description plausibly refers to
	// a catalog figure at all.
	IsMatchCandidate bool `json:"is_match_candidate"`
	// Structured records whether the analysis came from a well-formed
	// payload or from the keyword fallback.
	Structured bool `json:"structured"`
}

// Normalize lowercases, deduplicates and sorts every term list and clamps
// the confidence.  Returns the receiver for chaining.
func (a *Analysis) Normalize() *Analysis {
	a.NameHints = normalizeTerms(a.NameHints)
	a.SeriesHints = normalizeTerms(a.SeriesHints)
	a.Colors = normalizeTerms(a.Colors)
	a.Materials = normalizeTerms(a.Materials)
	a.KeyFeatures = normalizeTerms(a.KeyFeatures)
	a.Confidence = feature.Clamp01(a.Confidence)
	return a
}

// Empty reports whether the analysis carries no usable signal.
func (a *Analysis) Empty() bool {
	return len(a.NameHints) == 0 && len(a.SeriesHints) == 0 &&
		len(a.Colors) == 0 && len(a.Materials) == 0 && len(a.KeyFeatures) == 0
}

func normalizeTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	out := terms[:0]
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
