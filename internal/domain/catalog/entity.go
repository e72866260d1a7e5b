// Package catalog defines the reference catalog of known figures that
// candidates are matched against, and the provider contract its storage
// backends implement.
package catalog

import (
	"strings"
	"time"

	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/pkg/errors"
	"github.com/turtacn/FigureLens/pkg/types/common"
)

// Entry is one known figure in the reference catalog.  Entries are treated
// as immutable snapshots by the matching engine; term lists hold canonical
// lower-case vocabulary.
type Entry struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Series      string            `json:"series,omitempty"`
	Variant     string            `json:"variant,omitempty"`
	Rarity      common.RarityTier `json:"rarity,omitempty"`
	Description string            `json:"description,omitempty"`

	Colors      []string `json:"colors,omitempty"`
	Materials   []string `json:"materials,omitempty"`
	KeyFeatures []string `json:"key_features,omitempty"`

	// Features is the measured visual profile of the reference image;
	// nil means none was captured and a neutral default applies.
	Features *feature.VisualFeatures `json:"features,omitempty"`

	ReferenceImageURL string    `json:"reference_image_url,omitempty"`
	ReleasedAt        time.Time `json:"released_at,omitempty"`
}

// Validate checks the structural invariants of an entry.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.InvalidParam("catalog entry id is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return errors.InvalidParam("catalog entry name is required").WithDetail("id=" + e.ID)
	}
	return nil
}

// EffectiveFeatures returns the entry's visual profile, falling back to the
// neutral default when none was captured.  The returned value is a normalized
// deep copy; the stored profile is never written, so concurrent matches can
// share one snapshot.  A hand-authored entry whose vector is missing or has
// the wrong length gets the zero vector, same as DefaultVisualFeatures, and
// scores zero on the vector term instead of failing the match.
func (e *Entry) EffectiveFeatures() feature.VisualFeatures {
	if e.Features == nil {
		return feature.DefaultVisualFeatures()
	}
	vf := e.Features.Clone()
	vf.Normalize()
	if len(vf.FeatureVector) != feature.VectorDim {
		vf.FeatureVector = make([]float32, feature.VectorDim)
	}
	return vf
}

// TextBlob assembles the searchable text of the entry in lower case, for
// lexical overlap scoring.
func (e *Entry) TextBlob() string {
	parts := make([]string, 0, 8)
	for _, s := range []string{e.Name, e.Series, e.Variant, string(e.Rarity), e.Description} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, e.Colors...)
	parts = append(parts, e.Materials...)
	parts = append(parts, e.KeyFeatures...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Filter narrows a catalog listing.  Zero values match everything.
type Filter struct {
	Series string            `json:"series,omitempty"`
	Rarity common.RarityTier `json:"rarity,omitempty"`
	// Query is a case-insensitive substring over the entry's text blob.
	Query string `json:"query,omitempty"`
}

// Matches reports whether the entry passes the filter.
func (f Filter) Matches(e *Entry) bool {
	if f.Series != "" && !strings.EqualFold(f.Series, e.Series) {
		return false
	}
	if f.Rarity != "" && f.Rarity != e.Rarity {
		return false
	}
	if f.Query != "" && !strings.Contains(e.TextBlob(), strings.ToLower(f.Query)) {
		return false
	}
	return true
}
