// Package scoring computes weighted similarity between a candidate's
// extracted profile and catalog entries, on the visual and the textual axis.
// Scores are deterministic, symmetric where both sides carry the same kind
// of profile, and always in [0,1].
package scoring

import (
	"fmt"
	"math"

	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/pkg/errors"
	"github.com/turtacn/FigureLens/pkg/types/common"
)

// Matched-feature labels reported alongside a visual score.
const (
	AspectColor   = "color palette"
	AspectShape   = "silhouette"
	AspectTexture = "surface texture"
	AspectVector  = "overall appearance"
)

// matchedThreshold is the component score above which an aspect counts as
// matched; when nothing clears it, matchedFallback applies so a best-effort
// explanation is still produced.
const (
	matchedThreshold = 0.7
	matchedFallback  = 0.4
)

// VisualWeights distributes the overall visual score across its components.
// Weights must be non-negative and sum to 1.
type VisualWeights struct {
	Color   float64
	Shape   float64
	Texture float64
	Vector  float64
}

// DefaultVisualWeights returns the tuned production weighting.
func DefaultVisualWeights() VisualWeights {
	return VisualWeights{Color: 0.4, Shape: 0.3, Texture: 0.2, Vector: 0.1}
}

// Validate checks the weight invariants.
func (w VisualWeights) Validate() error {
	for name, v := range map[string]float64{
		"color": w.Color, "shape": w.Shape, "texture": w.Texture, "vector": w.Vector,
	} {
		if v < 0 || math.IsNaN(v) {
			return errors.New(errors.ErrCodeInvalidWeights, "visual weight must be non-negative").
				WithDetail(name)
		}
	}
	sum := w.Color + w.Shape + w.Texture + w.Vector
	if math.Abs(sum-1) > 1e-6 {
		return errors.New(errors.ErrCodeInvalidWeights, "visual weights must sum to 1").
			WithDetail(fmt.Sprintf("sum=%v", sum))
	}
	return nil
}

// VisualScore is the component breakdown of one visual comparison.
type VisualScore struct {
	Overall float64 `json:"overall"`
	Color   float64 `json:"color"`
	Shape   float64 `json:"shape"`
	Texture float64 `json:"texture"`
	Vector  float64 `json:"vector"`
	// MatchedAspects names the components that carried the match, for
	// reporting.  Never empty when Overall > 0.
	MatchedAspects []string           `json:"matched_aspects,omitempty"`
	Band           common.QualityBand `json:"band"`
}

// VisualScorer compares two visual profiles under a fixed weighting.
// Safe for concurrent use.
type VisualScorer struct {
	w VisualWeights
}

// NewVisualScorer validates the weights and builds a scorer.
func NewVisualScorer(w VisualWeights) (*VisualScorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &VisualScorer{w: w}, nil
}

// Score compares a against b.  The only error is a feature-vector dimension
// mismatch, which is never masked as a zero score.
func (s *VisualScorer) Score(a, b *feature.VisualFeatures) (VisualScore, error) {
	vectorSim, err := feature.CosineSimilarity(a.FeatureVector, b.FeatureVector)
	if err != nil {
		return VisualScore{}, err
	}

	sc := VisualScore{
		Color:   colorSimilarity(a, b),
		Shape:   shapeSimilarity(a.Shape, b.Shape),
		Texture: textureSimilarity(a.Texture, b.Texture),
		Vector:  vectorSim,
	}
	sc.Overall = feature.Clamp01(
		s.w.Color*sc.Color + s.w.Shape*sc.Shape + s.w.Texture*sc.Texture + s.w.Vector*sc.Vector)
	sc.Band = common.BandForScore(sc.Overall)
	sc.MatchedAspects = matchedAspects(sc)
	return sc, nil
}

func matchedAspects(sc VisualScore) []string {
	components := []struct {
		label string
		score float64
	}{
		{AspectColor, sc.Color},
		{AspectShape, sc.Shape},
		{AspectTexture, sc.Texture},
		{AspectVector, sc.Vector},
	}
	pick := func(threshold float64) []string {
		var out []string
		for _, c := range components {
			if c.score >= threshold {
				out = append(out, c.label)
			}
		}
		return out
	}
	if m := pick(matchedThreshold); len(m) > 0 {
		return m
	}
	return pick(matchedFallback)
}

// colorSimilarity pairs every dominant color with its closest counterpart on
// the other side and averages the closeness, in both directions so the score
// stays symmetric and a profile compared to itself scores 1.  Either side
// missing color data scores 0.
func colorSimilarity(a, b *feature.VisualFeatures) float64 {
	if len(a.PrimaryColors) == 0 || len(b.PrimaryColors) == 0 {
		return 0
	}
	return (directionalColorSim(a.PrimaryColors, b.PrimaryColors) +
		directionalColorSim(b.PrimaryColors, a.PrimaryColors)) / 2
}

func directionalColorSim(from, to []feature.ColorSample) float64 {
	sum := 0.0
	for _, c := range from {
		cr, cg, cb, ok := feature.ParseHexColor(c.Hex)
		if !ok {
			continue
		}
		best := 0.0
		for _, d := range to {
			dr, dg, db, ok := feature.ParseHexColor(d.Hex)
			if !ok {
				continue
			}
			dist := math.Sqrt((cr-dr)*(cr-dr) + (cg-dg)*(cg-dg) + (cb-db)*(cb-db))
			if s := math.Max(0, 1-dist); s > best {
				best = s
			}
		}
		sum += best
	}
	return feature.Clamp01(sum / float64(len(from)))
}

// shapeSimilarity is the mean of the aspect-ratio, roundness and symmetry
// closeness terms.
func shapeSimilarity(a, b feature.ShapeDescriptor) float64 {
	aspect := 1 - math.Abs(a.AspectRatio-b.AspectRatio)/math.Max(a.AspectRatio, b.AspectRatio)
	if math.IsNaN(aspect) {
		aspect = 0
	}
	sim := aspect
	sim += 1 - math.Abs(a.Roundness-b.Roundness)
	sim += 1 - math.Abs(a.Symmetry-b.Symmetry)
	return feature.Clamp01(sim / 3)
}

// textureSimilarity is the mean of the smoothness and roughness closeness
// terms and a binary material-type indicator.
func textureSimilarity(a, b feature.TextureFeatures) float64 {
	sim := 1 - math.Abs(a.Smoothness-b.Smoothness)
	sim += 1 - math.Abs(a.Roughness-b.Roughness)
	if a.MaterialType == b.MaterialType {
		sim++
	}
	return feature.Clamp01(sim / 3)
}
