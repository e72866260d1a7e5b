// Package feature defines the visual feature model of a photographed figure
// and the extractor that computes it from image bytes.  Features are immutable
// once computed; every bounded field is clamped into its documented range
// before storage so downstream scorers can rely on the invariants.
package feature

import (
	"math"
	"strconv"

	"github.com/turtacn/FigureLens/pkg/errors"
	"github.com/turtacn/FigureLens/pkg/types/common"
)

// VectorDim is the fixed length of the feature vector (embedding) used across
// the engine.  Two vectors are comparable only when both have this length;
// mismatches are a hard error at comparison time, never a silent zero score.
const VectorDim = 10

// ColorSample is one dominant color of the figure: its hex value, the fraction
// of the figure it covers, and where on the figure it was sampled.
// Percentages across samples need not sum to 1.
type ColorSample struct {
	Hex        string            `json:"hex"`
	Percentage float64           `json:"percentage"`
	Region     common.BodyRegion `json:"region"`
}

// Point is a normalized 2D contour point in [0,1]×[0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ShapeDescriptor summarises the silhouette of the figure.
type ShapeDescriptor struct {
	// AspectRatio is width/height of the bounding geometry, always > 0.
	AspectRatio float64 `json:"aspect_ratio"`
	// Roundness, Symmetry and Complexity are heuristics in [0,1].
	Roundness  float64 `json:"roundness"`
	Symmetry   float64 `json:"symmetry"`
	Complexity float64 `json:"complexity"`
	// KeyPoints are representative contour points; may be empty.
	KeyPoints []Point `json:"key_points,omitempty"`
}

// TextureFeatures summarises the surface of the figure.
type TextureFeatures struct {
	Smoothness   float64             `json:"smoothness"` // [0,1]
	Roughness    float64             `json:"roughness"`  // [0,1]
	Patterns     []string            `json:"patterns,omitempty"`
	MaterialType common.MaterialType `json:"material_type"`
}

// VisualFeatures is the complete visual profile of one image, immutable once
// computed.
type VisualFeatures struct {
	PrimaryColors     []ColorSample      `json:"primary_colors"`
	ColorDistribution map[string]float64 `json:"color_distribution"`
	Shape             ShapeDescriptor    `json:"shape"`
	Texture           TextureFeatures    `json:"texture"`
	SpecialMarks      []string           `json:"special_marks,omitempty"`
	FeatureVector     []float32          `json:"feature_vector"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Defaults
// ─────────────────────────────────────────────────────────────────────────────

// NeutralShape is the documented fallback when contour detection yields no
// points.  The engine is tuned for mostly-round plush and vinyl figures, so a
// neutral round-ish prior is safer than rejecting the image.
func NeutralShape() ShapeDescriptor {
	return ShapeDescriptor{
		AspectRatio: 1.0,
		Roundness:   0.8,
		Symmetry:    0.7,
		Complexity:  0.5,
	}
}

// DefaultTexture is the fallback when texture analysis fails: the most common
// material in the reference catalog with mid smoothness.
func DefaultTexture() TextureFeatures {
	return TextureFeatures{
		Smoothness:   0.7,
		Roughness:    0.3,
		MaterialType: common.MaterialPlush,
	}
}

// DefaultVisualFeatures is the profile assumed for catalog entries that carry
// no measured features.
func DefaultVisualFeatures() VisualFeatures {
	return VisualFeatures{
		ColorDistribution: map[string]float64{},
		Shape: ShapeDescriptor{
			AspectRatio: 0.8,
			Roundness:   0.85,
			Symmetry:    0.9,
			Complexity:  0.4,
		},
		Texture:       DefaultTexture(),
		FeatureVector: make([]float32, VectorDim),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Invariant enforcement
// ─────────────────────────────────────────────────────────────────────────────

// Clone returns a deep copy of f.  Catalog snapshots share feature profiles
// across concurrent matches, so any caller that normalizes or otherwise
// adjusts a profile must clone first; writing through the shared slices or
// the distribution map is a data race.
func (f *VisualFeatures) Clone() VisualFeatures {
	out := *f
	if f.PrimaryColors != nil {
		out.PrimaryColors = append([]ColorSample(nil), f.PrimaryColors...)
	}
	if f.ColorDistribution != nil {
		out.ColorDistribution = make(map[string]float64, len(f.ColorDistribution))
		for name, frac := range f.ColorDistribution {
			out.ColorDistribution[name] = frac
		}
	}
	if f.Shape.KeyPoints != nil {
		out.Shape.KeyPoints = append([]Point(nil), f.Shape.KeyPoints...)
	}
	if f.Texture.Patterns != nil {
		out.Texture.Patterns = append([]string(nil), f.Texture.Patterns...)
	}
	if f.SpecialMarks != nil {
		out.SpecialMarks = append([]string(nil), f.SpecialMarks...)
	}
	if f.FeatureVector != nil {
		out.FeatureVector = append([]float32(nil), f.FeatureVector...)
	}
	return out
}

// Clamp01 restricts v to [0,1].  NaN clamps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Normalize clamps every bounded field of f into its documented range and
// returns the receiver for chaining.  Extraction always normalizes before
// returning, and deserialization boundaries must do the same so no
// out-of-range value crosses into scoring.
func (f *VisualFeatures) Normalize() *VisualFeatures {
	for i := range f.PrimaryColors {
		f.PrimaryColors[i].Percentage = Clamp01(f.PrimaryColors[i].Percentage)
	}
	for name, frac := range f.ColorDistribution {
		f.ColorDistribution[name] = Clamp01(frac)
	}
	if f.Shape.AspectRatio <= 0 || math.IsNaN(f.Shape.AspectRatio) {
		f.Shape.AspectRatio = 1.0
	}
	f.Shape.Roundness = Clamp01(f.Shape.Roundness)
	f.Shape.Symmetry = Clamp01(f.Shape.Symmetry)
	f.Shape.Complexity = Clamp01(f.Shape.Complexity)
	f.Texture.Smoothness = Clamp01(f.Texture.Smoothness)
	f.Texture.Roughness = Clamp01(f.Texture.Roughness)
	if !f.Texture.MaterialType.IsValid() {
		f.Texture.MaterialType = common.MaterialUnknown
	}
	return f
}

// ValidateVector checks that two vectors are comparable.  Length mismatch is a
// hard error carrying ErrCodeVectorDimMismatch.
func ValidateVector(a, b []float32) error {
	if len(a) != len(b) {
		return errors.New(errors.ErrCodeVectorDimMismatch,
			"feature vectors have different dimensions").
			WithDetail(formatDims(len(a), len(b)))
	}
	return nil
}

func formatDims(a, b int) string {
	return strconv.Itoa(a) + " vs " + strconv.Itoa(b)
}

// ParseHexColor parses "#RRGGBB" (leading # optional, case-insensitive) into
// channels in [0,1].  ok is false for anything else.
func ParseHexColor(s string) (r, g, b float64, ok bool) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	r = float64(v>>16&0xff) / 255
	g = float64(v>>8&0xff) / 255
	b = float64(v&0xff) / 255
	return r, g, b, true
}
