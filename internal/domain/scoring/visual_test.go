package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FigureLens/internal/domain/feature"
	apperrors "github.com/turtacn/FigureLens/pkg/errors"
	"github.com/turtacn/FigureLens/pkg/types/common"
)

func plushProfile() *feature.VisualFeatures {
	vf := &feature.VisualFeatures{
		PrimaryColors: []feature.ColorSample{
			{Hex: "#1E3C78", Percentage: 0.55, Region: common.RegionBody},
			{Hex: "#F5F5F0", Percentage: 0.35, Region: common.RegionFace},
			{Hex: "#6B4A2F", Percentage: 0.10, Region: common.RegionAccessory},
		},
		ColorDistribution: map[string]float64{"navy": 0.55, "white": 0.35, "brown": 0.10},
		Shape:             feature.ShapeDescriptor{AspectRatio: 0.8, Roundness: 0.85, Symmetry: 0.9, Complexity: 0.4},
		Texture:           feature.TextureFeatures{Smoothness: 0.4, Roughness: 0.6, MaterialType: common.MaterialPlush},
		FeatureVector:     []float32{0.3, 0.2, 0.6, 0.5, 0.5, 0.2, 0.4, 0.5, 0.45, 0.3},
	}
	return vf.Normalize()
}

func vinylProfile() *feature.VisualFeatures {
	vf := &feature.VisualFeatures{
		PrimaryColors: []feature.ColorSample{
			{Hex: "#F2A0C0", Percentage: 0.7, Region: common.RegionBody},
			{Hex: "#101010", Percentage: 0.3, Region: common.RegionOutfit},
		},
		ColorDistribution: map[string]float64{"pink": 0.7, "black": 0.3},
		Shape:             feature.ShapeDescriptor{AspectRatio: 0.5, Roundness: 0.3, Symmetry: 0.5, Complexity: 0.9},
		Texture:           feature.TextureFeatures{Smoothness: 0.9, Roughness: 0.1, MaterialType: common.MaterialVinyl},
		FeatureVector:     []float32{0.8, 0.6, 0.9, 0.2, 0.8, 0.7, 0.9, 0.3, 0.55, 0.9},
	}
	return vf.Normalize()
}

func TestVisualWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultVisualWeights().Validate())

	bad := VisualWeights{Color: 0.5, Shape: 0.5, Texture: 0.5, Vector: 0.5}
	err := bad.Validate()
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidWeights))

	neg := VisualWeights{Color: -0.1, Shape: 0.5, Texture: 0.3, Vector: 0.3}
	assert.True(t, apperrors.IsCode(neg.Validate(), apperrors.ErrCodeInvalidWeights))
}

func TestVisualScoreSelfSimilarityIsOne(t *testing.T) {
	s, err := NewVisualScorer(DefaultVisualWeights())
	require.NoError(t, err)

	sc, err := s.Score(plushProfile(), plushProfile())
	require.NoError(t, err)

	assert.InDelta(t, 1.0, sc.Overall, 1e-9)
	assert.Equal(t, common.QualityExcellent, sc.Band)
	assert.ElementsMatch(t,
		[]string{AspectColor, AspectShape, AspectTexture, AspectVector},
		sc.MatchedAspects)
}

func TestVisualScoreSymmetricAndBounded(t *testing.T) {
	s, err := NewVisualScorer(DefaultVisualWeights())
	require.NoError(t, err)

	a, b := plushProfile(), vinylProfile()
	ab, err := s.Score(a, b)
	require.NoError(t, err)
	ba, err := s.Score(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab.Overall, ba.Overall)
	assert.GreaterOrEqual(t, ab.Overall, 0.0)
	assert.LessOrEqual(t, ab.Overall, 1.0)
	assert.Less(t, ab.Overall, 0.8, "dissimilar figures must not score high")
}

func TestVisualScoreDeterministic(t *testing.T) {
	s, err := NewVisualScorer(DefaultVisualWeights())
	require.NoError(t, err)

	first, err := s.Score(plushProfile(), vinylProfile())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := s.Score(plushProfile(), vinylProfile())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestVisualScoreDimensionMismatchIsHardError(t *testing.T) {
	s, err := NewVisualScorer(DefaultVisualWeights())
	require.NoError(t, err)

	short := plushProfile()
	short.FeatureVector = []float32{1, 2, 3}

	_, err = s.Score(plushProfile(), short)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeVectorDimMismatch))
}

func TestMatchedAspectsFallback(t *testing.T) {
	sc := VisualScore{Color: 0.45, Shape: 0.5, Texture: 0.2, Vector: 0.1}
	assert.Equal(t, []string{AspectColor, AspectShape}, matchedAspects(sc))

	strong := VisualScore{Color: 0.95, Shape: 0.5, Texture: 0.75, Vector: 0.1}
	assert.Equal(t, []string{AspectColor, AspectTexture}, matchedAspects(strong))
}

func TestColorSimilarityMissingColorsScoreZero(t *testing.T) {
	empty := (&feature.VisualFeatures{}).Normalize()

	assert.Zero(t, colorSimilarity(empty, empty))
	assert.Zero(t, colorSimilarity(empty, plushProfile()))
	assert.Zero(t, colorSimilarity(plushProfile(), empty))
}

func TestColorSimilarityIdenticalPalette(t *testing.T) {
	assert.InDelta(t, 1.0, colorSimilarity(plushProfile(), plushProfile()), 1e-9)
}
