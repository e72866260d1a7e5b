package feature

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/FigureLens/pkg/errors"
	"github.com/turtacn/FigureLens/pkg/types/common"
)

// testImage renders a red disc with a blue band on a white background, a
// rough stand-in for a photographed figure.
func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	cx, cy := w/2, h/2
	r := w / 3
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x-cx, y-cy
			switch {
			case dx*dx+dy*dy > r*r:
				img.Set(x, y, color.White)
			case y > cy+r/2:
				img.Set(x, y, color.RGBA{30, 60, 200, 255})
			default:
				img.Set(x, y, color.RGBA{210, 40, 40, 255})
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtractProducesBoundedFeatures(t *testing.T) {
	e := NewExtractor(ExtractorConfig{}, nil)
	vf, err := e.Extract(context.Background(), encodePNG(t, testImage(320, 320)))
	require.NoError(t, err)

	require.Len(t, vf.FeatureVector, VectorDim)
	for i, v := range vf.FeatureVector {
		assert.GreaterOrEqual(t, float64(v), 0.0, "dim %d", i)
		assert.LessOrEqual(t, float64(v), 1.0, "dim %d", i)
	}
	assert.NotEmpty(t, vf.PrimaryColors)
	for _, c := range vf.PrimaryColors {
		assert.Regexp(t, `^#[0-9A-F]{6}$`, c.Hex)
		assert.True(t, c.Region.IsValid())
	}
	assert.Greater(t, vf.Shape.AspectRatio, 0.0)
	assert.True(t, vf.Texture.MaterialType.IsValid())
}

func TestExtractDeterministic(t *testing.T) {
	e := NewExtractor(ExtractorConfig{}, nil)
	data := encodePNG(t, testImage(300, 260))

	a, err := e.Extract(context.Background(), data)
	require.NoError(t, err)
	b, err := e.Extract(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestExtractRejectsUndecodableInput(t *testing.T) {
	e := NewExtractor(ExtractorConfig{}, nil)

	_, err := e.Extract(context.Background(), []byte("not an image"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidImage))

	_, err = e.Extract(context.Background(), nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidImage))
}

func TestExtractEnforcesMinDimension(t *testing.T) {
	e := NewExtractor(ExtractorConfig{MinDimension: 200}, nil)

	_, err := e.Extract(context.Background(), encodePNG(t, testImage(120, 120)))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePoorImageQuality))

	_, err = e.Extract(context.Background(), encodePNG(t, testImage(200, 200)))
	assert.NoError(t, err)
}

func TestExtractHonorsCancellation(t *testing.T) {
	e := NewExtractor(ExtractorConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, encodePNG(t, testImage(300, 300)))
	require.Error(t, err)
	assert.True(t, apperrors.IsCancelled(err))
}

func TestAnalyzeColorsFindsDominantColors(t *testing.T) {
	_, dist := analyzeColors(testImage(320, 320))

	assert.Greater(t, dist["white"], 0.3)
	assert.Greater(t, dist["red"], 0.1)
	total := 0.0
	for _, f := range dist {
		total += f
	}
	assert.InDelta(t, 1.0, total, 0.01)
}

func TestAnalyzeShapeUniformImageFallsBack(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.White)
		}
	}

	assert.Equal(t, NeutralShape(), analyzeShape(img))
}

func TestAnalyzeShapeDiscIsRoundAndSymmetric(t *testing.T) {
	s := analyzeShape(testImage(400, 400))

	assert.InDelta(t, 1.0, s.AspectRatio, 0.15)
	assert.Greater(t, s.Roundness, 0.5)
	assert.Greater(t, s.Symmetry, 0.8)
	assert.NotEmpty(t, s.KeyPoints)
	for _, p := range s.KeyPoints {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 1.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 1.0)
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{0.1, 0.5, 0.9, 0.2, 0.4, 0.6, 0.3, 0.7, 0.8, 0.5}

	t.Run("self similarity is one", func(t *testing.T) {
		sim, err := CosineSimilarity(a, a)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("zero norm yields zero", func(t *testing.T) {
		sim, err := CosineSimilarity(a, make([]float32, VectorDim))
		require.NoError(t, err)
		assert.Zero(t, sim)
	})

	t.Run("length mismatch is a hard error", func(t *testing.T) {
		_, err := CosineSimilarity(a, []float32{1, 2, 3})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeVectorDimMismatch))
	})

	t.Run("symmetric", func(t *testing.T) {
		b := []float32{0.9, 0.1, 0.3, 0.8, 0.2, 0.5, 0.6, 0.4, 0.1, 0.7}
		ab, err := CosineSimilarity(a, b)
		require.NoError(t, err)
		ba, err := CosineSimilarity(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})
}

func TestNormalizeClampsOutOfRangeValues(t *testing.T) {
	vf := &VisualFeatures{
		PrimaryColors:     []ColorSample{{Hex: "#FFFFFF", Percentage: 1.7}},
		ColorDistribution: map[string]float64{"white": -0.2},
		Shape:             ShapeDescriptor{AspectRatio: -3, Roundness: 2, Symmetry: -1, Complexity: 0.5},
		Texture:           TextureFeatures{Smoothness: 1.4, Roughness: -0.4, MaterialType: "cardboard"},
	}
	vf.Normalize()

	assert.Equal(t, 1.0, vf.PrimaryColors[0].Percentage)
	assert.Zero(t, vf.ColorDistribution["white"])
	assert.Equal(t, 1.0, vf.Shape.AspectRatio)
	assert.Equal(t, 1.0, vf.Shape.Roundness)
	assert.Zero(t, vf.Shape.Symmetry)
	assert.Equal(t, 1.0, vf.Texture.Smoothness)
	assert.Zero(t, vf.Texture.Roughness)
	assert.Equal(t, common.MaterialUnknown, vf.Texture.MaterialType)
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	orig := &VisualFeatures{
		PrimaryColors:     []ColorSample{{Hex: "#FFB6C1", Percentage: 0.6, Region: common.RegionBody}},
		ColorDistribution: map[string]float64{"pink": 0.6},
		Shape:             ShapeDescriptor{AspectRatio: 0.9, KeyPoints: []Point{{X: 0.5, Y: 0.1}}},
		Texture:           TextureFeatures{Patterns: []string{"stripes"}, MaterialType: common.MaterialPlush},
		SpecialMarks:      []string{"pink-body"},
		FeatureVector:     []float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}

	cp := orig.Clone()
	cp.PrimaryColors[0].Percentage = 0.1
	cp.ColorDistribution["pink"] = 0.1
	cp.Shape.KeyPoints[0].X = 0.9
	cp.Texture.Patterns[0] = "dots"
	cp.SpecialMarks[0] = "blue-body"
	cp.FeatureVector[0] = 0

	assert.Equal(t, 0.6, orig.PrimaryColors[0].Percentage)
	assert.Equal(t, 0.6, orig.ColorDistribution["pink"])
	assert.Equal(t, 0.5, orig.Shape.KeyPoints[0].X)
	assert.Equal(t, "stripes", orig.Texture.Patterns[0])
	assert.Equal(t, "pink-body", orig.SpecialMarks[0])
	assert.Equal(t, float32(1), orig.FeatureVector[0])
}
