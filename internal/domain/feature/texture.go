package feature

import (
	"image"
	"math"

	"github.com/turtacn/FigureLens/pkg/types/common"
)

// analyzeTexture derives surface heuristics from local luminance gradients.
// It is total: degenerate images fall back to DefaultTexture.
func analyzeTexture(img image.Image) TextureFeatures {
	bounds := img.Bounds()
	stride := sampleStride(bounds)
	if bounds.Dx() < 3*stride || bounds.Dy() < 3*stride {
		return DefaultTexture()
	}

	var sumGX, sumGY, sumG, sumG2 float64
	var sumSat float64
	n := 0
	for y := bounds.Min.Y + stride; y < bounds.Max.Y-stride; y += stride {
		for x := bounds.Min.X + stride; x < bounds.Max.X-stride; x += stride {
			gx := math.Abs(luma(img, x+stride, y) - luma(img, x-stride, y))
			gy := math.Abs(luma(img, x, y+stride) - luma(img, x, y-stride))
			g := gx + gy
			sumGX += gx
			sumGY += gy
			sumG += g
			sumG2 += g * g
			r, gr, b, _ := img.At(x, y).RGBA()
			_, s, _ := rgbToHSV(float64(r)/0xffff, float64(gr)/0xffff, float64(b)/0xffff)
			sumSat += s
			n++
		}
	}
	if n == 0 {
		return DefaultTexture()
	}

	meanG := sumG / float64(n)
	varG := sumG2/float64(n) - meanG*meanG
	meanSat := sumSat / float64(n)

	// Fine fabric grain produces a high mean gradient, molded vinyl a low one.
	smoothness := Clamp01(1 - meanG*6)
	roughness := 1 - smoothness

	var patterns []string
	switch {
	case meanG < 0.02:
		patterns = append(patterns, "solid")
	case varG > 0.01:
		patterns = append(patterns, "spotted")
	}
	// Strong directional bias in the gradients indicates stripes or ribbing.
	if sumGX > 0 && sumGY > 0 {
		ratio := sumGX / sumGY
		if ratio > 2.2 || ratio < 1/2.2 {
			patterns = append(patterns, "striped")
		}
	}

	return TextureFeatures{
		Smoothness:   smoothness,
		Roughness:    roughness,
		Patterns:     patterns,
		MaterialType: classifyMaterial(smoothness, meanSat),
	}
}

// classifyMaterial guesses the surface material from smoothness and color
// saturation.  A coarse heuristic; text descriptions carry the authoritative
// material when present.
func classifyMaterial(smoothness, saturation float64) common.MaterialType {
	switch {
	case smoothness < 0.45:
		return common.MaterialPlush
	case smoothness > 0.85 && saturation < 0.2:
		return common.MaterialMetal
	case smoothness > 0.75:
		return common.MaterialVinyl
	default:
		return common.MaterialPlastic
	}
}

// luma returns perceptual luminance in [0,1].
func luma(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 0xffff
}

// deriveSpecialMarks derives distinguishing marks out of the computed
// features.
func deriveSpecialMarks(tex TextureFeatures, colors []ColorSample) []string {
	var marks []string
	for _, p := range tex.Patterns {
		switch p {
		case "striped":
			marks = append(marks, "striped pattern")
		case "spotted":
			marks = append(marks, "spotted pattern")
		}
	}
	if tex.Smoothness > 0.9 {
		marks = append(marks, "glossy finish")
	}
	for _, c := range colors {
		if c.Region == common.RegionAccessory && c.Percentage >= 0.05 {
			marks = append(marks, "colored accessory")
			break
		}
	}
	return marks
}
