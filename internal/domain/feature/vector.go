package feature

import (
	"image"
	"math"
	"sort"
)

// computeVector builds the fixed-length statistical embedding of img.  Each
// dimension is normalized into [0,1] so cosine similarity behaves across
// images of very different exposure.  The function is total and deterministic.
//
// Dimensions:
//
//	0 mean luminance        5 edge density
//	1 luminance contrast    6 color name entropy
//	2 mean saturation       7 foreground fill ratio
//	3 hue center (cos)      8 frame aspect (w/(w+h))
//	4 hue center (sin)      9 warm fraction
func computeVector(img image.Image) []float32 {
	bounds := img.Bounds()
	stride := sampleStride(bounds)

	var sumL, sumL2, sumSat float64
	var hueX, hueY float64
	var warm float64
	nameCounts := map[string]int{}
	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 0x1000 {
				continue
			}
			rf, gf, bf := float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff
			l := 0.299*rf + 0.587*gf + 0.114*bf
			sumL += l
			sumL2 += l * l
			h, s, _ := rgbToHSV(rf, gf, bf)
			sumSat += s
			rad := h * math.Pi / 180
			hueX += s * math.Cos(rad)
			hueY += s * math.Sin(rad)
			if h < 90 || h >= 330 {
				warm++
			}
			nameCounts[colorNameFor(rf*255, gf*255, bf*255)]++
			n++
		}
	}
	vec := make([]float32, VectorDim)
	if n == 0 {
		return vec
	}
	fn := float64(n)

	meanL := sumL / fn
	contrast := math.Sqrt(math.Max(sumL2/fn-meanL*meanL, 0))

	names := make([]string, 0, len(nameCounts))
	for name := range nameCounts {
		names = append(names, name)
	}
	sort.Strings(names) // fixed order keeps the float sum reproducible
	entropy := 0.0
	for _, name := range names {
		p := float64(nameCounts[name]) / fn
		entropy -= p * math.Log2(p)
	}
	// 12 base color names bound the entropy at log2(12).
	entropy /= math.Log2(12)

	edge := edgeDensity(img, stride)
	fill := fillRatio(img)

	vec[0] = float32(Clamp01(meanL))
	vec[1] = float32(Clamp01(contrast * 2))
	vec[2] = float32(Clamp01(sumSat / fn))
	vec[3] = float32(Clamp01((hueX/fn + 1) / 2))
	vec[4] = float32(Clamp01((hueY/fn + 1) / 2))
	vec[5] = float32(Clamp01(edge))
	vec[6] = float32(Clamp01(entropy))
	vec[7] = float32(Clamp01(fill))
	vec[8] = float32(float64(bounds.Dx()) / float64(bounds.Dx()+bounds.Dy()))
	vec[9] = float32(Clamp01(warm / fn))
	return vec
}

// edgeDensity is the fraction of grid samples whose local gradient exceeds a
// fixed threshold.
func edgeDensity(img image.Image, stride int) float64 {
	bounds := img.Bounds()
	if bounds.Dx() < 3*stride || bounds.Dy() < 3*stride {
		return 0
	}
	edges, n := 0, 0
	for y := bounds.Min.Y + stride; y < bounds.Max.Y-stride; y += stride {
		for x := bounds.Min.X + stride; x < bounds.Max.X-stride; x += stride {
			gx := math.Abs(luma(img, x+stride, y) - luma(img, x-stride, y))
			gy := math.Abs(luma(img, x, y+stride) - luma(img, x, y-stride))
			if gx+gy > 0.12 {
				edges++
			}
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(edges) / float64(n)
}

// fillRatio is the fraction of samples classified as foreground against the
// border-estimated background.
func fillRatio(img image.Image) float64 {
	g := newMaskGrid(img)
	if g == nil || g.w*g.h == 0 {
		return 0
	}
	return float64(g.area) / float64(g.w*g.h)
}

// CosineSimilarity compares two equal-length vectors, clamped to [0,1].
// A zero-norm operand yields 0, not an error; unequal lengths are a hard
// error via ValidateVector.
func CosineSimilarity(a, b []float32) (float64, error) {
	if err := ValidateVector(a, b); err != nil {
		return 0, err
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return Clamp01(dot / (math.Sqrt(na) * math.Sqrt(nb))), nil
}
