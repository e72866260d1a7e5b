package feature

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/turtacn/FigureLens/pkg/types/common"
)

// maxPrimaryColors bounds the dominant-color list reported per image.
const maxPrimaryColors = 5

// quantShift drops the low bits of each channel so visually close pixels land
// in the same histogram bucket.
const quantShift = 4

type colorBucket struct {
	key        uint32
	count      int
	sumR, sumG float64
	sumB, sumY float64
}

// analyzeColors computes the dominant colors of img and its distribution over
// base color names.  The walk is a fixed-stride grid, so the result is
// deterministic for a given image.
func analyzeColors(img image.Image) ([]ColorSample, map[string]float64) {
	bounds := img.Bounds()
	stride := sampleStride(bounds)

	buckets := map[uint32]*colorBucket{}
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 0x1000 {
				continue // transparent pixels belong to the background
			}
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
			key := quantKey(r8, g8, b8)
			bk := buckets[key]
			if bk == nil {
				bk = &colorBucket{key: key}
				buckets[key] = bk
			}
			bk.count++
			bk.sumR += float64(r8)
			bk.sumG += float64(g8)
			bk.sumB += float64(b8)
			bk.sumY += float64(y-bounds.Min.Y) / float64(maxInt(bounds.Dy()-1, 1))
			total++
		}
	}
	if total == 0 {
		return nil, map[string]float64{}
	}

	ordered := make([]*colorBucket, 0, len(buckets))
	for _, bk := range buckets {
		ordered = append(ordered, bk)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].key < ordered[j].key // stable tiebreak
	})

	samples := make([]ColorSample, 0, maxPrimaryColors)
	for _, bk := range ordered {
		if len(samples) == maxPrimaryColors {
			break
		}
		n := float64(bk.count)
		frac := n / float64(total)
		if frac < 0.02 {
			break // long tail carries no matching signal
		}
		samples = append(samples, ColorSample{
			Hex:        fmt.Sprintf("#%02X%02X%02X", uint8(bk.sumR/n), uint8(bk.sumG/n), uint8(bk.sumB/n)),
			Percentage: frac,
			Region:     regionForHeight(bk.sumY / n),
		})
	}

	dist := map[string]float64{}
	for _, bk := range ordered {
		n := float64(bk.count)
		name := colorNameFor(bk.sumR/n, bk.sumG/n, bk.sumB/n)
		dist[name] += n / float64(total)
	}
	return samples, dist
}

func quantKey(r, g, b uint8) uint32 {
	return uint32(r>>quantShift)<<16 | uint32(g>>quantShift)<<8 | uint32(b>>quantShift)
}

// sampleStride keeps the grid near 96x96 samples regardless of image size.
func sampleStride(b image.Rectangle) int {
	longer := maxInt(b.Dx(), b.Dy())
	stride := longer / 96
	if stride < 1 {
		stride = 1
	}
	return stride
}

// regionForHeight maps the average vertical position of a color cluster onto a
// body region: figures are photographed upright, so the top of the frame is
// the head and the bottom the outfit or base.
func regionForHeight(avgY float64) common.BodyRegion {
	switch {
	case avgY < 0.35:
		return common.RegionFace
	case avgY > 0.75:
		return common.RegionOutfit
	default:
		return common.RegionBody
	}
}

// colorNameFor classifies an RGB color into a base color name via HSV.
func colorNameFor(r, g, b float64) string {
	h, s, v := rgbToHSV(r/255, g/255, b/255)
	switch {
	case v < 0.15:
		return "black"
	case s < 0.12 && v > 0.85:
		return "white"
	case s < 0.15:
		return "gray"
	}
	if s < 0.6 && v < 0.6 && h >= 15 && h < 50 {
		return "brown"
	}
	switch {
	case h < 15 || h >= 345:
		return "red"
	case h < 45:
		return "orange"
	case h < 70:
		return "yellow"
	case h < 165:
		return "green"
	case h < 200:
		return "cyan"
	case h < 260:
		return "blue"
	case h < 300:
		return "purple"
	default:
		return "pink"
	}
}

// rgbToHSV converts r,g,b in [0,1] to hue in degrees [0,360), saturation and
// value in [0,1].
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	d := max - min
	if max > 0 {
		s = d / max
	}
	if d == 0 {
		return 0, s, v
	}
	switch max {
	case r:
		h = 60 * math.Mod((g-b)/d, 6)
	case g:
		h = 60*((b-r)/d) + 120
	default:
		h = 60*((r-g)/d) + 240
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
