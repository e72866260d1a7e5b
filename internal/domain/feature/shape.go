package feature

import (
	"image"
	"math"
)

// maxKeyPoints bounds the contour sample attached to a shape descriptor.
const maxKeyPoints = 32

// bgDistThreshold is the squared RGB distance (0..3) past which a pixel is
// considered foreground relative to the estimated background color.
const bgDistThreshold = 0.08

// analyzeShape segments the figure from the background and derives silhouette
// heuristics.  When segmentation finds nothing usable it returns NeutralShape,
// never an error: the catalog skews towards round plush figures and a neutral
// prior scores better than a hard failure.
func analyzeShape(img image.Image) ShapeDescriptor {
	grid := newMaskGrid(img)
	if grid == nil || grid.area == 0 {
		return NeutralShape()
	}

	minX, minY := grid.w, grid.h
	maxX, maxY := -1, -1
	for y := 0; y < grid.h; y++ {
		for x := 0; x < grid.w; x++ {
			if grid.at(x, y) {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	bw, bh := maxX-minX+1, maxY-minY+1
	if bw < 3 || bh < 3 {
		return NeutralShape()
	}

	perimeter, points := grid.boundary(minX, minY, bw, bh)
	if perimeter == 0 {
		return NeutralShape()
	}

	// Isoperimetric quotient: 1.0 for a circle, lower for ragged outlines.
	roundness := 4 * math.Pi * float64(grid.area) / float64(perimeter*perimeter)

	// Mirror the mask across the vertical midline of the bounding box and
	// count agreement.
	agree := 0
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			mx := maxX - (x - minX)
			if grid.at(x, y) == grid.at(mx, y) {
				agree++
			}
		}
	}
	symmetry := float64(agree) / float64(bw*bh)

	// Boundary length relative to a circle of equal area.
	minPerim := 2 * math.Sqrt(math.Pi*float64(grid.area))
	complexity := (float64(perimeter) - minPerim) / minPerim
	complexity = Clamp01(complexity / 2)

	return ShapeDescriptor{
		AspectRatio: float64(bw) / float64(bh),
		Roundness:   Clamp01(roundness),
		Symmetry:    Clamp01(symmetry),
		Complexity:  complexity,
		KeyPoints:   points,
	}
}

// maskGrid is a downsampled foreground mask of the image.
type maskGrid struct {
	w, h int
	mask []bool
	area int
}

func (g *maskGrid) at(x, y int) bool {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return false
	}
	return g.mask[y*g.w+x]
}

// newMaskGrid samples the image on a fixed grid and marks pixels whose color
// diverges from the border-estimated background.  Returns nil when the image
// is degenerate.
func newMaskGrid(img image.Image) *maskGrid {
	bounds := img.Bounds()
	if bounds.Dx() < 4 || bounds.Dy() < 4 {
		return nil
	}
	stride := sampleStride(bounds)
	w := (bounds.Dx() + stride - 1) / stride
	h := (bounds.Dy() + stride - 1) / stride

	bgR, bgG, bgB := borderAverage(img, stride)

	g := &maskGrid{w: w, h: h, mask: make([]bool, w*h)}
	for gy := 0; gy < h; gy++ {
		for gx := 0; gx < w; gx++ {
			px := bounds.Min.X + gx*stride
			py := bounds.Min.Y + gy*stride
			r, gr, b, a := img.At(px, py).RGBA()
			if a < 0x1000 {
				continue
			}
			dr := float64(r)/0xffff - bgR
			dg := float64(gr)/0xffff - bgG
			db := float64(b)/0xffff - bgB
			if dr*dr+dg*dg+db*db > bgDistThreshold {
				g.mask[gy*w+gx] = true
				g.area++
			}
		}
	}
	return g
}

// borderAverage estimates the background color from the one-sample-wide frame
// around the image.
func borderAverage(img image.Image, stride int) (r, g, b float64) {
	bounds := img.Bounds()
	n := 0
	add := func(x, y int) {
		pr, pg, pb, _ := img.At(x, y).RGBA()
		r += float64(pr) / 0xffff
		g += float64(pg) / 0xffff
		b += float64(pb) / 0xffff
		n++
	}
	for x := bounds.Min.X; x < bounds.Max.X; x += stride {
		add(x, bounds.Min.Y)
		add(x, bounds.Max.Y-1)
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		add(bounds.Min.X, y)
		add(bounds.Max.X-1, y)
	}
	if n == 0 {
		return 1, 1, 1
	}
	return r / float64(n), g / float64(n), b / float64(n)
}

// boundary counts mask cells adjacent to background and samples up to
// maxKeyPoints of them, normalized to the bounding box.
func (g *maskGrid) boundary(minX, minY, bw, bh int) (int, []Point) {
	var edges []Point
	count := 0
	for y := minY; y < minY+bh; y++ {
		for x := minX; x < minX+bw; x++ {
			if !g.at(x, y) {
				continue
			}
			if g.at(x-1, y) && g.at(x+1, y) && g.at(x, y-1) && g.at(x, y+1) {
				continue
			}
			count++
			edges = append(edges, Point{
				X: float64(x-minX) / float64(maxInt(bw-1, 1)),
				Y: float64(y-minY) / float64(maxInt(bh-1, 1)),
			})
		}
	}
	if len(edges) > maxKeyPoints {
		step := len(edges) / maxKeyPoints
		sampled := make([]Point, 0, maxKeyPoints)
		for i := 0; i < len(edges) && len(sampled) < maxKeyPoints; i += step {
			sampled = append(sampled, edges[i])
		}
		edges = sampled
	}
	return count, edges
}
