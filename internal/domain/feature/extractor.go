package feature

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/errors"
)

// MaxWorkingDimension is the longest side an image is reduced to before
// analysis.  Larger inputs carry no extra matching signal and only cost time.
const MaxWorkingDimension = 1024

// ExtractorConfig tunes the extractor.
type ExtractorConfig struct {
	// MinDimension rejects images whose shorter side is below this many
	// pixels.  Zero disables the check.
	MinDimension int
	// MaxDimension overrides MaxWorkingDimension when positive.
	MaxDimension int
}

// Extractor computes VisualFeatures from raw image bytes.  It is stateless
// and safe for concurrent use.
type Extractor struct {
	cfg ExtractorConfig
	log logging.Logger
}

// NewExtractor builds an extractor.  A nil logger falls back to the no-op
// logger.
func NewExtractor(cfg ExtractorConfig, log logging.Logger) *Extractor {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = MaxWorkingDimension
	}
	return &Extractor{cfg: cfg, log: log}
}

// Extract decodes data and computes the full visual profile.  The four
// analyses run concurrently; texture and vector analysis are total and fall
// back to neutral defaults internally, so the only failure modes are
// undecodable input, an image below the minimum dimension, and context
// cancellation.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*VisualFeatures, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidImage, "empty image payload")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidImage, "cannot decode input image")
	}
	bounds := img.Bounds()
	if e.cfg.MinDimension > 0 && (bounds.Dx() < e.cfg.MinDimension || bounds.Dy() < e.cfg.MinDimension) {
		return nil, errors.New(errors.ErrCodePoorImageQuality,
			"image resolution too low for reliable matching").
			WithDetail(fmt.Sprintf("%dx%d, need at least %dpx per side",
				bounds.Dx(), bounds.Dy(), e.cfg.MinDimension))
	}
	if longest := maxInt(bounds.Dx(), bounds.Dy()); longest > e.cfg.MaxDimension {
		img = resize.Thumbnail(uint(e.cfg.MaxDimension), uint(e.cfg.MaxDimension), img, resize.Bilinear)
	}

	e.log.Debug("extracting visual features",
		logging.String("format", format),
		logging.Int("width", bounds.Dx()),
		logging.Int("height", bounds.Dy()),
	)

	var (
		colors []ColorSample
		dist   map[string]float64
		shape  ShapeDescriptor
		tex    TextureFeatures
		vec    []float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		colors, dist = analyzeColors(img)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		shape = analyzeShape(img)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		tex = analyzeTexture(img)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		vec = computeVector(img)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCancelled, "feature extraction interrupted")
	}

	vf := &VisualFeatures{
		PrimaryColors:     colors,
		ColorDistribution: dist,
		Shape:             shape,
		Texture:           tex,
		SpecialMarks:      deriveSpecialMarks(tex, colors),
		FeatureVector:     vec,
	}
	return vf.Normalize(), nil
}
