// Package matching implements the candidate-matching engine: a two-stage
// visual pipeline (cheap quick scan, then detailed scoring of the survivors)
// and a full-scan text pipeline, both over a catalog provider.
package matching

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/internal/domain/scoring"
	"github.com/turtacn/FigureLens/internal/domain/text"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/errors"
)

// VectorIndex is an optional ANN pre-filter for the quick stage.  When wired,
// it replaces the in-memory quick scan; on failure the engine logs and falls
// back rather than failing the match.
type VectorIndex interface {
	// TopK returns the ids of the k nearest catalog entries to vec.
	TopK(ctx context.Context, vec []float32, k int) ([]string, error)
}

// Options tunes the engine.  Zero values fall back to the production
// defaults.
type Options struct {
	VisualWeights scoring.VisualWeights
	TextWeights   scoring.TextWeights
	// QuickTopK is how many quick-stage survivors reach detailed scoring.
	QuickTopK int
	// MaxResults caps the returned match list.
	MaxResults int
	// Workers bounds the detailed-stage fan-out.
	Workers int
}

const (
	defaultQuickTopK  = 10
	defaultMaxResults = 5
	defaultWorkers    = 4
)

func (o *Options) applyDefaults() {
	zero := scoring.VisualWeights{}
	if o.VisualWeights == zero {
		o.VisualWeights = scoring.DefaultVisualWeights()
	}
	if (o.TextWeights == scoring.TextWeights{}) {
		o.TextWeights = scoring.DefaultTextWeights()
	}
	if o.QuickTopK <= 0 {
		o.QuickTopK = defaultQuickTopK
	}
	if o.MaxResults <= 0 {
		o.MaxResults = defaultMaxResults
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
}

// VisualMatch is one ranked visual result.
type VisualMatch struct {
	Entry catalog.Entry       `json:"entry"`
	Score scoring.VisualScore `json:"score"`
	Rank  int                 `json:"rank"`
}

// TextMatch is one ranked text result.
type TextMatch struct {
	Entry catalog.Entry     `json:"entry"`
	Score scoring.TextScore `json:"score"`
	Rank  int               `json:"rank"`
}

// Engine matches candidate profiles against the catalog.  Safe for
// concurrent use.
type Engine struct {
	provider catalog.Provider
	visual   *scoring.VisualScorer
	text     *scoring.TextScorer
	index    VectorIndex
	opts     Options
	log      logging.Logger
}

// New builds an engine over the provider.  A nil synonym table falls back to
// the built-in vocabulary; a nil logger to the no-op logger.
func New(provider catalog.Provider, syn *text.SynonymTable, opts Options, log logging.Logger) (*Engine, error) {
	if provider == nil {
		return nil, errors.InvalidParam("catalog provider is required")
	}
	opts.applyDefaults()
	visual, err := scoring.NewVisualScorer(opts.VisualWeights)
	if err != nil {
		return nil, err
	}
	textScorer, err := scoring.NewTextScorer(opts.TextWeights, syn)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Engine{
		provider: provider,
		visual:   visual,
		text:     textScorer,
		opts:     opts,
		log:      log,
	}, nil
}

// SetVectorIndex wires an optional ANN pre-filter.  Call before serving
// traffic; the engine does not synchronize against concurrent matches.
func (e *Engine) SetVectorIndex(idx VectorIndex) { e.index = idx }

// Stage names observable phases of the visual pipeline.
type Stage string

const (
	StageQuickFilter Stage = "quick_filter"
	StageDetailed    Stage = "detailed"
)

// StageFunc observes the visual pipeline entering a stage.  Called
// synchronously; keep it cheap.
type StageFunc func(Stage)

// MatchVisual runs the two-stage visual pipeline: a cheap embedding scan
// narrows the catalog to QuickTopK survivors, then the full weighted scorer
// ranks them.  Returns at most MaxResults matches, best first; score ties
// keep catalog order.  An empty catalog is an error, a weak best match is
// not.
func (e *Engine) MatchVisual(ctx context.Context, vf *feature.VisualFeatures) ([]VisualMatch, error) {
	return e.MatchVisualStaged(ctx, vf, nil)
}

// MatchVisualStaged is MatchVisual with a stage observer, so callers can
// surface the quick-filter and detailed-scoring checkpoints separately.
// onStage may be nil.
func (e *Engine) MatchVisualStaged(ctx context.Context, vf *feature.VisualFeatures, onStage StageFunc) ([]VisualMatch, error) {
	if vf == nil {
		return nil, errors.InvalidParam("visual features are required")
	}
	entries, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if onStage != nil {
		onStage(StageQuickFilter)
	}
	survivors, err := e.quickStage(ctx, vf, entries)
	if err != nil {
		return nil, err
	}
	if onStage != nil {
		onStage(StageDetailed)
	}
	return e.detailedStage(ctx, vf, survivors)
}

// MatchText scores the analysis against every catalog entry.  The scan is
// exhaustive and applies no score floor: a sparse description still yields
// its best-effort ranking.
func (e *Engine) MatchText(ctx context.Context, an *text.Analysis) ([]TextMatch, error) {
	if an == nil {
		return nil, errors.InvalidParam("text analysis is required")
	}
	entries, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]TextMatch, len(entries))
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCancelled, "text matching interrupted")
		}
		matches[i] = TextMatch{
			Entry: entries[i],
			Score: e.text.Score(an, &entries[i]),
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score.Overall > matches[j].Score.Overall
	})
	if len(matches) > e.opts.MaxResults {
		matches = matches[:e.opts.MaxResults]
	}
	for i := range matches {
		matches[i].Rank = i + 1
	}
	return matches, nil
}

func (e *Engine) snapshot(ctx context.Context) ([]catalog.Entry, error) {
	entries, err := e.provider.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogProvider, "loading catalog snapshot")
	}
	if len(entries) == 0 {
		return nil, errors.NewCode(errors.ErrCodeEmptyCatalog)
	}
	return entries, nil
}

// quickStage narrows the candidate set with the cheapest available signal:
// the wired ANN index when present, otherwise an in-memory embedding scan.
func (e *Engine) quickStage(ctx context.Context, vf *feature.VisualFeatures, entries []catalog.Entry) ([]catalog.Entry, error) {
	if len(entries) <= e.opts.QuickTopK {
		return entries, nil
	}

	if e.index != nil {
		if survivors, ok := e.indexPrefilter(ctx, vf, entries); ok {
			return survivors, nil
		}
	}

	type scored struct {
		idx int
		sim float64
	}
	ranks := make([]scored, len(entries))
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCancelled, "quick matching interrupted")
		}
		ef := entries[i].EffectiveFeatures()
		sim, err := feature.CosineSimilarity(vf.FeatureVector, ef.FeatureVector)
		if err != nil {
			return nil, err
		}
		ranks[i] = scored{idx: i, sim: sim}
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].sim > ranks[j].sim })
	ranks = ranks[:e.opts.QuickTopK]
	// Detailed scoring expects catalog order so ties stay deterministic.
	sort.Slice(ranks, func(i, j int) bool { return ranks[i].idx < ranks[j].idx })

	survivors := make([]catalog.Entry, len(ranks))
	for i, r := range ranks {
		survivors[i] = entries[r.idx]
	}
	return survivors, nil
}

// indexPrefilter asks the ANN index for the survivor ids.  Any failure, or an
// id the snapshot does not know, degrades to the in-memory scan.
func (e *Engine) indexPrefilter(ctx context.Context, vf *feature.VisualFeatures, entries []catalog.Entry) ([]catalog.Entry, bool) {
	ids, err := e.index.TopK(ctx, vf.FeatureVector, e.opts.QuickTopK)
	if err != nil || len(ids) == 0 {
		e.log.Warn("vector index prefilter unavailable, falling back to in-memory scan",
			logging.Err(err))
		return nil, false
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	survivors := make([]catalog.Entry, 0, len(ids))
	for i := range entries {
		if wanted[entries[i].ID] {
			survivors = append(survivors, entries[i])
		}
	}
	if len(survivors) == 0 {
		return nil, false
	}
	return survivors, true
}

// detailedStage runs the full weighted scorer over the survivors with a
// bounded worker fan-out, then ranks.
func (e *Engine) detailedStage(ctx context.Context, vf *feature.VisualFeatures, survivors []catalog.Entry) ([]VisualMatch, error) {
	matches := make([]VisualMatch, len(survivors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range survivors {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Wrap(err, errors.ErrCodeCancelled, "detailed matching interrupted")
			}
			ef := survivors[i].EffectiveFeatures()
			sc, err := e.visual.Score(vf, &ef)
			if err != nil {
				return err
			}
			matches[i] = VisualMatch{Entry: survivors[i], Score: sc}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score.Overall > matches[j].Score.Overall
	})
	if len(matches) > e.opts.MaxResults {
		matches = matches[:e.opts.MaxResults]
	}
	for i := range matches {
		matches[i].Rank = i + 1
	}
	return matches, nil
}
