// Package recognition hosts the top-level pipeline: input validation, feature
// extraction and/or text analysis, matching, and result assembly, with
// progress reporting, cancellation at stage boundaries, and last-writer-wins
// supersession between concurrent requests.
package recognition

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/FigureLens/internal/application/matching"
	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/internal/domain/text"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/metrics"
	"github.com/turtacn/FigureLens/pkg/errors"
)

// State names one stage of the recognition pipeline.
type State string

const (
	StateIdle               State = "idle"
	StatePreprocessing      State = "preprocessing"
	StateExtractingFeatures State = "extracting_features"
	StateAnalyzingText      State = "analyzing_text"
	StateQuickFiltering     State = "quick_filtering"
	StateDetailedMatching   State = "detailed_matching"
	StateMatching           State = "matching"
	StateCompleted          State = "completed"
	StateFailed             State = "failed"
)

// Progress checkpoints.  Exact fractions are tuning; monotonicity is the
// contract.
const (
	progressPreprocessed  = 0.1
	progressExtracted     = 0.3
	progressAnalyzed      = 0.6
	progressQuickFiltered = 0.8
	progressMatched       = 0.9
	progressDone          = 1.0
)

// Progress is one pipeline progress update.
type Progress struct {
	State    State   `json:"state"`
	Fraction float64 `json:"fraction"`
	Message  string  `json:"message,omitempty"`
}

// ProgressFunc receives progress updates.  Called synchronously from the
// pipeline; keep it cheap.
type ProgressFunc func(Progress)

// Event is published after every finished recognition run.
type Event struct {
	Mode        string    `json:"mode"`
	Succeeded   bool      `json:"succeeded"`
	BestEntryID string    `json:"best_entry_id,omitempty"`
	BestScore   float64   `json:"best_score,omitempty"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// EventSink receives recognition events.  Publishing is best effort: sink
// failures are logged, never surfaced to the caller.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// Orchestrator runs recognition requests.  A new request supersedes the
// previous in-flight one: the older request is cancelled so stale progress
// never reaches the caller.  Safe for concurrent use.
type Orchestrator struct {
	extractor *feature.Extractor
	analyzer  *text.Analyzer
	engine    *matching.Engine
	log       logging.Logger
	metrics   *metrics.RecognitionMetrics
	events    EventSink

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// Option configures optional orchestrator collaborators.
type Option func(*Orchestrator)

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *metrics.RecognitionMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithEventSink wires a recognition event publisher.
func WithEventSink(s EventSink) Option {
	return func(o *Orchestrator) { o.events = s }
}

// New builds an orchestrator.  Extractor and engine are required; a nil
// analyzer falls back to the built-in vocabulary, a nil logger to the no-op
// logger.
func New(extractor *feature.Extractor, analyzer *text.Analyzer, engine *matching.Engine, log logging.Logger, opts ...Option) (*Orchestrator, error) {
	if extractor == nil {
		return nil, errors.InvalidParam("feature extractor is required")
	}
	if engine == nil {
		return nil, errors.InvalidParam("matching engine is required")
	}
	if analyzer == nil {
		analyzer = text.NewAnalyzer(nil, nil)
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	o := &Orchestrator{
		extractor: extractor,
		analyzer:  analyzer,
		engine:    engine,
		log:       log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Recognize runs the visual pipeline on imageBytes.  onProgress may be nil.
func (o *Orchestrator) Recognize(ctx context.Context, imageBytes []byte, onProgress ProgressFunc) (*Result, error) {
	ctx, release := o.begin(ctx)
	defer release()
	return o.finish(ctx, metrics.ModeVisual, time.Now(), func(rep *reporter) (*Result, error) {
		return o.runVisual(ctx, imageBytes, rep)
	}, onProgress)
}

// RecognizeFromDescription runs the text pipeline on rawText.
func (o *Orchestrator) RecognizeFromDescription(ctx context.Context, rawText string, onProgress ProgressFunc) (*Result, error) {
	ctx, release := o.begin(ctx)
	defer release()
	return o.finish(ctx, metrics.ModeText, time.Now(), func(rep *reporter) (*Result, error) {
		return o.runText(ctx, rawText, rep)
	}, onProgress)
}

// RecognizeMultiModal runs both pipelines and keeps whichever evidence path
// succeeds.  Only when both paths fail does the request fail, with the
// visual error.
func (o *Orchestrator) RecognizeMultiModal(ctx context.Context, imageBytes []byte, rawText string, onProgress ProgressFunc) (*Result, error) {
	ctx, release := o.begin(ctx)
	defer release()
	return o.finish(ctx, metrics.ModeMultiModal, time.Now(), func(rep *reporter) (*Result, error) {
		return o.runMultiModal(ctx, imageBytes, rawText, rep)
	}, onProgress)
}

// begin installs this request as the active one, cancelling its predecessor.
func (o *Orchestrator) begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
		o.log.Debug("superseding in-flight recognition request")
	}
	o.cancel = cancel
	o.seq++
	mine := o.seq
	o.mu.Unlock()

	release := func() {
		o.mu.Lock()
		if o.seq == mine {
			o.cancel = nil
		}
		o.mu.Unlock()
		cancel()
	}
	return ctx, release
}

// finish wraps a pipeline run with timing, metrics, logging and event
// publication.
func (o *Orchestrator) finish(ctx context.Context, mode string, start time.Time, run func(*reporter) (*Result, error), onProgress ProgressFunc) (*Result, error) {
	rep := &reporter{fn: onProgress}
	res, err := run(rep)
	elapsed := time.Since(start)

	ev := Event{Mode: mode, ElapsedMs: elapsed.Milliseconds(), Timestamp: time.Now().UTC()}
	switch {
	case err == nil:
		res.ProcessingTimeMs = elapsed.Milliseconds()
		res.Timestamp = ev.Timestamp
		rep.report(StateCompleted, progressDone, "recognition complete")
		o.metrics.ObserveRequest(mode, metrics.OutcomeOK, elapsed)
		ev.Succeeded = true
		if res.BestMatch != nil {
			o.metrics.ObserveBestScore(res.BestMatch.Overall)
			ev.BestEntryID = res.BestMatch.EntryID
			ev.BestScore = res.BestMatch.Overall
		}
		o.log.Info("recognition completed",
			logging.String("mode", mode),
			logging.Duration("elapsed", elapsed),
			logging.String("best", ev.BestEntryID),
		)
	case errors.IsCancelled(err):
		o.metrics.ObserveRequest(mode, metrics.OutcomeCancelled, elapsed)
		o.log.Debug("recognition cancelled", logging.String("mode", mode))
	default:
		rep.report(StateFailed, rep.last, errors.GetCode(err).DefaultMessage())
		o.metrics.ObserveRequest(mode, metrics.OutcomeError, elapsed)
		o.log.Warn("recognition failed",
			logging.String("mode", mode),
			logging.Err(err),
		)
	}
	o.publish(ev)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) publish(ev Event) {
	if o.events == nil {
		return
	}
	// Detached context: publication must survive request cancellation.
	pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.events.Publish(pctx, ev); err != nil {
		o.log.Warn("recognition event publish failed", logging.Err(err))
	}
}

func (o *Orchestrator) runVisual(ctx context.Context, imageBytes []byte, rep *reporter) (*Result, error) {
	if err := o.checkpoint(ctx, rep, StatePreprocessing, progressPreprocessed, "validating image"); err != nil {
		return nil, err
	}
	if len(imageBytes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidImage, "no image data provided")
	}

	if err := o.checkpoint(ctx, rep, StateExtractingFeatures, progressExtracted, "extracting visual features"); err != nil {
		return nil, err
	}
	vf, err := o.extractor.Extract(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	if err := o.checkpoint(ctx, rep, StateQuickFiltering, progressQuickFiltered, "quick-filtering catalog"); err != nil {
		return nil, err
	}
	matches, err := o.engine.MatchVisualStaged(ctx, vf, func(stage matching.Stage) {
		if stage == matching.StageDetailed {
			rep.report(StateDetailedMatching, progressMatched, "scoring survivors")
		}
	})
	if err != nil {
		return nil, err
	}

	reports := make([]MatchReport, len(matches))
	for i, m := range matches {
		reports[i] = visualReport(m)
	}
	best, alts := splitReports(reports)
	res := &Result{
		BestMatch:      best,
		Alternatives:   alts,
		VisualFeatures: vf,
	}
	if best != nil {
		res.CombinedConfidence = best.Overall
	}
	return res, nil
}

func (o *Orchestrator) runText(ctx context.Context, rawText string, rep *reporter) (*Result, error) {
	if err := o.checkpoint(ctx, rep, StatePreprocessing, progressPreprocessed, "validating description"); err != nil {
		return nil, err
	}

	if err := o.checkpoint(ctx, rep, StateAnalyzingText, progressAnalyzed, "analyzing description"); err != nil {
		return nil, err
	}
	an, err := o.analyzer.Analyze(rawText)
	if err != nil {
		return nil, err
	}

	if err := o.checkpoint(ctx, rep, StateMatching, progressMatched, "matching against catalog"); err != nil {
		return nil, err
	}
	matches, err := o.engine.MatchText(ctx, an)
	if err != nil {
		return nil, err
	}

	reports := make([]MatchReport, len(matches))
	for i, m := range matches {
		reports[i] = textReport(m)
	}
	best, alts := splitReports(reports)
	res := &Result{
		BestMatch:    best,
		Alternatives: alts,
		TextAnalysis: an,
	}
	if best != nil {
		// Fold the analyzer's own confidence into the similarity score
		// so a shaky parse cannot masquerade as a confident match.
		res.CombinedConfidence = an.Confidence * best.Overall
	}
	return res, nil
}

// runMultiModal prefers the visual verdict amended with text evidence; a
// failed path degrades to whichever one succeeded.
func (o *Orchestrator) runMultiModal(ctx context.Context, imageBytes []byte, rawText string, rep *reporter) (*Result, error) {
	visual, verr := o.runVisual(ctx, imageBytes, rep)
	if verr != nil && errors.IsCancelled(verr) {
		return nil, verr
	}
	textRes, terr := o.runText(ctx, rawText, rep)
	if terr != nil && errors.IsCancelled(terr) {
		return nil, terr
	}

	switch {
	case verr == nil && terr == nil:
		return mergeMultiModal(visual, textRes), nil
	case verr == nil:
		o.log.Warn("text path failed, returning visual result only", logging.Err(terr))
		return visual, nil
	case terr == nil:
		o.log.Warn("visual path failed, returning text result only", logging.Err(verr))
		return textRes, nil
	default:
		return nil, verr
	}
}

// mergeMultiModal keeps the visual ranking and folds in the text evidence
// for entries both paths agree on.
func mergeMultiModal(visual, textRes *Result) *Result {
	res := &Result{
		BestMatch:      visual.BestMatch,
		Alternatives:   visual.Alternatives,
		VisualFeatures: visual.VisualFeatures,
		TextAnalysis:   textRes.TextAnalysis,
	}
	textScores := map[string]float64{}
	if textRes.BestMatch != nil {
		textScores[textRes.BestMatch.EntryID] = textRes.BestMatch.Overall
	}
	for _, alt := range textRes.Alternatives {
		textScores[alt.EntryID] = alt.Overall
	}
	annotate := func(r *MatchReport) {
		if ts, ok := textScores[r.EntryID]; ok {
			r.PerFeatureScores[ScoreText] = ts
		}
	}
	if res.BestMatch != nil {
		annotate(res.BestMatch)
		conf := res.BestMatch.Overall
		if textRes.TextAnalysis != nil && textRes.TextAnalysis.Confidence > 0 {
			if ts, ok := textScores[res.BestMatch.EntryID]; ok {
				// Corroborated by both paths: average the evidence.
				conf = (conf + textRes.TextAnalysis.Confidence*ts) / 2
			}
		}
		res.CombinedConfidence = conf
	}
	for i := range res.Alternatives {
		annotate(&res.Alternatives[i])
	}
	return res
}

// checkpoint reports progress and enforces cancellation at a stage boundary.
func (o *Orchestrator) checkpoint(ctx context.Context, rep *reporter, state State, frac float64, msg string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCancelled, "recognition cancelled")
	}
	rep.report(state, frac, msg)
	return nil
}

// reporter enforces progress monotonicity regardless of which stages a
// pipeline variant visits.
type reporter struct {
	fn   ProgressFunc
	last float64
}

func (r *reporter) report(state State, frac float64, msg string) {
	if frac < r.last {
		frac = r.last
	}
	r.last = frac
	if r.fn != nil {
		r.fn(Progress{State: state, Fraction: frac, Message: msg})
	}
}
