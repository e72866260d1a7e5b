package recognition

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/FigureLens/internal/application/matching"
	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/internal/domain/text"
	"github.com/turtacn/FigureLens/pkg/types/common"
)

// Per-feature score keys in a match report.
const (
	ScoreColor   = "color"
	ScoreShape   = "shape"
	ScoreTexture = "texture"
	ScoreVector  = "vector"
	ScoreText    = "text"
)

// MatchReport is one ranked candidate in a recognition result, with the
// evidence that produced its rank.
type MatchReport struct {
	EntryID string        `json:"entry_id"`
	Entry   catalog.Entry `json:"entry"`
	Overall float64       `json:"overall"`
	// PerFeatureScores breaks the overall down by evidence term.
	PerFeatureScores map[string]float64 `json:"per_feature_scores"`
	// MatchedLabels names the aspects or terms that carried the match.
	MatchedLabels []string           `json:"matched_labels,omitempty"`
	Band          common.QualityBand `json:"band"`
}

// Result is the outcome of one recognition run.
type Result struct {
	BestMatch    *MatchReport  `json:"best_match,omitempty"`
	Alternatives []MatchReport `json:"alternatives,omitempty"`

	// VisualFeatures is set when the visual path ran, TextAnalysis when
	// the text path ran; multi-modal runs carry both.
	VisualFeatures *feature.VisualFeatures `json:"visual_features,omitempty"`
	TextAnalysis   *text.Analysis          `json:"text_analysis,omitempty"`

	// CombinedConfidence folds the analysis confidence into the best
	// similarity score; equals the best score when no analysis ran.
	CombinedConfidence float64 `json:"combined_confidence"`

	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Timestamp        time.Time `json:"timestamp"`
}

func visualReport(m matching.VisualMatch) MatchReport {
	return MatchReport{
		EntryID: m.Entry.ID,
		Entry:   m.Entry,
		Overall: m.Score.Overall,
		PerFeatureScores: map[string]float64{
			ScoreColor:   m.Score.Color,
			ScoreShape:   m.Score.Shape,
			ScoreTexture: m.Score.Texture,
			ScoreVector:  m.Score.Vector,
		},
		MatchedLabels: m.Score.MatchedAspects,
		Band:          m.Score.Band,
	}
}

func textReport(m matching.TextMatch) MatchReport {
	return MatchReport{
		EntryID: m.Entry.ID,
		Entry:   m.Entry,
		Overall: m.Score.Overall,
		PerFeatureScores: map[string]float64{
			ScoreText:  m.Score.Overall,
			ScoreColor: m.Score.Color,
		},
		MatchedLabels: m.Score.MatchedTerms,
		Band:          m.Score.Band,
	}
}

// Summary renders the result as a short human-readable report, one line per
// fact, suitable for CLI output and log attachments.
func (r *Result) Summary() string {
	var b strings.Builder
	if r.BestMatch == nil {
		b.WriteString("No match found.\n")
		return b.String()
	}

	m := r.BestMatch
	name := m.Entry.Name
	if m.Entry.Series != "" {
		name = fmt.Sprintf("%s (%s)", name, m.Entry.Series)
	}
	fmt.Fprintf(&b, "Best match: %s [%s]\n", name, m.EntryID)
	fmt.Fprintf(&b, "Confidence: %.1f%% (%s)\n", r.CombinedConfidence*100, m.Band)

	keys := make([]string, 0, len(m.PerFeatureScores))
	for k := range m.PerFeatureScores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-8s %.2f\n", k, m.PerFeatureScores[k])
	}
	if len(m.MatchedLabels) > 0 {
		fmt.Fprintf(&b, "Matched on: %s\n", strings.Join(m.MatchedLabels, ", "))
	}
	for i, alt := range r.Alternatives {
		fmt.Fprintf(&b, "Alternative %d: %s [%s] %.2f\n", i+1, alt.Entry.Name, alt.EntryID, alt.Overall)
	}
	fmt.Fprintf(&b, "Processed in %dms\n", r.ProcessingTimeMs)
	return b.String()
}

func splitReports(reports []MatchReport) (*MatchReport, []MatchReport) {
	if len(reports) == 0 {
		return nil, nil
	}
	best := reports[0]
	return &best, reports[1:]
}
