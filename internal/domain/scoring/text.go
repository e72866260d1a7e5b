package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/internal/domain/text"
	"github.com/turtacn/FigureLens/pkg/errors"
	"github.com/turtacn/FigureLens/pkg/types/common"
)

// Per-phrase score ladder for key features: exact substring beats a synonym
// hit, which beats partial token overlap.
const (
	exactPhraseScore    = 1.0
	synonymPhraseScore  = 0.8
	partialPhraseWeight = 0.6
	semanticLexicalCap  = 0.8
)

// TextWeights distributes the overall text score across its components.
// Weights must be non-negative and sum to 1.
type TextWeights struct {
	Lexical    float64
	KeyFeature float64
	Series     float64
	Color      float64
	Name       float64
}

// DefaultTextWeights returns the tuned production weighting.  Key features
// and names weigh highest: raw lexical overlap is noisy across languages,
// while extracted features and proper names are high-precision signals.
func DefaultTextWeights() TextWeights {
	return TextWeights{Lexical: 0.25, KeyFeature: 0.30, Series: 0.15, Color: 0.10, Name: 0.20}
}

// Validate checks the weight invariants.
func (w TextWeights) Validate() error {
	for name, v := range map[string]float64{
		"lexical": w.Lexical, "key_feature": w.KeyFeature,
		"series": w.Series, "color": w.Color, "name": w.Name,
	} {
		if v < 0 || math.IsNaN(v) {
			return errors.New(errors.ErrCodeInvalidWeights, "text weight must be non-negative").
				WithDetail(name)
		}
	}
	sum := w.Lexical + w.KeyFeature + w.Series + w.Color + w.Name
	if math.Abs(sum-1) > 1e-6 {
		return errors.New(errors.ErrCodeInvalidWeights, "text weights must sum to 1").
			WithDetail(fmt.Sprintf("sum=%v", sum))
	}
	return nil
}

// TextScore is the component breakdown of one description-to-entry
// comparison.
type TextScore struct {
	Overall    float64 `json:"overall"`
	Lexical    float64 `json:"lexical"`
	KeyFeature float64 `json:"key_feature"`
	Series     float64 `json:"series"`
	Color      float64 `json:"color"`
	Name       float64 `json:"name"`
	// MatchedTerms lists the canonical terms both sides share.
	MatchedTerms []string           `json:"matched_terms,omitempty"`
	Band         common.QualityBand `json:"band"`
}

// TextScorer compares a text analysis against catalog entries.  Components
// with no signal on the query side score neutral 0.5 so a sparse description
// is not punished for what it does not say.  Safe for concurrent use.
type TextScorer struct {
	w   TextWeights
	syn *text.SynonymTable
}

// NewTextScorer validates the weights and builds a scorer.  A nil synonym
// table falls back to the built-in vocabulary.
func NewTextScorer(w TextWeights, syn *text.SynonymTable) (*TextScorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if syn == nil {
		syn = text.DefaultSynonymTable()
	}
	return &TextScorer{w: w, syn: syn}, nil
}

// Score compares the analysis against one entry.  Deterministic for fixed
// inputs.
func (s *TextScorer) Score(an *text.Analysis, e *catalog.Entry) TextScore {
	blob := e.TextBlob()
	matched := map[string]bool{}

	sc := TextScore{
		Lexical:    s.lexicalSimilarity(an.Summary, blob),
		KeyFeature: s.keyFeatureSimilarity(an.KeyFeatures, blob, matched),
		Series:     s.seriesSimilarity(an.SeriesHints, e.Series, matched),
		Color:      s.colorMentionSimilarity(an.Colors, blob, matched),
		Name:       s.nameSimilarity(an.NameHints, e.Name, matched),
	}
	sc.Overall = feature.Clamp01(
		s.w.Lexical*sc.Lexical + s.w.KeyFeature*sc.KeyFeature +
			s.w.Series*sc.Series + s.w.Color*sc.Color + s.w.Name*sc.Name)
	sc.Band = common.BandForScore(sc.Overall)

	for term := range matched {
		sc.MatchedTerms = append(sc.MatchedTerms, term)
	}
	sort.Strings(sc.MatchedTerms)
	return sc
}

// lexicalSimilarity takes the better of the direct token Jaccard and a
// discounted synonym-aware match ratio, so cross-language descriptions are
// not stuck at zero while exact overlap still wins when present.
func (s *TextScorer) lexicalSimilarity(query, blob string) float64 {
	queryTokens := tokenize(query)
	queryTerms := s.termSet(query)
	if len(queryTokens) == 0 && len(queryTerms) == 0 {
		return 0.5
	}

	direct := jaccard(queryTokens, tokenize(blob))

	semantic := 0.0
	if len(queryTerms) > 0 {
		entryTerms := s.termSet(blob)
		hits := 0
		for term := range queryTerms {
			if entryTerms[term] {
				hits++
			}
		}
		semantic = float64(hits) / float64(len(queryTerms))
	}
	return math.Max(direct, semanticLexicalCap*semantic)
}

// keyFeatureSimilarity averages the per-phrase ladder score of every query
// key phrase against the blob.
func (s *TextScorer) keyFeatureSimilarity(phrases []string, blob string, matched map[string]bool) float64 {
	if len(phrases) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, p := range phrases {
		p = strings.ToLower(p)
		switch {
		case strings.Contains(blob, p):
			sum += exactPhraseScore
			matched[s.syn.Canonical(p)] = true
		case s.synonymInBlob(p, blob):
			sum += synonymPhraseScore
			matched[s.syn.Canonical(p)] = true
		default:
			sum += partialPhraseWeight * tokenCoverage(p, blob)
		}
	}
	return sum / float64(len(phrases))
}

// synonymInBlob reports whether any variant of the phrase's synonym family
// appears in the blob.
func (s *TextScorer) synonymInBlob(phrase, blob string) bool {
	for _, v := range s.syn.Expand(phrase) {
		if text.ContainsTerm(blob, v) {
			return true
		}
	}
	return false
}

// seriesSimilarity scores the best series hint: same family 1.0,
// one-directional containment 0.8, else word overlap scaled.
func (s *TextScorer) seriesSimilarity(hints []string, series string, matched map[string]bool) float64 {
	if len(hints) == 0 {
		return 0.5
	}
	if series == "" {
		return 0
	}
	lowerSeries := strings.ToLower(series)
	canonical := s.syn.Canonical(series)
	best := 0.0
	for _, h := range hints {
		h = strings.ToLower(h)
		var score float64
		switch {
		case s.syn.Canonical(h) == canonical:
			score = 1
		case strings.Contains(lowerSeries, h) || strings.Contains(h, lowerSeries):
			score = 0.8
		default:
			score = tokenOverlap(h, lowerSeries)
		}
		if score > best {
			best = score
		}
	}
	if best >= 0.8 {
		matched[canonical] = true
	}
	return best
}

// colorMentionSimilarity is the fraction of query color families with any
// synonym present in the blob.
func (s *TextScorer) colorMentionSimilarity(colors []string, blob string, matched map[string]bool) float64 {
	if len(colors) == 0 {
		return 0.5
	}
	hits := 0
	for _, c := range colors {
		if s.synonymInBlob(c, blob) {
			hits++
			matched[s.syn.Canonical(c)] = true
		}
	}
	return float64(hits) / float64(len(colors))
}

// nameSimilarity awards exact or containment matches fully and token overlap
// partially.
func (s *TextScorer) nameSimilarity(hints []string, name string, matched map[string]bool) float64 {
	if len(hints) == 0 {
		return 0.5
	}
	if name == "" {
		return 0
	}
	lowerName := strings.ToLower(name)
	best := 0.0
	for _, h := range hints {
		h = strings.ToLower(h)
		if h == lowerName || strings.Contains(lowerName, h) || strings.Contains(h, lowerName) {
			matched[lowerName] = true
			return 1
		}
		if overlap := tokenOverlap(h, lowerName); overlap > best {
			best = overlap
		}
	}
	return best
}

// termSet collects the canonical vocabulary terms of raw: ASCII words
// individually, plus every synonym-table hit for languages without word
// separators.
func (s *TextScorer) termSet(raw string) map[string]bool {
	set := map[string]bool{}
	for tok := range tokenize(raw) {
		set[s.syn.Canonical(tok)] = true
	}
	for _, terms := range s.syn.Scan(raw) {
		for _, t := range terms {
			set[t] = true
		}
	}
	return set
}

// tokenize splits raw into lowercased ASCII word tokens, dropping stopwords
// and single characters.
func tokenize(raw string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(tok) < 2 || stopWords[tok] {
			continue
		}
		set[tok] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter, union := 0, len(a)
	for t := range b {
		if a[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// tokenCoverage is the fraction of the phrase's tokens found in the blob.
func tokenCoverage(phrase, blob string) float64 {
	tokens := tokenize(phrase)
	if len(tokens) == 0 {
		return 0
	}
	blobTokens := tokenize(blob)
	hits := 0
	for t := range tokens {
		if blobTokens[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

func tokenOverlap(a, b string) float64 {
	at, bt := strings.Fields(a), strings.Fields(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}
	set := map[string]bool{}
	for _, t := range at {
		set[t] = true
	}
	hits := 0
	for _, t := range bt {
		if set[t] {
			hits++
		}
	}
	return float64(hits) / math.Max(float64(len(at)), float64(len(bt)))
}

// stopWords are high-frequency tokens that carry no matching signal.
var stopWords = map[string]bool{
	"an": true, "the": true, "with": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "is": true, "has": true,
	"wearing": true, "small": true, "little": true, "figure": true, "toy": true,
}
