package text

import (
	"encoding/json"
	"strings"

	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
)

// Analyzer parses raw descriptions, structured or free-form, into an
// Analysis.  Stateless and safe for concurrent use.
type Analyzer struct {
	syn *SynonymTable
	log logging.Logger
}

// NewAnalyzer builds an analyzer.  A nil table falls back to the built-in
// vocabulary, a nil logger to the no-op logger.
func NewAnalyzer(syn *SynonymTable, log logging.Logger) *Analyzer {
	if syn == nil {
		syn = DefaultSynonymTable()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Analyzer{syn: syn, log: log}
}

// Synonyms exposes the analyzer's vocabulary so scorers share the same table.
func (a *Analyzer) Synonyms() *SynonymTable { return a.syn }

// structuredPayload is the JSON shape emitted by upstream vision and language
// models.  Fenced code blocks around the payload are tolerated.
type structuredPayload struct {
	Summary          string   `json:"summary"`
	Name             string   `json:"name"`
	Series           string   `json:"series"`
	Colors           []string `json:"colors"`
	Materials        []string `json:"materials"`
	KeyFeatures      []string `json:"keyFeatures"`
	Confidence       float64  `json:"confidence"`
	IsMatchCandidate *bool    `json:"isMatchCandidate"`
}

// Analyze parses raw into an Analysis.  A well-formed JSON payload is taken
// at face value; anything else goes through the keyword fallback, whose
// confidence is capped in the 0.5 to 0.7 band to reflect the weaker parse.
// Analyze never fails: empty input yields an empty zero-confidence analysis
// that is not a match candidate.
func (a *Analyzer) Analyze(raw string) (*Analysis, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &Analysis{IsMatchCandidate: false}, nil
	}

	if an, ok := a.parseStructured(raw); ok {
		a.log.Debug("parsed structured description",
			logging.Float64("confidence", an.Confidence))
		return an, nil
	}

	an := a.keywordScan(raw)
	a.log.Debug("keyword fallback analysis",
		logging.Int("colors", len(an.Colors)),
		logging.Int("key_features", len(an.KeyFeatures)),
		logging.Float64("confidence", an.Confidence))
	return an, nil
}

// parseStructured attempts a strict JSON parse, unwrapping one fenced code
// block if present.
func (a *Analyzer) parseStructured(raw string) (*Analysis, bool) {
	body := stripCodeFence(raw)
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end <= start {
		return nil, false
	}

	var p structuredPayload
	dec := json.NewDecoder(strings.NewReader(body[start : end+1]))
	if err := dec.Decode(&p); err != nil {
		return nil, false
	}

	an := &Analysis{
		Summary:     strings.TrimSpace(p.Summary),
		Confidence:  p.Confidence,
		Structured:  true,
		Colors:      a.canonicalAll(p.Colors),
		Materials:   a.canonicalAll(p.Materials),
		KeyFeatures: a.canonicalAll(p.KeyFeatures),
	}
	if p.Name != "" {
		an.NameHints = []string{p.Name}
	}
	if p.Series != "" {
		an.SeriesHints = []string{a.syn.Canonical(p.Series)}
	}
	an.Normalize()
	if an.Empty() && an.Summary == "" {
		return nil, false
	}
	if p.IsMatchCandidate != nil {
		an.IsMatchCandidate = *p.IsMatchCandidate
	} else {
		an.IsMatchCandidate = !an.Empty()
	}
	return an, true
}

// keywordScan extracts vocabulary hits from free-form text.  Confidence
// starts at 0.5 and grows with each term category found, capped at 0.7.
func (a *Analyzer) keywordScan(raw string) *Analysis {
	found := a.syn.Scan(raw)

	an := &Analysis{
		Summary:     raw,
		Colors:      found[CategoryColor],
		Materials:   found[CategoryMaterial],
		KeyFeatures: found[CategoryFeature],
		SeriesHints: found[CategorySeries],
		NameHints:   found[CategoryName],
	}
	categories := 0
	for _, terms := range found {
		if len(terms) > 0 {
			categories++
		}
	}
	an.Confidence = 0.5 + 0.05*float64(categories)
	if an.Confidence > 0.7 {
		an.Confidence = 0.7
	}
	an.Normalize()
	an.IsMatchCandidate = !an.Empty()
	return an
}

func (a *Analyzer) canonicalAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, a.syn.Canonical(t))
	}
	return out
}

// stripCodeFence removes one surrounding markdown code fence, with or
// without a language tag.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
