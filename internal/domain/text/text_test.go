package text

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/FigureLens/pkg/errors"
)

func TestAnalyzeStructuredPayload(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	raw := "```json\n" + `{
		"summary": "A navy plush rabbit wearing overalls",
		"name": "Momo",
		"series": "forest series",
		"colors": ["深蓝色", "white"],
		"materials": ["毛绒"],
		"keyFeatures": ["背带裤", "bunny ears"],
		"confidence": 0.92
	}` + "\n```"

	an, err := a.Analyze(raw)
	require.NoError(t, err)

	assert.True(t, an.Structured)
	assert.Equal(t, 0.92, an.Confidence)
	assert.Equal(t, []string{"momo"}, an.NameHints)
	assert.Equal(t, []string{"forest"}, an.SeriesHints)
	assert.Equal(t, []string{"navy", "white"}, an.Colors)
	assert.Equal(t, []string{"plush"}, an.Materials)
	assert.Equal(t, []string{"ears", "overalls"}, an.KeyFeatures)
	assert.True(t, an.IsMatchCandidate)
}

func TestAnalyzeStructuredClampsConfidence(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	an, err := a.Analyze(`{"summary":"figure","colors":["red"],"confidence":1.8}`)
	require.NoError(t, err)
	assert.True(t, an.Structured)
	assert.Equal(t, 1.0, an.Confidence)
}

func TestAnalyzeKeywordFallback(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	an, err := a.Analyze("穿着深蓝色灯芯绒背带裤的小熊")
	require.NoError(t, err)

	assert.False(t, an.Structured)
	assert.Equal(t, []string{"navy"}, an.Colors, "深蓝色 must resolve to navy, not blue")
	assert.Equal(t, []string{"corduroy"}, an.Materials)
	assert.Equal(t, []string{"overalls"}, an.KeyFeatures)
	assert.GreaterOrEqual(t, an.Confidence, 0.5)
	assert.LessOrEqual(t, an.Confidence, 0.7)
}

func TestAnalyzeFallbackConfidenceBand(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	an, err := a.Analyze("something entirely unrelated to figurines")
	require.NoError(t, err)
	assert.False(t, an.Structured)
	assert.Equal(t, 0.5, an.Confidence)
	assert.False(t, an.IsMatchCandidate)

	an, err = a.Analyze("red plush bear with a hat from the space series")
	require.NoError(t, err)
	assert.Equal(t, 0.7, an.Confidence)
	assert.True(t, an.IsMatchCandidate)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	// Analyze is total: no input degrades to an empty non-candidate
	// analysis instead of an error.
	an, err := a.Analyze("   ")
	require.NoError(t, err)
	assert.False(t, an.IsMatchCandidate)
	assert.Zero(t, an.Confidence)
	assert.True(t, an.Empty())
}

func TestAnalyzeMalformedJSONFallsBack(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	an, err := a.Analyze(`{"colors": ["blue", } broken but mentions 红色`)
	require.NoError(t, err)
	assert.False(t, an.Structured)
	assert.Contains(t, an.Colors, "red")
}

func TestSynonymTableCanonical(t *testing.T) {
	syn := DefaultSynonymTable()

	assert.Equal(t, "navy", syn.Canonical("深蓝色"))
	assert.Equal(t, "navy", syn.Canonical("Dark Blue"))
	assert.Equal(t, "overalls", syn.Canonical("背带裤"))
	assert.Equal(t, "corduroy", syn.Canonical("灯芯绒"))
	assert.Equal(t, "mystery term", syn.Canonical("Mystery Term"))

	assert.True(t, syn.SameMeaning("深蓝色", "navy blue"))
	assert.False(t, syn.SameMeaning("深蓝色", "红色"))

	exp := syn.Expand("dungarees")
	assert.Contains(t, exp, "overalls")
	assert.Contains(t, exp, "背带裤")
}

func TestLoadSynonymTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
colors:
  turquoise: [绿松石色, 松石绿]
features:
  cape: [披风, 斗篷]
`), 0o600))

	syn, err := LoadSynonymTable(path)
	require.NoError(t, err)

	assert.Equal(t, "turquoise", syn.Canonical("绿松石色"))
	assert.Equal(t, "cape", syn.Canonical("披风"))
	// built-in vocabulary survives the merge
	assert.Equal(t, "navy", syn.Canonical("深蓝色"))
}

func TestLoadSynonymTableNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
names:
  momo: [莫莫, little momo]
  nova: [诺娃]
`), 0o600))

	syn, err := LoadSynonymTable(path)
	require.NoError(t, err)
	assert.Equal(t, "momo", syn.Canonical("莫莫"))

	a := NewAnalyzer(syn, nil)
	an, err := a.Analyze("a worn little momo in pink plush")
	require.NoError(t, err)
	assert.Contains(t, an.NameHints, "momo", "known model names surface from free-form text")
	assert.Contains(t, an.Colors, "pink")

	// Without a loaded name vocabulary the hint list simply stays empty.
	plain, err := NewAnalyzer(nil, nil).Analyze("a worn little momo in pink plush")
	require.NoError(t, err)
	assert.Empty(t, plain.NameHints)
}

func TestLoadSynonymTableErrors(t *testing.T) {
	_, err := LoadSynonymTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSynonymTableInvalid))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colors: [not, a, map"), 0o600))
	_, err = LoadSynonymTable(path)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSynonymTableInvalid))
}
