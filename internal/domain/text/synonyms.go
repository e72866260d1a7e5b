package text

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/FigureLens/pkg/errors"
)

// TermCategory classifies vocabulary groups in the synonym table.
type TermCategory string

const (
	CategoryColor    TermCategory = "color"
	CategoryMaterial TermCategory = "material"
	CategoryFeature  TermCategory = "feature"
	CategorySeries   TermCategory = "series"
	CategoryName     TermCategory = "name"
)

// SynonymTable maps canonical vocabulary terms to their variants, including
// cross-language ones, so "navy overalls" and "深蓝色背带裤" resolve to the
// same canonical terms.  Lookups are case-insensitive; the table is immutable
// after construction and safe for concurrent reads.
type SynonymTable struct {
	groups map[TermCategory]map[string][]string
	// index maps every lowercased variant (and canonical) to its entry.
	index map[string]termEntry
}

type termEntry struct {
	canonical string
	category  TermCategory
}

// synonymFile is the YAML shape of an external synonym table.
type synonymFile struct {
	Colors    map[string][]string `yaml:"colors"`
	Materials map[string][]string `yaml:"materials"`
	Features  map[string][]string `yaml:"features"`
	Series    map[string][]string `yaml:"series"`
	// Names lists known model-name phrases and their nicknames.  The
	// built-in table ships none; deployments load theirs so free-form
	// descriptions can hit the name signal.
	Names map[string][]string `yaml:"names"`
}

// DefaultSynonymTable returns the built-in bilingual vocabulary.  It covers
// the colors, materials and garment features common in the reference catalogs;
// deployments extend it via LoadSynonymTable.
func DefaultSynonymTable() *SynonymTable {
	t := &SynonymTable{
		groups: map[TermCategory]map[string][]string{},
		index:  map[string]termEntry{},
	}
	t.merge(CategoryColor, map[string][]string{
		"red":    {"红色", "红", "crimson", "scarlet"},
		"orange": {"橙色", "橘色", "橙"},
		"yellow": {"黄色", "黄", "golden"},
		"green":  {"绿色", "绿", "mint green", "薄荷绿"},
		"cyan":   {"青色", "青", "teal"},
		"blue":   {"蓝色", "蓝", "sky blue", "天蓝色"},
		"navy":   {"深蓝色", "深蓝", "藏蓝", "dark blue", "navy blue"},
		"purple": {"紫色", "紫", "violet", "lavender"},
		"pink":   {"粉色", "粉红色", "粉", "rose"},
		"brown":  {"棕色", "褐色", "咖啡色", "tan"},
		"black":  {"黑色", "黑"},
		"white":  {"白色", "白", "ivory", "米白色"},
		"gray":   {"灰色", "灰", "grey"},
	})
	t.merge(CategoryMaterial, map[string][]string{
		"plush":    {"毛绒", "绒毛", "plushie", "fluffy"},
		"vinyl":    {"搪胶", "乙烯基"},
		"plastic":  {"塑料", "塑胶"},
		"metal":    {"金属", "合金", "metallic"},
		"resin":    {"树脂"},
		"corduroy": {"灯芯绒", "条绒"},
		"denim":    {"牛仔布", "牛仔"},
		"felt":     {"毛毡"},
	})
	t.merge(CategoryFeature, map[string][]string{
		"overalls": {"背带裤", "工装裤", "dungarees", "bib overalls"},
		"hoodie":   {"连帽衫", "帽衫", "hooded"},
		"dress":    {"连衣裙", "裙子", "skirt"},
		"hat":      {"帽子", "cap", "beanie"},
		"bow":      {"蝴蝶结", "ribbon"},
		"wings":    {"翅膀", "翼"},
		"horns":    {"角", "犄角"},
		"ears":     {"耳朵", "兔耳", "bunny ears"},
		"tail":     {"尾巴"},
		"scarf":    {"围巾", "围脖"},
		"backpack": {"背包", "书包"},
		"glasses":  {"眼镜", "墨镜", "sunglasses"},
		"smile":    {"微笑", "笑脸", "smiling"},
		"teeth":    {"牙齿", "獠牙", "fangs"},
	})
	t.merge(CategorySeries, map[string][]string{
		"classic":     {"经典系列", "classic series"},
		"space":       {"太空系列", "space series", "宇航员", "astronaut"},
		"forest":      {"森林系列", "forest series"},
		"ocean":       {"海洋系列", "ocean series"},
		"halloween":   {"万圣节系列", "halloween series"},
		"christmas":   {"圣诞系列", "christmas series"},
		"anniversary": {"周年系列", "anniversary series"},
	})
	return t
}

// LoadSynonymTable reads a YAML vocabulary file and merges it over the
// built-in table.  User entries win on conflicting variants.  A malformed
// file is an ErrCodeSynonymTableInvalid error.
func LoadSynonymTable(path string) (*SynonymTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSynonymTableInvalid, "cannot read synonym table")
	}
	var file synonymFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSynonymTableInvalid, "cannot parse synonym table")
	}

	t := DefaultSynonymTable()
	t.merge(CategoryColor, file.Colors)
	t.merge(CategoryMaterial, file.Materials)
	t.merge(CategoryFeature, file.Features)
	t.merge(CategorySeries, file.Series)
	t.merge(CategoryName, file.Names)
	return t, nil
}

func (t *SynonymTable) merge(cat TermCategory, groups map[string][]string) {
	if t.groups[cat] == nil {
		t.groups[cat] = map[string][]string{}
	}
	for canonical, variants := range groups {
		canonical = strings.ToLower(strings.TrimSpace(canonical))
		if canonical == "" {
			continue
		}
		t.groups[cat][canonical] = append(t.groups[cat][canonical], variants...)
		t.index[canonical] = termEntry{canonical: canonical, category: cat}
		for _, v := range variants {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				t.index[v] = termEntry{canonical: canonical, category: cat}
			}
		}
	}
}

// Canonical resolves term to its canonical form, or returns the lowercased
// term unchanged when it is not in the table.
func (t *SynonymTable) Canonical(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if e, ok := t.index[term]; ok {
		return e.canonical
	}
	return term
}

// SameMeaning reports whether two terms resolve to the same canonical form.
func (t *SynonymTable) SameMeaning(a, b string) bool {
	return t.Canonical(a) != "" && t.Canonical(a) == t.Canonical(b)
}

// Expand returns the canonical form of term followed by all its variants,
// or just the normalized term when it is unknown.
func (t *SynonymTable) Expand(term string) []string {
	canonical := t.Canonical(term)
	e, ok := t.index[canonical]
	if !ok {
		return []string{canonical}
	}
	out := []string{canonical}
	out = append(out, t.groups[e.category][canonical]...)
	return out
}

// Scan finds every table variant contained in the lowercased text, grouped by
// category and resolved to canonical terms.  Longer variants are tried first
// so "深蓝色" wins over "蓝色" and "蓝".
func (t *SynonymTable) Scan(text string) map[TermCategory][]string {
	lower := strings.ToLower(text)
	variants := make([]string, 0, len(t.index))
	for v := range t.index {
		variants = append(variants, v)
	}
	sort.Slice(variants, func(i, j int) bool {
		if len(variants[i]) != len(variants[j]) {
			return len(variants[i]) > len(variants[j])
		}
		return variants[i] < variants[j]
	})

	found := map[TermCategory][]string{}
	claimed := map[string]bool{}
	for _, v := range variants {
		if !ContainsTerm(lower, v) {
			continue
		}
		// Consume the matched text so "深蓝色" does not also surface as
		// "蓝色" and "蓝".
		lower = strings.ReplaceAll(lower, v, "\x00")
		e := t.index[v]
		if claimed[string(e.category)+"/"+e.canonical] {
			continue
		}
		claimed[string(e.category)+"/"+e.canonical] = true
		found[e.category] = append(found[e.category], e.canonical)
	}
	return found
}

// ContainsTerm matches v inside text.  ASCII terms must sit on word
// boundaries so "hat" does not fire inside "that"; CJK terms match as plain
// substrings since the languages carry no word separators.
func ContainsTerm(text, v string) bool {
	if !isASCIITerm(v) {
		return strings.Contains(text, v)
	}
	for from := 0; ; {
		i := strings.Index(text[from:], v)
		if i < 0 {
			return false
		}
		i += from
		before := i == 0 || !isWordByte(text[i-1])
		after := i+len(v) == len(text) || !isWordByte(text[i+len(v)])
		if before && after {
			return true
		}
		from = i + 1
	}
}

func isASCIITerm(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
