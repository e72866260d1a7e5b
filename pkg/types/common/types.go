// Package common holds the enums and small value types shared across the
// FigureLens engine: quality bands, material and region classifications,
// rarity tiers.  No logic beyond parsing and validation lives here.
package common

import "strings"

// ─────────────────────────────────────────────────────────────────────────────
// QualityBand — human-readable confidence tier derived from a numeric score
// ─────────────────────────────────────────────────────────────────────────────

// QualityBand is the user-facing confidence tier of a match score.  Banding is
// for reporting only and never used for filtering.
type QualityBand string

const (
	QualityExcellent QualityBand = "excellent"
	QualityGood      QualityBand = "good"
	QualityFair      QualityBand = "fair"
	QualityPoor      QualityBand = "poor"
	QualityVeryPoor  QualityBand = "very_poor"
)

// BandForScore maps a score in [0,1] to its quality band.
//
//	[0.9,1.0] excellent  [0.8,0.9) good  [0.6,0.8) fair  [0.4,0.6) poor
func BandForScore(score float64) QualityBand {
	switch {
	case score >= 0.9:
		return QualityExcellent
	case score >= 0.8:
		return QualityGood
	case score >= 0.6:
		return QualityFair
	case score >= 0.4:
		return QualityPoor
	default:
		return QualityVeryPoor
	}
}

// String returns the band label.
func (q QualityBand) String() string { return string(q) }

// ─────────────────────────────────────────────────────────────────────────────
// MaterialType — surface material classification of a figure
// ─────────────────────────────────────────────────────────────────────────────

// MaterialType classifies the surface material of a catalog figure.
type MaterialType string

const (
	MaterialPlush   MaterialType = "plush"
	MaterialVinyl   MaterialType = "vinyl"
	MaterialPlastic MaterialType = "plastic"
	MaterialMetal   MaterialType = "metal"
	MaterialResin   MaterialType = "resin"
	MaterialUnknown MaterialType = "unknown"
)

// IsValid reports whether m is a known material.
func (m MaterialType) IsValid() bool {
	switch m {
	case MaterialPlush, MaterialVinyl, MaterialPlastic, MaterialMetal, MaterialResin, MaterialUnknown:
		return true
	default:
		return false
	}
}

// ParseMaterialType parses s case-insensitively; unknown values map to
// MaterialUnknown rather than erroring, keeping upstream data tolerable.
func ParseMaterialType(s string) MaterialType {
	m := MaterialType(strings.ToLower(strings.TrimSpace(s)))
	if m.IsValid() {
		return m
	}
	return MaterialUnknown
}

// ─────────────────────────────────────────────────────────────────────────────
// BodyRegion — where on the figure a color sample was taken
// ─────────────────────────────────────────────────────────────────────────────

// BodyRegion locates a dominant-color sample on the figure.
type BodyRegion string

const (
	RegionBody      BodyRegion = "body"
	RegionFace      BodyRegion = "face"
	RegionAccessory BodyRegion = "accessory"
	RegionEars      BodyRegion = "ears"
	RegionOutfit    BodyRegion = "outfit"
)

// IsValid reports whether r is a known region.
func (r BodyRegion) IsValid() bool {
	switch r {
	case RegionBody, RegionFace, RegionAccessory, RegionEars, RegionOutfit:
		return true
	default:
		return false
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// RarityTier — catalog rarity classification
// ─────────────────────────────────────────────────────────────────────────────

// RarityTier classifies how rare a catalog figure is.
type RarityTier string

const (
	RarityCommon   RarityTier = "common"
	RarityUncommon RarityTier = "uncommon"
	RarityRare     RarityTier = "rare"
	RarityEpic     RarityTier = "epic"
	RaritySecret   RarityTier = "secret"
)

// ParseRarityTier parses s case-insensitively; unrecognised values fall back
// to RarityCommon, mirroring how upstream catalog feeds label unclassified
// figures.
func ParseRarityTier(s string) RarityTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uncommon":
		return RarityUncommon
	case "rare":
		return RarityRare
	case "epic", "ultra_rare":
		return RarityEpic
	case "secret":
		return RaritySecret
	default:
		return RarityCommon
	}
}

// String returns the tier label.
func (r RarityTier) String() string { return string(r) }
