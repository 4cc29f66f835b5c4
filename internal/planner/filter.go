package planner

import (
	"sort"
	"strings"

	"github.com/kalambet/attire/internal/catalog"
	"github.com/kalambet/attire/internal/colors"
)

// RelaxationStep names one loosening of the filter constraints. Steps are
// applied in ladder order, only when a mandatory pool would otherwise be
// empty, and every applied step is recorded in the diagnostics.
type RelaxationStep string

const (
	// RelaxDropColorPreference drops the preferred-color ordering boost.
	// Avoid-color exclusion is never dropped.
	RelaxDropColorPreference RelaxationStep = "drop_color_preference"
	// RelaxWidenTemperature admits garments from the adjacent warmth
	// tiers. The widened pass keeps only the hard outerwear exclusion;
	// the advisory material and sleeve rules fail open so an off-tier
	// wardrobe still yields a (penalized) outfit.
	RelaxWidenTemperature RelaxationStep = "widen_temperature"
	// RelaxWidenFormality admits garments from the adjacent formality levels.
	RelaxWidenFormality RelaxationStep = "widen_formality"
)

// relaxationLadder is the fixed order relaxations are tried in. Append new
// steps at the end; never reorder existing ones.
var relaxationLadder = []RelaxationStep{
	RelaxDropColorPreference,
	RelaxWidenTemperature,
	RelaxWidenFormality,
}

// candidate is one garment surviving the filters, with its accumulated
// ordering boost.
type candidate struct {
	garment catalog.Garment
	boost   float64
}

// pool is the surviving candidates for one category, ordered by boost
// descending then id ascending, plus the relaxations that were needed to
// make it non-empty.
type pool struct {
	category    catalog.Category
	candidates  []candidate
	relaxations []RelaxationStep
}

func (p *pool) empty() bool { return len(p.candidates) == 0 }

// StageCounts records how many garments of a category survived each filter,
// for the strict (unrelaxed) pass.
type StageCounts struct {
	Total            int `json:"total"`
	AfterTemperature int `json:"after_temperature"`
	AfterFormality   int `json:"after_formality"`
	AfterColor       int `json:"after_color"`
}

// filterState captures which relaxations are in effect while filtering one
// category.
type filterState struct {
	widenTemperature bool
	widenFormality   bool
	dropColorPref    bool
}

// buildPool filters one category, relaxing along the ladder until the pool
// is non-empty or the ladder is exhausted. The avoid-color exclusion holds
// through every step.
func buildPool(snap *catalog.Snapshot, cat catalog.Category, nctx normalizedContext, cfg Config) (*pool, StageCounts) {
	p := &pool{category: cat}
	var st filterState
	counts := runFilters(snap, cat, nctx, cfg, st, p)

	for _, step := range relaxationLadder {
		if !p.empty() {
			break
		}
		switch step {
		case RelaxDropColorPreference:
			st.dropColorPref = true
		case RelaxWidenTemperature:
			st.widenTemperature = true
		case RelaxWidenFormality:
			st.widenFormality = true
		}
		p.relaxations = append(p.relaxations, step)
		runFilters(snap, cat, nctx, cfg, st, p)
	}

	return p, counts
}

// runFilters fills p.candidates with the garments of cat that survive the
// three filters under the given relaxation state, and returns the per-stage
// survivor counts.
func runFilters(snap *catalog.Snapshot, cat catalog.Category, nctx normalizedContext, cfg Config, st filterState, p *pool) StageCounts {
	var counts StageCounts
	p.candidates = p.candidates[:0]

	tiers := allowedTiers(nctx.tier, st.widenTemperature)
	levels := allowedFormalities(nctx.Formality, st.widenFormality)

	for _, id := range snap.Category(cat) {
		g, _ := snap.Get(id)
		counts.Total++

		if !temperatureOKAny(g, tiers) {
			continue
		}
		counts.AfterTemperature++

		if !formalityOKAny(g, levels) {
			continue
		}
		counts.AfterFormality++

		// Avoidance is mandatory and survives every relaxation step.
		if colors.MatchesAny(g.ColorPrimary, nctx.avoided) || colors.MatchesAny(g.ColorSecondary, nctx.avoided) {
			continue
		}
		counts.AfterColor++

		p.candidates = append(p.candidates, candidate{
			garment: g,
			boost:   boostFor(g, nctx, cfg, !st.dropColorPref),
		})
	}

	sort.Slice(p.candidates, func(i, j int) bool {
		if p.candidates[i].boost != p.candidates[j].boost {
			return p.candidates[i].boost > p.candidates[j].boost
		}
		return p.candidates[i].garment.ID < p.candidates[j].garment.ID
	})

	return counts
}

func allowedTiers(t WarmthTier, widen bool) []WarmthTier {
	tiers := []WarmthTier{t}
	if !widen {
		return tiers
	}
	i := tierIndex(t)
	if i > 0 {
		tiers = append(tiers, warmthScale[i-1])
	}
	if i >= 0 && i < len(warmthScale)-1 {
		tiers = append(tiers, warmthScale[i+1])
	}
	return tiers
}

func allowedFormalities(f Formality, widen bool) []Formality {
	levels := []Formality{f}
	if !widen {
		return levels
	}
	i := formalityIndex(f)
	if i > 0 {
		levels = append(levels, formalityScale[i-1])
	}
	if i >= 0 && i < len(formalityScale)-1 {
		levels = append(levels, formalityScale[i+1])
	}
	return levels
}

// --- temperature filter ---

var (
	lightMaterials = []string{"linen", "chiffon", "mesh", "seersucker"}
	heavyMaterials = []string{"wool", "down", "fleece", "leather", "velvet", "corduroy", "tweed"}
	coolMaterials  = []string{"cotton", "linen", "silk", "chiffon"}
)

// temperatureOKAny accepts a garment that fits any tier in scope. The
// first tier is always the strict one; tiers added by widening run the
// relaxed check.
func temperatureOKAny(g catalog.Garment, tiers []WarmthTier) bool {
	for i, t := range tiers {
		if temperatureOK(g, t, i > 0) {
			return true
		}
	}
	return false
}

// temperatureOK checks a garment's attributes against one warmth tier.
// Unknown or missing attribute values pass (fail open) so sparse captions
// do not starve the pools. A tier reached by widening keeps only the hard
// outerwear exclusion: the widened pass exists to fill an empty pool, so
// the advisory material and sleeve rules fail open there.
func temperatureOK(g catalog.Garment, tier WarmthTier, relaxed bool) bool {
	if (tier == TierWarm || tier == TierHot) && g.Category == catalog.CategoryOuterwear {
		return false
	}
	if relaxed {
		return true
	}

	sleeve := fold(g.SleeveLength)
	material := fold(g.Material)

	switch tier {
	case TierCold:
		if containsAny(sleeve, "sleeveless", "short") {
			return false
		}
		if containsAny(material, lightMaterials...) {
			return false
		}
	case TierMild:
		if containsAny(material, "down") {
			return false
		}
	case TierWarm:
		if containsAny(material, heavyMaterials...) {
			return false
		}
	case TierHot:
		if containsAny(material, heavyMaterials...) {
			return false
		}
		if strings.Contains(sleeve, "long") {
			return false
		}
	}
	return true
}

// --- formality filter ---

func formalityOKAny(g catalog.Garment, levels []Formality) bool {
	for _, f := range levels {
		if formalityOK(g, f) {
			return true
		}
	}
	return false
}

// formalityOK checks a garment's style aesthetic against one formality
// level. A garment with no style and no subcategory passes everywhere
// (fail open).
func formalityOK(g catalog.Garment, f Formality) bool {
	style := fold(g.StyleAesthetic)
	sub := fold(g.Subcategory)
	if style == "" && sub == "" {
		return true
	}

	switch f {
	case FormalityFormal:
		return containsAny(style, "formal", "classic", "elegant") ||
			g.Category == catalog.CategoryDress ||
			containsAny(sub, "suit", "gown")
	case FormalityBusinessFormal:
		return containsAny(style, "business", "formal", "classic", "elegant", "professional") ||
			g.Category == catalog.CategoryDress ||
			containsAny(sub, "blazer", "jacket", "suit")
	case FormalityBusinessCasual:
		return !containsAny(style, "sporty", "athletic")
	case FormalityCasual:
		return true
	case FormalitySporty:
		return containsAny(style, "sporty", "athletic", "active") ||
			containsAny(sub, "athletic", "track", "jogger", "legging", "hoodie")
	}
	return true
}

// --- boosts ---

// boostFor accumulates the advisory ordering boosts for a garment. Boosts
// reorder pools and feed ranking; they never exclude.
func boostFor(g catalog.Garment, nctx normalizedContext, cfg Config, colorPrefActive bool) float64 {
	var boost float64

	if colorPrefActive && len(nctx.preferred) > 0 {
		if colors.MatchesAny(g.ColorPrimary, nctx.preferred) || colors.MatchesAny(g.ColorSecondary, nctx.preferred) {
			boost += cfg.ColorBoost
		}
	}

	style := fold(g.StyleAesthetic)
	for _, pref := range nctx.StylePreferences {
		if p := fold(pref); p != "" && style != "" && (strings.Contains(style, p) || strings.Contains(p, style)) {
			boost += cfg.StyleBoost
			break
		}
	}

	if occ := fold(nctx.Occasion); occ != "" {
		if strings.Contains(style, occ) || strings.Contains(fold(g.Subcategory), occ) {
			boost += cfg.OccasionBoost
		}
	}

	if nctx.tier == TierWarm || nctx.tier == TierHot {
		if containsAny(fold(g.Material), coolMaterials...) {
			boost += cfg.ComfortBoost
		}
	}

	return boost
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(s string, tokens ...string) bool {
	if s == "" {
		return false
	}
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
