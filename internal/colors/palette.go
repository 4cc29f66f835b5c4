package colors

// Season is a color-season classification from the user's color analysis.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
	// The original analysis flow also emits the coarse cool/warm split.
	SeasonCool Season = "cool"
	SeasonWarm Season = "warm"
)

// palettes holds the best-color list per season. Values are already in
// canonical (normalized) form.
var palettes = map[Season][]string{
	SeasonSpring: {"pastel pink", "soft green", "light blue", "cream"},
	SeasonSummer: {"white", "light blue", "pink", "gray"},
	SeasonAutumn: {"brown", "orange", "beige", "gold"},
	SeasonWinter: {"black", "white", "navy", "burgundy", "gray"},
	SeasonCool:   {"gray", "navy", "white", "pink", "light blue"},
	SeasonWarm:   {"beige", "orange", "gold", "brown"},
}

// Palette returns the advisory best-color list for a season, or nil for an
// unknown/empty season.
func Palette(s Season) []string {
	p, ok := palettes[s]
	if !ok {
		return nil
	}
	out := make([]string, len(p))
	copy(out, p)
	return out
}

// KnownSeason reports whether s names a palette.
func KnownSeason(s Season) bool {
	_, ok := palettes[s]
	return ok
}
