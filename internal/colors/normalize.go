// Package colors normalizes free-text color names and carries the
// season palette tables used for advisory color preferences.
package colors

import "strings"

// synonyms maps color spellings to one canonical name. Garment captions and
// user input disagree constantly ("navy" vs "dark blue", "grey" vs "gray"),
// so matching goes through this table instead of raw string comparison.
// Additions are append-only; tests pin the existing entries.
var synonyms = map[string]string{
	"dark blue":   "navy",
	"navy blue":   "navy",
	"midnight":    "navy",
	"grey":        "gray",
	"charcoal":    "gray",
	"light grey":  "gray",
	"light gray":  "gray",
	"tan":         "beige",
	"khaki":       "beige",
	"sand":        "beige",
	"camel":       "beige",
	"maroon":      "burgundy",
	"wine":        "burgundy",
	"oxblood":     "burgundy",
	"off-white":   "white",
	"off white":   "white",
	"ivory":       "cream",
	"ecru":        "cream",
	"fuchsia":     "pink",
	"rose":        "pink",
	"blush":       "pink",
	"teal":        "turquoise",
	"aqua":        "turquoise",
	"mint":        "soft green",
	"sage":        "soft green",
	"olive":       "green",
	"forest":      "green",
	"lavender":    "purple",
	"violet":      "purple",
	"mustard":     "gold",
	"rust":        "orange",
	"terracotta":  "orange",
	"scarlet":     "red",
	"crimson":     "red",
	"sky blue":    "light blue",
	"powder blue": "light blue",
	"baby blue":   "light blue",
}

// Normalize lowercases, trims and synonym-folds a color name.
// Unknown names come back folded but otherwise unchanged.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := synonyms[n]; ok {
		return canon
	}
	return n
}

// NormalizeAll normalizes a list, dropping empties and duplicates while
// preserving first-seen order.
func NormalizeAll(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		n := Normalize(name)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Matches reports whether the normalized needle appears in the garment color
// field. Garment captions often carry compound values ("navy blue stripe"),
// so a substring check runs against the normalized forms of both sides.
func Matches(garmentColor, needle string) bool {
	g := Normalize(garmentColor)
	n := Normalize(needle)
	if g == "" || n == "" {
		return false
	}
	return g == n || strings.Contains(g, n) || strings.Contains(n, g)
}

// MatchesAny reports whether any needle matches the garment color.
func MatchesAny(garmentColor string, needles []string) bool {
	for _, n := range needles {
		if Matches(garmentColor, n) {
			return true
		}
	}
	return false
}
