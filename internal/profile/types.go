package profile

import (
	"github.com/kalambet/attire/internal/colors"
	"github.com/kalambet/attire/internal/planner"
)

// Profile is the user's standing wardrobe preferences. It fills the gaps a
// request leaves open; a field set on the request always wins.
type Profile struct {
	Appearance Appearance `json:"appearance"`
	Style      Style      `json:"style"`
	Comfort    Comfort    `json:"comfort"`
	Location   Location   `json:"location"`
}

// Appearance groups the user's color characteristics.
type Appearance struct {
	// ColorSeason is the user's seasonal color type, e.g. "winter".
	ColorSeason     colors.Season `json:"color_season,omitempty"`
	PreferredColors []string      `json:"preferred_colors,omitempty"`
	AvoidColors     []string      `json:"avoid_colors,omitempty"`
}

// Style groups standing style choices.
type Style struct {
	// Preferences are style aesthetics the user gravitates to,
	// e.g. "minimalist", "classic".
	Preferences []string `json:"preferences,omitempty"`
	// DefaultFormality applies when a request names no formality.
	DefaultFormality planner.Formality `json:"default_formality,omitempty"`
}

// Comfort groups thermal comfort traits.
type Comfort struct {
	Sensitivity planner.TemperatureSensitivity `json:"temperature_sensitivity,omitempty"`
}

// Location groups where the user is, for weather lookups.
type Location struct {
	City string `json:"city,omitempty"`
}
