// Package planner is the recommendation core: it narrows a catalog snapshot
// to per-category candidate pools with attribute rules, scores candidate
// combinations by embedding similarity, and assembles ranked outfit
// proposals for a single day context.
package planner

import (
	"errors"
	"fmt"

	"github.com/kalambet/attire/internal/colors"
)

// ErrInvalidContext marks a day context the planner cannot reason about
// (missing mandatory fields). The request fails as a whole.
var ErrInvalidContext = errors.New("invalid day context")

// Formality is the dress formality level for the day.
type Formality string

const (
	FormalityFormal         Formality = "formal"
	FormalityBusinessFormal Formality = "business_formal"
	FormalityBusinessCasual Formality = "business_casual"
	FormalityCasual         Formality = "casual"
	FormalitySporty         Formality = "sporty"
)

// formalityScale orders levels from most to least formal. Relaxation widens
// by one position in either direction.
var formalityScale = []Formality{
	FormalityFormal,
	FormalityBusinessFormal,
	FormalityBusinessCasual,
	FormalityCasual,
	FormalitySporty,
}

func formalityIndex(f Formality) int {
	for i, v := range formalityScale {
		if v == f {
			return i
		}
	}
	return -1
}

// Weather is the day's conditions, from the weather client or a simulated
// fallback.
type Weather struct {
	TemperatureC float64 `json:"temperature_c"`
	Humidity     int     `json:"humidity"`
	Condition    string  `json:"condition"`
	WindKPH      float64 `json:"wind_kph"`
}

// TemperatureSensitivity shifts the felt temperature for users who run
// cold or hot.
type TemperatureSensitivity string

const (
	SensitivityNormal TemperatureSensitivity = ""
	SensitivityCold   TemperatureSensitivity = "cold-sensitive"
	SensitivityHeat   TemperatureSensitivity = "heat-sensitive"
)

// DayContext is one day's planning input. Weather and Formality are
// mandatory; everything else is advisory.
type DayContext struct {
	Weather     *Weather  `json:"weather"`
	Occasion    string    `json:"occasion,omitempty"`
	Formality   Formality `json:"formality"`

	PreferredColors []string `json:"preferred_colors,omitempty"`
	AvoidColors     []string `json:"avoid_colors,omitempty"`

	StylePreferences []string `json:"style_preferences,omitempty"`

	SeasonType  colors.Season          `json:"season_type,omitempty"`
	Sensitivity TemperatureSensitivity `json:"temperature_sensitivity,omitempty"`
}

// normalizedContext is a DayContext with colors folded and the
// preferred/avoid overlap resolved, ready for filtering.
type normalizedContext struct {
	DayContext
	tier      WarmthTier
	preferred []string // preferred colors ∪ season palette, minus avoided
	avoided   []string
}

// Validate checks the mandatory context fields. Weather and formality are
// required; an unknown formality level is rejected rather than guessed.
func (c DayContext) Validate() error {
	if c.Weather == nil {
		return fmt.Errorf("%w: weather is required", ErrInvalidContext)
	}
	if c.Formality == "" {
		return fmt.Errorf("%w: formality is required", ErrInvalidContext)
	}
	if formalityIndex(c.Formality) < 0 {
		return fmt.Errorf("%w: unknown formality %q", ErrInvalidContext, c.Formality)
	}
	return nil
}

// normalize folds all color lists and resolves conflicts. Avoidance is the
// stronger constraint: a color present in both lists stays avoided only.
// The user's season palette is merged into the preferred list (union).
func (c DayContext) normalize() normalizedContext {
	n := normalizedContext{DayContext: c}
	n.tier = warmthTierFor(*c.Weather, c.Sensitivity)

	n.avoided = colors.NormalizeAll(c.AvoidColors)

	merged := colors.NormalizeAll(append(append([]string{}, c.PreferredColors...), colors.Palette(c.SeasonType)...))
	avoidedSet := make(map[string]struct{}, len(n.avoided))
	for _, a := range n.avoided {
		avoidedSet[a] = struct{}{}
	}
	for _, p := range merged {
		if _, conflict := avoidedSet[p]; conflict {
			continue
		}
		n.preferred = append(n.preferred, p)
	}

	return n
}
