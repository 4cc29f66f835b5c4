package planner

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks a configuration rejected at request start. Values
// are never silently clamped.
var ErrInvalidConfig = errors.New("invalid planner config")

// Weights scale the three components of a combination's aggregate score:
//
//	score = Similarity·meanPairwiseSimilarity + Boost·Σboosts − RelaxationPenalty·relaxSteps
type Weights struct {
	// Similarity scales the mean pairwise embedding similarity. Default 1.0.
	Similarity float64 `json:"similarity"`
	// Boost scales the summed preference/occasion boosts. Default 1.0.
	Boost float64 `json:"boost"`
	// RelaxationPenalty is subtracted once per relaxation step that was
	// needed to fill the pools a combination draws from. Default 0.15.
	RelaxationPenalty float64 `json:"relaxation_penalty"`
}

// Config is the planner's tuning surface. Zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Weights Weights `json:"weights"`

	// SearchBudget caps how many candidates per pool enter combination
	// search (ordered by boost, then id). Default 8.
	SearchBudget int `json:"search_budget"`
	// TopK is how many ranked proposals are returned. Default 3.
	TopK int `json:"top_k"`
	// Parallelism bounds concurrent combination scoring. Default 4.
	// Ordering of results does not depend on it.
	Parallelism int `json:"parallelism"`

	// Per-garment boost deltas recorded during filtering.
	ColorBoost    float64 `json:"color_boost"`    // preferred-color match, default 0.25
	StyleBoost    float64 `json:"style_boost"`    // style-preference match, default 0.25
	OccasionBoost float64 `json:"occasion_boost"` // occasion token match, default 0.15
	// ComfortBoost rewards breathable materials on warm/hot days. Default 0.2.
	ComfortBoost float64 `json:"comfort_boost"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Similarity:        1.0,
			Boost:             1.0,
			RelaxationPenalty: 0.15,
		},
		SearchBudget:  8,
		TopK:          3,
		Parallelism:   4,
		ColorBoost:    0.25,
		StyleBoost:    0.25,
		OccasionBoost: 0.15,
		ComfortBoost:  0.2,
	}
}

// Validate rejects unusable configurations eagerly.
func (c Config) Validate() error {
	if c.Weights.Similarity < 0 {
		return fmt.Errorf("%w: similarity weight must not be negative", ErrInvalidConfig)
	}
	if c.Weights.Boost < 0 {
		return fmt.Errorf("%w: boost weight must not be negative", ErrInvalidConfig)
	}
	if c.Weights.RelaxationPenalty < 0 {
		return fmt.Errorf("%w: relaxation penalty must not be negative", ErrInvalidConfig)
	}
	if c.SearchBudget <= 0 {
		return fmt.Errorf("%w: search budget must be positive", ErrInvalidConfig)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfig)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("%w: parallelism must be positive", ErrInvalidConfig)
	}
	for name, v := range map[string]float64{
		"color_boost":    c.ColorBoost,
		"style_boost":    c.StyleBoost,
		"occasion_boost": c.OccasionBoost,
		"comfort_boost":  c.ComfortBoost,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}
