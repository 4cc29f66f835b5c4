package planner

// WarmthTier is the discrete comfort band a day falls into. It drives the
// temperature filter and the outerwear slot rule.
type WarmthTier string

const (
	TierCold WarmthTier = "cold"
	TierMild WarmthTier = "mild"
	TierWarm WarmthTier = "warm"
	TierHot  WarmthTier = "hot"
)

// warmthScale orders tiers coldest to hottest. Relaxation widens by one
// position in either direction.
var warmthScale = []WarmthTier{TierCold, TierMild, TierWarm, TierHot}

func tierIndex(t WarmthTier) int {
	for i, v := range warmthScale {
		if v == t {
			return i
		}
	}
	return -1
}

// warmthTierFor maps raw conditions to a tier via a felt-temperature
// adjustment: high humidity makes warm days feel hotter, wind makes them
// feel colder, and the user's own sensitivity shifts everything by 3°C.
func warmthTierFor(w Weather, s TemperatureSensitivity) WarmthTier {
	felt := w.TemperatureC
	if w.Humidity >= 75 && w.TemperatureC >= 24 {
		felt += 2
	}
	if w.WindKPH >= 20 {
		felt -= 3
	}
	switch s {
	case SensitivityCold:
		felt -= 3
	case SensitivityHeat:
		felt += 3
	}

	switch {
	case felt < 10:
		return TierCold
	case felt < 22:
		return TierMild
	case felt < 28:
		return TierWarm
	default:
		return TierHot
	}
}

// outerwearRecommended reports whether the tier calls for an outer layer.
func outerwearRecommended(t WarmthTier) bool {
	return t == TierCold
}

// outerwearAllowed reports whether an outer layer is acceptable at all.
func outerwearAllowed(t WarmthTier) bool {
	return t == TierCold || t == TierMild
}

// comfortAdvice returns per-tier dressing tips surfaced alongside
// proposals.
var comfortAdvice = map[WarmthTier][]string{
	TierCold: {
		"heavy coat or layered outerwear recommended",
		"favor insulating materials such as wool or down",
	},
	TierMild: {
		"a light jacket or cardigan works well",
		"long sleeves or layers that are easy to shed",
	},
	TierWarm: {
		"short sleeves and breathable fabrics",
		"light colors absorb less heat",
	},
	TierHot: {
		"sleeveless or short-sleeve, lightweight fabrics",
		"avoid heavy and dark garments",
	},
}

// ComfortAdvice returns dressing tips for the tier.
func ComfortAdvice(t WarmthTier) []string {
	tips := comfortAdvice[t]
	out := make([]string, len(tips))
	copy(out, tips)
	return out
}
