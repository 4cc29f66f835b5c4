// Package profile manages the user's standing wardrobe preferences: color
// season, style leanings, colors to avoid, thermal sensitivity. Preferences
// live as flat key-value rows in SQLite and merge into recommendation
// requests as defaults.
package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kalambet/attire/internal/colors"
	"github.com/kalambet/attire/internal/planner"
)

// Store defines the storage operations the Manager needs.
// Implemented by storage.Store.
type Store interface {
	SetProfileKey(key, value string) error
	GetProfileKey(key string) (string, error)
	GetAllProfileKeys() (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Keys understood by the Manager. Unknown keys are stored as-is and
// ignored when the Profile is assembled.
const (
	KeyColorSeason      = "appearance.color_season"
	KeyPreferredColors  = "appearance.preferred_colors"
	KeyAvoidColors      = "appearance.avoid_colors"
	KeyStylePreferences = "style.preferences"
	KeyDefaultFormality = "style.default_formality"
	KeySensitivity      = "comfort.temperature_sensitivity"
	KeyCity             = "location.city"
)

// Manager provides cached, structured access to the user profile stored in
// SQLite.
type Manager struct {
	store Store
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Profile
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store Store, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// GetProfile reads all profile keys from storage (or cache) and assembles a
// structured Profile. Returns a zero-value Profile on an empty store.
func (m *Manager) GetProfile() (Profile, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		p := deepCopyProfile(m.cached)
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	// Slow path: write lock for cache miss.
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return deepCopyProfile(m.cached), nil
	}

	keys, err := m.store.GetAllProfileKeys()
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile keys: %w", err)
	}

	p := buildProfile(keys)
	m.cached = &p
	m.cachedAt = m.clock.Now()
	return deepCopyProfile(&p), nil
}

// SetField persists a profile key and invalidates the cache. Non-string
// values are stored as JSON.
func (m *Manager) SetField(key string, value any) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling value for key %q: %w", key, err)
		}
		str = string(b)
	}

	if err := validateField(key, str); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetProfileKey(key, str); err != nil {
		return fmt.Errorf("setting profile key %q: %w", key, err)
	}

	m.cached = nil
	return nil
}

// validateField rejects values that would poison later recommendations.
// Unknown keys pass through untouched.
func validateField(key, value string) error {
	switch key {
	case KeyColorSeason:
		if value != "" && !colors.KnownSeason(colors.Season(value)) {
			return fmt.Errorf("unknown color season %q", value)
		}
	case KeySensitivity:
		switch planner.TemperatureSensitivity(value) {
		case planner.SensitivityNormal, planner.SensitivityCold, planner.SensitivityHeat:
		default:
			return fmt.Errorf("unknown temperature sensitivity %q", value)
		}
	}
	return nil
}

// ApplyDefaults merges the stored profile into a request context. Request
// fields keep priority; avoid colors are the exception and always merge,
// since avoidance is a hard constraint wherever it comes from.
func (m *Manager) ApplyDefaults(day planner.DayContext) (planner.DayContext, error) {
	p, err := m.GetProfile()
	if err != nil {
		return day, fmt.Errorf("applying profile defaults: %w", err)
	}

	if day.SeasonType == "" {
		day.SeasonType = p.Appearance.ColorSeason
	}
	if len(day.PreferredColors) == 0 {
		day.PreferredColors = append(day.PreferredColors, p.Appearance.PreferredColors...)
	}
	day.AvoidColors = mergeUnique(day.AvoidColors, p.Appearance.AvoidColors)
	if len(day.StylePreferences) == 0 {
		day.StylePreferences = append(day.StylePreferences, p.Style.Preferences...)
	}
	if day.Formality == "" {
		day.Formality = p.Style.DefaultFormality
	}
	if day.Sensitivity == planner.SensitivityNormal {
		day.Sensitivity = p.Comfort.Sensitivity
	}

	return day, nil
}

func mergeUnique(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, lst := range [][]string{a, b} {
		for _, v := range lst {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Summary returns a compact one-line description of the profile for the CLI
// and the MCP tools.
func (m *Manager) Summary() (string, error) {
	p, err := m.GetProfile()
	if err != nil {
		return "", fmt.Errorf("getting profile for summary: %w", err)
	}
	return summarize(p), nil
}

func summarize(p Profile) string {
	var parts []string

	if p.Appearance.ColorSeason != "" {
		parts = append(parts, fmt.Sprintf("Color season: %s.", p.Appearance.ColorSeason))
	}
	if len(p.Appearance.PreferredColors) > 0 {
		cs := append([]string{}, p.Appearance.PreferredColors...)
		sort.Strings(cs)
		parts = append(parts, fmt.Sprintf("Prefers: %s.", strings.Join(cs, ", ")))
	}
	if len(p.Appearance.AvoidColors) > 0 {
		cs := append([]string{}, p.Appearance.AvoidColors...)
		sort.Strings(cs)
		parts = append(parts, fmt.Sprintf("Avoids: %s.", strings.Join(cs, ", ")))
	}
	if len(p.Style.Preferences) > 0 {
		parts = append(parts, fmt.Sprintf("Style: %s.", strings.Join(p.Style.Preferences, ", ")))
	}
	if p.Style.DefaultFormality != "" {
		parts = append(parts, fmt.Sprintf("Usual formality: %s.", p.Style.DefaultFormality))
	}
	if p.Comfort.Sensitivity != planner.SensitivityNormal {
		parts = append(parts, fmt.Sprintf("Runs %s.", sensitivityWord(p.Comfort.Sensitivity)))
	}
	if p.Location.City != "" {
		parts = append(parts, fmt.Sprintf("City: %s.", p.Location.City))
	}

	if len(parts) == 0 {
		return "Wardrobe profile: not yet configured."
	}
	return strings.Join(parts, " ")
}

func sensitivityWord(s planner.TemperatureSensitivity) string {
	switch s {
	case planner.SensitivityCold:
		return "cold"
	case planner.SensitivityHeat:
		return "hot"
	}
	return "normal"
}

func deepCopyProfile(p *Profile) Profile {
	if p == nil {
		return Profile{}
	}
	cp := *p

	if p.Appearance.PreferredColors != nil {
		cp.Appearance.PreferredColors = make([]string, len(p.Appearance.PreferredColors))
		copy(cp.Appearance.PreferredColors, p.Appearance.PreferredColors)
	}
	if p.Appearance.AvoidColors != nil {
		cp.Appearance.AvoidColors = make([]string, len(p.Appearance.AvoidColors))
		copy(cp.Appearance.AvoidColors, p.Appearance.AvoidColors)
	}
	if p.Style.Preferences != nil {
		cp.Style.Preferences = make([]string, len(p.Style.Preferences))
		copy(cp.Style.Preferences, p.Style.Preferences)
	}
	return cp
}

// buildProfile assembles a Profile from flat key-value pairs. List values
// are stored as JSON arrays.
func buildProfile(keys map[string]string) Profile {
	var p Profile

	if v, ok := keys[KeyColorSeason]; ok {
		p.Appearance.ColorSeason = colors.Season(v)
	}
	unmarshalProfileKey(keys, KeyPreferredColors, &p.Appearance.PreferredColors)
	unmarshalProfileKey(keys, KeyAvoidColors, &p.Appearance.AvoidColors)
	unmarshalProfileKey(keys, KeyStylePreferences, &p.Style.Preferences)

	if v, ok := keys[KeyDefaultFormality]; ok {
		p.Style.DefaultFormality = planner.Formality(v)
	}
	if v, ok := keys[KeySensitivity]; ok {
		p.Comfort.Sensitivity = planner.TemperatureSensitivity(v)
	}
	if v, ok := keys[KeyCity]; ok {
		p.Location.City = v
	}

	return p
}

// unmarshalProfileKey unmarshals a JSON value from keys into target,
// logging a warning if the value is present but malformed.
func unmarshalProfileKey(keys map[string]string, key string, target any) {
	v, ok := keys[key]
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(v), target); err != nil {
		slog.Warn("malformed profile key, skipping", "key", key, "error", err)
	}
}
