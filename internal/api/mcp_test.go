package api

import (
	"testing"

	"github.com/kalambet/attire/internal/catalog"
)

func searchFixture(t *testing.T) *catalog.Snapshot {
	t.Helper()
	return catalog.NewSnapshot([]catalog.Garment{
		{ID: "g1", Category: catalog.CategoryUpper, ColorPrimary: "white", Material: "linen", SleeveLength: "short sleeve"},
		{ID: "g2", Category: catalog.CategoryUpper, ColorPrimary: "navy", Material: "wool", Description: "chunky knit sweater"},
		{ID: "g3", Category: catalog.CategoryLower, ColorPrimary: "dark blue", Material: "denim", FitSilhouette: "straight"},
		{ID: "g4", Category: catalog.CategoryDress, ColorPrimary: "burgundy", StyleAesthetic: "classic"},
	})
}

func TestSearchSnapshot(t *testing.T) {
	snap := searchFixture(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"by material", "linen", []string{"g1"}},
		{"by category", "upper", []string{"g1", "g2"}},
		{"by description word", "sweater", []string{"g2"}},
		{"by color", "navy", []string{"g2", "g3"}},
		{"color synonym", "maroon", []string{"g4"}},
		{"all tokens must match", "wool dress", nil},
		{"multi token narrows", "upper wool", []string{"g2"}},
		{"no match", "taffeta", nil},
		{"empty query", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchSnapshot(snap, tt.query, 10)
			if len(got) != len(tt.want) {
				t.Fatalf("query %q: got %d matches, want %d", tt.query, len(got), len(tt.want))
			}
			found := make(map[string]bool, len(got))
			for _, g := range got {
				found[g.ID] = true
			}
			for _, id := range tt.want {
				if !found[id] {
					t.Errorf("query %q: missing %s", tt.query, id)
				}
			}
		})
	}
}

func TestSearchSnapshot_Limit(t *testing.T) {
	snap := searchFixture(t)

	got := searchSnapshot(snap, "upper", 1)
	if len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
}

func TestGarmentMatches_CaseInsensitive(t *testing.T) {
	g := catalog.Garment{Category: catalog.CategoryUpper, Material: "Wool"}
	if !garmentMatches(g, []string{"wool"}) {
		t.Error("lowercase token should match mixed-case attribute")
	}
}
