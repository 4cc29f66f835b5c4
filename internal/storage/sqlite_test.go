package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/kalambet/attire/internal/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_RunsMigrations(t *testing.T) {
	s := openTestStore(t)

	count, err := s.CountGarments()
	if err != nil {
		t.Fatalf("counting garments: %v", err)
	}
	if count != 0 {
		t.Errorf("fresh store garment count = %d, want 0", count)
	}
}

func TestGarmentRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := catalog.Garment{
		ID:             "dress_001.jpg",
		Category:       catalog.CategoryDress,
		Subcategory:    "wrap dress",
		ColorPrimary:   "navy",
		ColorSecondary: "white",
		Pattern:        "floral",
		Material:       "silk",
		SleeveLength:   "short sleeve",
		Length:         "midi",
		StyleAesthetic: "elegant",
		FitSilhouette:  "a-line",
		Description:    "navy silk wrap dress with white floral print",
		Embedding:      []float32{0.1, -0.2, 0.3},
	}
	if err := s.SaveGarments([]catalog.Garment{in}); err != nil {
		t.Fatalf("saving garment: %v", err)
	}

	out, err := s.GetGarment("dress_001.jpg")
	if err != nil {
		t.Fatalf("getting garment: %v", err)
	}
	if out.Category != catalog.CategoryDress || out.Material != "silk" {
		t.Errorf("round trip mangled attributes: %+v", out)
	}
	if len(out.Embedding) != 3 || out.Embedding[1] != float32(-0.2) {
		t.Errorf("round trip mangled embedding: %v", out.Embedding)
	}
}

func TestSaveGarments_ReplaceOnConflict(t *testing.T) {
	s := openTestStore(t)

	g := catalog.Garment{ID: "top.jpg", Category: catalog.CategoryUpper, ColorPrimary: "white"}
	if err := s.SaveGarments([]catalog.Garment{g}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	g.ColorPrimary = "cream"
	if err := s.SaveGarments([]catalog.Garment{g}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	out, err := s.GetGarment("top.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.ColorPrimary != "cream" {
		t.Errorf("ColorPrimary = %q, want replacement value", out.ColorPrimary)
	}
	if n, _ := s.CountGarments(); n != 1 {
		t.Errorf("count = %d, want 1 after replace", n)
	}
}

func TestGarment_NoEmbeddingStaysNil(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveGarments([]catalog.Garment{{ID: "plain.jpg", Category: catalog.CategoryLower}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := s.GetGarment("plain.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.HasEmbedding() {
		t.Errorf("embedding = %v, want none", out.Embedding)
	}
}

func TestDeleteGarment(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveGarments([]catalog.Garment{{ID: "x.jpg", Category: catalog.CategoryUpper}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.DeleteGarment("x.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteGarment("x.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetGarment("x.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete error = %v, want ErrNotFound", err)
	}
}

func TestProfileKeys(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetProfileKey("color_season"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key error = %v, want ErrNotFound", err)
	}

	if err := s.SetProfileKey("color_season", "winter"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetProfileKey("color_season", "summer"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	v, err := s.GetProfileKey("color_season")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "summer" {
		t.Errorf("value = %q, want summer", v)
	}

	all, err := s.GetAllProfileKeys()
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 || all["color_season"] != "summer" {
		t.Errorf("all keys = %v", all)
	}
}

func TestRecommendationRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rec := Recommendation{
		ID:          "rec-1",
		CreatedAt:   time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC),
		ContextJSON: `{"formality":"casual"}`,
		ResultJSON:  `{"proposals":[]}`,
		Feasible:    true,
	}
	if err := s.SaveRecommendation(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.GetRecommendation("rec-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !out.Feasible || out.ContextJSON != rec.ContextJSON || !out.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("round trip mismatch: %+v", out)
	}

	if _, err := s.GetRecommendation("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing error = %v, want ErrNotFound", err)
	}
}

func TestListRecommendations_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		err := s.SaveRecommendation(Recommendation{
			ID:          id,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
			ContextJSON: "{}",
			ResultJSON:  "{}",
			Feasible:    i%2 == 0,
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	recs, err := s.ListRecommendations(2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "c" || recs[1].ID != "b" {
		t.Errorf("list = %+v, want [c b]", recs)
	}

	rest, err := s.ListRecommendations(2, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "a" {
		t.Errorf("offset list = %+v, want [a]", rest)
	}
}
