package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/attire/internal/catalog"
	"github.com/kalambet/attire/internal/planner"
	"github.com/kalambet/attire/internal/profile"
	"github.com/kalambet/attire/internal/storage"
	"github.com/kalambet/attire/internal/weather"
)

const testToken = "test-token-12345"

// fixedWeather is a Provider returning canned conditions.
type fixedWeather struct {
	cond planner.Weather
	err  error
}

func (f fixedWeather) Current(ctx context.Context, city string) (planner.Weather, error) {
	if f.err != nil {
		return planner.Weather{}, f.err
	}
	return f.cond, nil
}

func setupAppHandler(t *testing.T) (http.Handler, *storage.Store) {
	t.Helper()

	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pl, err := planner.New(planner.DefaultConfig())
	if err != nil {
		t.Fatalf("creating planner: %v", err)
	}

	deps := AppDeps{
		Store:   store,
		Profile: profile.NewManager(store),
		Catalog: catalog.NewCache(store),
		Planner: pl,
		Weather: fixedWeather{cond: planner.Weather{TemperatureC: 15, Condition: "Cloudy"}},
		Token:   testToken,
	}
	return NewAppHandler(deps), store
}

func seedWardrobe(t *testing.T, store *storage.Store) {
	t.Helper()
	err := store.SaveGarments([]catalog.Garment{
		{ID: "u1", Category: catalog.CategoryUpper, ColorPrimary: "white", Material: "cotton", SleeveLength: "long sleeve", Embedding: []float32{1, 0, 0}},
		{ID: "l1", Category: catalog.CategoryLower, ColorPrimary: "navy", Material: "denim", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "d1", Category: catalog.CategoryDress, ColorPrimary: "burgundy", SleeveLength: "long sleeve", Embedding: []float32{0.5, 0.5, 0}},
	})
	if err != nil {
		t.Fatalf("seeding wardrobe: %v", err)
	}
}

func authReq(method, url, body, token string) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuth_Required(t *testing.T) {
	h, _ := setupAppHandler(t)

	for _, tok := range []string{"", "wrong-token"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authReq(http.MethodGet, "/garments", "", tok))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", tok, rec.Code)
		}
	}
}

func TestHealth_NoAuth(t *testing.T) {
	h, _ := setupAppHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodGet, "/health", "", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRecommend(t *testing.T) {
	h, store := setupAppHandler(t)
	seedWardrobe(t, store)

	body := `{"formality":"casual"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPost, "/recommend", body, testToken))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp RecommendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID == "" {
		t.Error("response carries no record id")
	}
	if !resp.Feasible() {
		t.Fatalf("infeasible: %+v", resp.Infeasible)
	}
	if resp.Weather.TemperatureC != 15 {
		t.Errorf("weather = %+v, want the provider conditions", resp.Weather)
	}

	// The run was persisted.
	saved, err := store.GetRecommendation(resp.ID)
	if err != nil {
		t.Fatalf("saved recommendation not found: %v", err)
	}
	if !saved.Feasible {
		t.Error("saved record not marked feasible")
	}
}

func TestRecommend_InlineWeatherSkipsProvider(t *testing.T) {
	h, store := setupAppHandler(t)
	seedWardrobe(t, store)

	body := `{"formality":"casual","weather":{"temperature_c":30,"humidity":40}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPost, "/recommend", body, testToken))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp RecommendResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Diagnostics.Tier != planner.TierHot {
		t.Errorf("tier = %v, inline weather ignored", resp.Diagnostics.Tier)
	}
}

func TestRecommend_MissingFormality(t *testing.T) {
	h, store := setupAppHandler(t)
	seedWardrobe(t, store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPost, "/recommend", `{}`, testToken))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecommend_NoCityNoWeather(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	pl, _ := planner.New(planner.DefaultConfig())

	h := NewAppHandler(AppDeps{
		Store:   store,
		Profile: profile.NewManager(store),
		Catalog: catalog.NewCache(store),
		Planner: pl,
		Weather: fixedWeather{err: weather.ErrNoCity},
		Token:   testToken,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPost, "/recommend", `{"formality":"casual"}`, testToken))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGarmentsCRUD(t *testing.T) {
	h, _ := setupAppHandler(t)

	body := `[{"id":"u9","category":"Upper","color_primary":"red","embedding":[1,0]}]`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPost, "/garments", body, testToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodGet, "/garments/u9", "", testToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var g catalog.Garment
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatal(err)
	}
	if g.ColorPrimary != "red" || g.Category != catalog.CategoryUpper {
		t.Errorf("garment = %+v", g)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodDelete, "/garments/u9", "", testToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodGet, "/garments/u9", "", testToken))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestSaveGarments_Empty(t *testing.T) {
	h, _ := setupAppHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPost, "/garments", `[]`, testToken))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSaveGarments_InvalidatesCatalog(t *testing.T) {
	h, store := setupAppHandler(t)
	seedWardrobe(t, store)

	// First recommendation builds the snapshot cache.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPost, "/recommend", `{"formality":"casual"}`, testToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("recommend status = %d", rec.Code)
	}

	// Adding a set garment must be visible to the next recommendation.
	body := `[{"id":"s1","category":"Set","color_primary":"green"}]`
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPost, "/garments", body, testToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodGet, "/garments", "", testToken))
	var garments []catalog.Garment
	if err := json.Unmarshal(rec.Body.Bytes(), &garments); err != nil {
		t.Fatal(err)
	}
	if len(garments) != 4 {
		t.Errorf("listed %d garments, want 4", len(garments))
	}
}

func TestProfileRoundTrip(t *testing.T) {
	h, _ := setupAppHandler(t)

	body := `{"appearance.color_season":"winter","location.city":"Oslo"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPatch, "/profile", body, testToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodGet, "/profile", "", testToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var p profile.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if string(p.Appearance.ColorSeason) != "winter" || p.Location.City != "Oslo" {
		t.Errorf("profile = %+v", p)
	}
}

func TestPatchProfile_RejectsBadSeason(t *testing.T) {
	h, _ := setupAppHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodPatch, "/profile", `{"appearance.color_season":"monsoon"}`, testToken))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendationsList(t *testing.T) {
	h, store := setupAppHandler(t)
	seedWardrobe(t, store)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authReq(http.MethodPost, "/recommend", `{"formality":"casual"}`, testToken))
		if rec.Code != http.StatusOK {
			t.Fatalf("recommend %d status = %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodGet, "/recommendations?limit=2", "", testToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var recs []storage.Recommendation
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Errorf("listed %d recommendations, want 2", len(recs))
	}
}

func TestDeleteRecommendation_NotFound(t *testing.T) {
	h, _ := setupAppHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authReq(http.MethodDelete, "/recommendations/nope", "", testToken))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
