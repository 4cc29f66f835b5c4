// Package api is the HTTP and MCP surface of the recommendation service.
// All management endpoints sit behind bearer auth; the MCP server speaks
// stdio and is wired separately.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/attire/internal/catalog"
	"github.com/kalambet/attire/internal/planner"
	"github.com/kalambet/attire/internal/profile"
	"github.com/kalambet/attire/internal/storage"
	"github.com/kalambet/attire/internal/weather"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AppDeps holds the wiring for the HTTP API.
type AppDeps struct {
	Store   *storage.Store
	Profile *profile.Manager
	Catalog *catalog.Cache
	Planner *planner.Planner
	Weather weather.Provider
	Token   string
}

// NewAppHandler builds the management API router.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/recommend", handleRecommend(deps))

		r.Get("/garments", handleListGarments(deps))
		r.Post("/garments", handleSaveGarments(deps))
		r.Get("/garments/{id}", handleGetGarment(deps))
		r.Delete("/garments/{id}", handleDeleteGarment(deps))

		r.Get("/profile", handleGetProfile(deps))
		r.Patch("/profile", handlePatchProfile(deps))

		r.Get("/recommendations", handleListRecommendations(deps))
		r.Get("/recommendations/{id}", handleGetRecommendation(deps))
		r.Delete("/recommendations/{id}", handleDeleteRecommendation(deps))
	})

	return r
}

func handleHealth(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := deps.Store.CountGarments()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "storage unavailable: %v", err)
			return
		}
		writeJSON(w, map[string]any{
			"status":   "ok",
			"garments": count,
		})
	}
}

// RecommendRequest is the body of POST /recommend. Weather may be given
// inline; otherwise it is resolved for the city (request city, then profile
// city).
type RecommendRequest struct {
	City    string           `json:"city,omitempty"`
	Weather *planner.Weather `json:"weather,omitempty"`

	Occasion         string            `json:"occasion,omitempty"`
	Formality        planner.Formality `json:"formality,omitempty"`
	PreferredColors  []string          `json:"preferred_colors,omitempty"`
	AvoidColors      []string          `json:"avoid_colors,omitempty"`
	StylePreferences []string          `json:"style_preferences,omitempty"`
}

// RecommendResponse wraps the planner result with the saved record id and
// the weather the recommendation was computed against.
type RecommendResponse struct {
	ID      string          `json:"id"`
	Weather planner.Weather `json:"weather"`
	planner.Result
}

func handleRecommend(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req RecommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		day := planner.DayContext{
			Weather:          req.Weather,
			Occasion:         req.Occasion,
			Formality:        req.Formality,
			PreferredColors:  req.PreferredColors,
			AvoidColors:      req.AvoidColors,
			StylePreferences: req.StylePreferences,
		}

		day, err := deps.Profile.ApplyDefaults(day)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading profile: %v", err)
			return
		}

		if day.Weather == nil {
			city := req.City
			if city == "" {
				p, err := deps.Profile.GetProfile()
				if err == nil {
					city = p.Location.City
				}
			}
			cond, err := deps.Weather.Current(r.Context(), city)
			if errors.Is(err, weather.ErrNoCity) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "weather or city is required")
				return
			}
			if err != nil {
				httpError(w, http.StatusBadGateway, "api_error", "resolving weather: %v", err)
				return
			}
			day.Weather = &cond
		}

		snap, err := deps.Catalog.Snapshot()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading catalog: %v", err)
			return
		}

		result, err := deps.Planner.Recommend(r.Context(), snap, day)
		if errors.Is(err, planner.ErrInvalidContext) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "recommendation failed: %v", err)
			return
		}

		rec, err := saveRecommendation(deps.Store, day, result)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving recommendation: %v", err)
			return
		}

		writeJSON(w, RecommendResponse{
			ID:      rec.ID,
			Weather: *day.Weather,
			Result:  result,
		})
	}
}

func saveRecommendation(store *storage.Store, day planner.DayContext, result planner.Result) (storage.Recommendation, error) {
	ctxJSON, err := json.Marshal(day)
	if err != nil {
		return storage.Recommendation{}, fmt.Errorf("marshalling context: %w", err)
	}
	resJSON, err := json.Marshal(result)
	if err != nil {
		return storage.Recommendation{}, fmt.Errorf("marshalling result: %w", err)
	}

	rec := storage.Recommendation{
		ID:          uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		ContextJSON: string(ctxJSON),
		ResultJSON:  string(resJSON),
		Feasible:    result.Feasible(),
	}
	if err := store.SaveRecommendation(rec); err != nil {
		return storage.Recommendation{}, err
	}
	return rec, nil
}

func handleListGarments(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		garments, err := deps.Store.ListGarments()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list garments: %v", err)
			return
		}
		if garments == nil {
			garments = []catalog.Garment{}
		}
		writeJSON(w, garments)
	}
}

// GarmentUpload is one garment in a POST /garments body, attributes plus
// an optional embedding.
type GarmentUpload struct {
	catalog.Garment
	Embedding []float32 `json:"embedding,omitempty"`
}

func handleSaveGarments(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 32<<20)
		var uploads []GarmentUpload
		if err := json.NewDecoder(r.Body).Decode(&uploads); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(uploads) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one garment is required")
			return
		}

		garments := make([]catalog.Garment, 0, len(uploads))
		for _, u := range uploads {
			g := u.Garment
			if g.ID == "" {
				g.ID = uuid.New().String()
			}
			g.Category = catalog.ParseCategory(string(g.Category))
			g.Embedding = u.Embedding
			garments = append(garments, g)
		}

		if err := deps.Store.SaveGarments(garments); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save garments: %v", err)
			return
		}
		deps.Catalog.Invalidate()

		writeJSON(w, map[string]any{"saved": len(garments)})
	}
}

func handleGetGarment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		g, err := deps.Store.GetGarment(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "garment not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get garment: %v", err)
			return
		}
		writeJSON(w, g)
	}
}

func handleDeleteGarment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteGarment(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "garment not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete garment: %v", err)
			return
		}
		deps.Catalog.Invalidate()

		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Profile.GetProfile()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}
		writeJSON(w, p)
	}
}

func handlePatchProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		for key, value := range fields {
			if err := deps.Profile.SetField(key, value); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to set field %q: %v", key, err)
				return
			}
		}

		writeJSON(w, map[string]string{"status": "updated"})
	}
}

func handleListRecommendations(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		recs, err := deps.Store.ListRecommendations(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list recommendations: %v", err)
			return
		}
		if recs == nil {
			recs = []storage.Recommendation{}
		}
		writeJSON(w, recs)
	}
}

func handleGetRecommendation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, err := deps.Store.GetRecommendation(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "recommendation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get recommendation: %v", err)
			return
		}
		writeJSON(w, rec)
	}
}

func handleDeleteRecommendation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteRecommendation(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "recommendation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete recommendation: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
