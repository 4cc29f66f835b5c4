package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/attire/internal/catalog"
	"github.com/kalambet/attire/internal/colors"
	"github.com/kalambet/attire/internal/planner"
	"github.com/kalambet/attire/internal/profile"
	"github.com/kalambet/attire/internal/storage"
	"github.com/kalambet/attire/internal/weather"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store   *storage.Store
	Profile *profile.Manager
	Catalog *catalog.Cache
	Planner *planner.Planner
	Weather weather.Provider
}

// NewMCPServer creates an MCP server with all attire tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"attire",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("attire: local wardrobe assistant recommending outfits from the user's own garments, weather and preferences."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("recommend_outfit",
			mcp.WithDescription("Recommend complete outfits from the user's wardrobe for given conditions."),
			mcp.WithString("city", mcp.Description("City for the weather lookup (defaults to the profile city)")),
			mcp.WithString("occasion", mcp.Description("Occasion, e.g. \"wedding\", \"office\", \"hiking\"")),
			mcp.WithString("formality", mcp.Description("One of: formal, business_formal, business_casual, casual, sporty")),
			mcp.WithArray("preferred_colors", mcp.Description("Colors to favor")),
			mcp.WithArray("avoid_colors", mcp.Description("Colors to exclude outright")),
		),
		mcpRecommendOutfit(deps),
	)

	s.AddTool(
		mcp.NewTool("search_wardrobe",
			mcp.WithDescription("Search the wardrobe by category, color, material or style keywords."),
			mcp.WithString("query", mcp.Description("Keywords to match against garment attributes"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpSearchWardrobe(deps),
	)

	s.AddTool(
		mcp.NewTool("set_preference",
			mcp.WithDescription("Update a wardrobe profile field."),
			mcp.WithString("key", mcp.Description("Profile field key (e.g. appearance.color_season)"), mcp.Required()),
			mcp.WithString("value", mcp.Description("Value to set"), mcp.Required()),
		),
		mcpSetPreference(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"wardrobe://profile",
			"Wardrobe Profile",
			mcp.WithResourceDescription("Current wardrobe preferences as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"wardrobe://recent",
			"Recent Recommendations",
			mcp.WithResourceDescription("Last 10 saved outfit recommendations"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpRecommendOutfit(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		day := planner.DayContext{
			Occasion:         req.GetString("occasion", ""),
			Formality:        planner.Formality(req.GetString("formality", "")),
			PreferredColors:  req.GetStringSlice("preferred_colors", nil),
			AvoidColors:      req.GetStringSlice("avoid_colors", nil),
		}

		day, err := deps.Profile.ApplyDefaults(day)
		if err != nil {
			return mcpError(fmt.Sprintf("loading profile: %v", err)), nil
		}
		if day.Formality == "" {
			day.Formality = planner.FormalityCasual
		}

		city := req.GetString("city", "")
		if city == "" {
			if p, err := deps.Profile.GetProfile(); err == nil {
				city = p.Location.City
			}
		}
		cond, err := deps.Weather.Current(ctx, city)
		if err != nil {
			return mcpError(fmt.Sprintf("resolving weather: %v", err)), nil
		}
		day.Weather = &cond

		snap, err := deps.Catalog.Snapshot()
		if err != nil {
			return mcpError(fmt.Sprintf("loading catalog: %v", err)), nil
		}

		result, err := deps.Planner.Recommend(ctx, snap, day)
		if err != nil {
			return mcpError(fmt.Sprintf("recommendation failed: %v", err)), nil
		}

		if _, err := saveRecommendation(deps.Store, day, result); err != nil {
			return mcpError(fmt.Sprintf("saving recommendation: %v", err)), nil
		}

		b, err := json.Marshal(struct {
			Weather planner.Weather `json:"weather"`
			planner.Result
		}{Weather: cond, Result: result})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearchWardrobe(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		snap, err := deps.Catalog.Snapshot()
		if err != nil {
			return mcpError(fmt.Sprintf("loading catalog: %v", err)), nil
		}

		matches := searchSnapshot(snap, query, limit)
		if len(matches) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(matches)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

// searchSnapshot matches query tokens against garment attributes. Every
// token must hit at least one attribute; color tokens match through the
// synonym table.
func searchSnapshot(snap *catalog.Snapshot, query string, limit int) []catalog.Garment {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	var matches []catalog.Garment
	for _, id := range snap.All() {
		g, ok := snap.Get(id)
		if !ok {
			continue
		}
		if garmentMatches(g, tokens) {
			matches = append(matches, g)
			if len(matches) == limit {
				break
			}
		}
	}
	return matches
}

func garmentMatches(g catalog.Garment, tokens []string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		string(g.Category), g.Subcategory, g.Pattern, g.Material,
		g.SleeveLength, g.Length, g.StyleAesthetic, g.FitSilhouette,
		g.Description,
	}, " "))

	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			continue
		}
		if colors.Matches(g.ColorPrimary, tok) || colors.Matches(g.ColorSecondary, tok) {
			continue
		}
		return false
	}
	return true
}

func mcpSetPreference(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}

		if err := deps.Profile.SetField(key, value); err != nil {
			return mcpError(fmt.Sprintf("failed to set preference: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Set %s = %s", key, value)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Profile.GetProfile()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		recs, err := deps.Store.ListRecommendations(10, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list recommendations: %w", err)
		}

		type recSummary struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Feasible  bool   `json:"feasible"`
		}

		summaries := make([]recSummary, len(recs))
		for i, r := range recs {
			summaries[i] = recSummary{
				ID:        r.ID,
				CreatedAt: r.CreatedAt.Format("2006-01-02 15:04"),
				Feasible:  r.Feasible,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal recommendations: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
