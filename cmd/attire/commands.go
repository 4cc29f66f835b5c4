package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/attire/internal/api"
	"github.com/kalambet/attire/internal/catalog"
	"github.com/kalambet/attire/internal/config"
	"github.com/kalambet/attire/internal/planner"
)

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend outfits for the day",
	Long: `Recommend outfits for the day.

Weather is looked up for the city (flag, then profile) unless --temp is given.

Examples:
  attire recommend --formality casual
  attire recommend --city Lisbon --formality business_casual --occasion "client dinner"
  attire recommend --formality sporty --prefer navy,white --avoid orange`,
	RunE: func(cmd *cobra.Command, args []string) error {
		city, _ := cmd.Flags().GetString("city")
		occasion, _ := cmd.Flags().GetString("occasion")
		formality, _ := cmd.Flags().GetString("formality")
		prefer, _ := cmd.Flags().GetString("prefer")
		avoid, _ := cmd.Flags().GetString("avoid")
		styles, _ := cmd.Flags().GetString("style")
		temp, _ := cmd.Flags().GetFloat64("temp")
		asJSON, _ := cmd.Flags().GetBool("json")

		req := map[string]any{}
		if city != "" {
			req["city"] = city
		}
		if occasion != "" {
			req["occasion"] = occasion
		}
		if formality != "" {
			req["formality"] = formality
		}
		if prefer != "" {
			req["preferred_colors"] = splitList(prefer)
		}
		if avoid != "" {
			req["avoid_colors"] = splitList(avoid)
		}
		if styles != "" {
			req["style_preferences"] = splitList(styles)
		}
		if cmd.Flags().Changed("temp") {
			req["weather"] = map[string]any{"temperature_c": temp}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/recommend", req)
		if err != nil {
			return err
		}

		var rec api.RecommendResponse
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		labels := garmentLabels(cmd, client)
		renderRecommendation(rec, labels)
		return nil
	},
}

func init() {
	recommendCmd.Flags().String("city", "", "city for the weather lookup")
	recommendCmd.Flags().String("occasion", "", "occasion, e.g. \"client dinner\"")
	recommendCmd.Flags().String("formality", "", "formality level (formal, business_formal, business_casual, casual, sporty)")
	recommendCmd.Flags().String("prefer", "", "comma-separated preferred colors")
	recommendCmd.Flags().String("avoid", "", "comma-separated colors to avoid")
	recommendCmd.Flags().String("style", "", "comma-separated style preferences")
	recommendCmd.Flags().Float64("temp", 0, "override temperature in °C (skips the weather lookup)")
	recommendCmd.Flags().Bool("json", false, "print the raw JSON response")
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// garmentLabels fetches the wardrobe once so proposals can show garment
// descriptions instead of bare ids. Best effort: on error ids are shown.
func garmentLabels(cmd *cobra.Command, client *apiClient) map[string]string {
	resp, err := client.get(cmd.Context(), "/garments")
	if err != nil {
		return nil
	}
	var garments []catalog.Garment
	if err := decodeJSON(resp, &garments); err != nil {
		return nil
	}
	labels := make(map[string]string, len(garments))
	for _, g := range garments {
		labels[g.ID] = garmentLabel(g)
	}
	return labels
}

func garmentLabel(g catalog.Garment) string {
	parts := make([]string, 0, 3)
	if g.ColorPrimary != "" {
		parts = append(parts, g.ColorPrimary)
	}
	if g.Subcategory != "" {
		parts = append(parts, g.Subcategory)
	} else {
		parts = append(parts, strings.ToLower(string(g.Category)))
	}
	if g.Material != "" {
		parts = append(parts, "("+g.Material+")")
	}
	return strings.Join(parts, " ")
}

var slotOrder = []planner.Slot{
	planner.SlotDress, planner.SlotSet,
	planner.SlotUpper, planner.SlotLower, planner.SlotOuterwear,
}

func renderRecommendation(rec api.RecommendResponse, labels map[string]string) {
	fmt.Printf("Weather: %.0f°C", rec.Weather.TemperatureC)
	if rec.Weather.Condition != "" {
		fmt.Printf(", %s", rec.Weather.Condition)
	}
	fmt.Printf(" (%s)\n", rec.Diagnostics.Tier)

	if rec.Infeasible != nil {
		printWarning("No complete outfit possible for this day")
		slots := make([]string, len(rec.Infeasible.FailedSlots))
		for i, s := range rec.Infeasible.FailedSlots {
			slots[i] = string(s)
		}
		fmt.Printf("  Missing: %s\n", strings.Join(slots, ", "))
		for cat, steps := range rec.Infeasible.RelaxationsTried {
			names := make([]string, len(steps))
			for i, st := range steps {
				names[i] = string(st)
			}
			fmt.Printf("  Tried for %s: %s\n", cat, strings.Join(names, ", "))
		}
		return
	}

	for i, p := range rec.Proposals {
		fmt.Printf("\n%s [score: %.3f]\n", colorize(colorBold, fmt.Sprintf("Outfit %d", i+1)), p.Score)
		for _, slot := range slotOrder {
			id, ok := p.Slots[slot]
			if !ok {
				continue
			}
			label := labels[id]
			if label == "" {
				label = id
			}
			fmt.Printf("  %-10s %s\n", string(slot)+":", label)
		}
		if len(p.Relaxations) > 0 {
			names := make([]string, len(p.Relaxations))
			for j, st := range p.Relaxations {
				names[j] = string(st)
			}
			fmt.Printf("  %s\n", colorize(colorYellow, "relaxed: "+strings.Join(names, ", ")))
		}
	}

	if len(rec.Diagnostics.Advice) > 0 {
		fmt.Println()
		for _, a := range rec.Diagnostics.Advice {
			fmt.Printf("  %s %s\n", colorize(colorCyan, "tip:"), a)
		}
	}
}

// --- wardrobe ---

var wardrobeCmd = &cobra.Command{
	Use:   "wardrobe",
	Short: "Manage the garment catalog",
}

var wardrobeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List garments in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/garments")
		if err != nil {
			return err
		}

		var garments []catalog.Garment
		if err := decodeJSON(resp, &garments); err != nil {
			return err
		}

		if len(garments) == 0 {
			fmt.Println("Wardrobe is empty. Use 'attire wardrobe import' to load a catalog.")
			return nil
		}

		for _, g := range garments {
			fmt.Printf("%s  %-10s %s\n",
				colorize(colorCyan, shortID(g.ID)),
				g.Category,
				garmentLabel(g),
			)
		}
		return nil
	},
}

var wardrobeImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a garment catalog from export artifacts",
	Long: `Import a garment catalog from export artifacts.

Expects the three-file export layout: a descriptions JSON keyed by garment id,
an index JSON mapping ids to embedding rows, and a binary embeddings matrix.

Example:
  attire wardrobe import --descriptions desc.json --index index.json --embeddings emb.bin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		descPath, _ := cmd.Flags().GetString("descriptions")
		indexPath, _ := cmd.Flags().GetString("index")
		embPath, _ := cmd.Flags().GetString("embeddings")
		dim, _ := cmd.Flags().GetInt("dim")

		if descPath == "" || indexPath == "" || embPath == "" {
			return fmt.Errorf("--descriptions, --index and --embeddings are required")
		}

		if dim == 0 {
			if cfg, err := config.Load(); err == nil {
				dim = cfg.Catalog.EmbeddingDim
			}
		}

		printStep("Loading artifacts...")
		result, err := catalog.LoadArtifacts(descPath, indexPath, embPath, dim)
		if err != nil {
			return err
		}
		if result.MissingEmbeddings > 0 {
			printWarning("%d garments have no embedding (attribute-only matching)", result.MissingEmbeddings)
		}
		if result.OrphanEmbeddings > 0 {
			printWarning("%d embedding rows reference no garment", result.OrphanEmbeddings)
		}

		uploads := make([]api.GarmentUpload, len(result.Garments))
		for i, g := range result.Garments {
			uploads[i] = api.GarmentUpload{Garment: g, Embedding: g.Embedding}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/garments", uploads)
		if err != nil {
			return err
		}

		var saved map[string]int
		if err := decodeJSON(resp, &saved); err != nil {
			return err
		}

		printSuccess("Imported %d garments", saved["saved"])
		return nil
	},
}

var wardrobeRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a garment from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/garments/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Removed garment %s", args[0])
		return nil
	},
}

func init() {
	wardrobeImportCmd.Flags().String("descriptions", "", "path to the descriptions JSON")
	wardrobeImportCmd.Flags().String("index", "", "path to the embedding index JSON")
	wardrobeImportCmd.Flags().String("embeddings", "", "path to the binary embeddings matrix")
	wardrobeImportCmd.Flags().Int("dim", 0, "embedding dimension (default: configured value)")
	wardrobeCmd.AddCommand(wardrobeListCmd)
	wardrobeCmd.AddCommand(wardrobeImportCmd)
	wardrobeCmd.AddCommand(wardrobeRemoveCmd)
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a profile field",
	Long: `Set a profile field.

Examples:
  attire profile set appearance.color_season winter
  attire profile set style.default_formality business_casual
  attire profile set location.city Lisbon`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{key: value}
		resp, err := client.patch(cmd.Context(), "/profile", body)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open profile JSON in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return err
		}

		tmpFile, err := os.CreateTemp("", "attire-profile-*.json")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		tmpPath := tmpFile.Name()
		defer os.Remove(tmpPath)

		if _, err := tmpFile.Write(data); err != nil {
			tmpFile.Close()
			return err
		}
		tmpFile.Close()

		editorCmd := exec.Command(editor, tmpPath)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr
		if err := editorCmd.Run(); err != nil {
			return fmt.Errorf("editor exited with error: %w", err)
		}

		edited, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		var fields map[string]any
		if err := json.Unmarshal(edited, &fields); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}

		flat := flattenFields("", fields)

		patchResp, err := client.patch(cmd.Context(), "/profile", flat)
		if err != nil {
			return err
		}
		defer patchResp.Body.Close()

		if patchResp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", patchResp.StatusCode)
		}

		printSuccess("Profile updated")
		return nil
	},
}

// flattenFields turns nested profile JSON back into the dotted keys the
// PATCH endpoint expects.
func flattenFields(prefix string, fields map[string]any) map[string]any {
	flat := make(map[string]any)
	for k, v := range fields {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flattenFields(key, nested) {
				flat[nk] = nv
			}
			continue
		}
		flat[key] = v
	}
	return flat
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileEditCmd)
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past recommendations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/recommendations?limit=%d", limit)
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var recs []struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Feasible  bool   `json:"feasible"`
		}
		if err := decodeJSON(resp, &recs); err != nil {
			return err
		}

		if len(recs) == 0 {
			fmt.Println("No recommendations yet.")
			return nil
		}

		for _, r := range recs {
			status := colorize(colorGreen, "ok")
			if !r.Feasible {
				status = colorize(colorRed, "infeasible")
			}
			fmt.Printf("%s  %s  %s\n", colorize(colorCyan, shortID(r.ID)), r.CreatedAt, status)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/recommendations/"+args[0])
		if err != nil {
			return err
		}

		var rec any
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/recommendations/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted recommendation %s", args[0])
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of recommendations to list")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
