package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/kalambet/attire/internal/catalog"
)

// testWardrobe is a small mixed catalog that stays feasible on a mild
// casual day. Embeddings are low-dimensional on purpose; the planner never
// assumes a fixed dimension.
func testWardrobe() *catalog.Snapshot {
	return catalog.NewSnapshot([]catalog.Garment{
		{ID: "u1", Category: catalog.CategoryUpper, ColorPrimary: "white", Material: "cotton", SleeveLength: "long sleeve", Embedding: []float32{1, 0, 0}},
		{ID: "u2", Category: catalog.CategoryUpper, ColorPrimary: "navy", Material: "wool", SleeveLength: "long sleeve", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "l1", Category: catalog.CategoryLower, ColorPrimary: "gray", Material: "cotton", Embedding: []float32{1, 0.1, 0}},
		{ID: "l2", Category: catalog.CategoryLower, ColorPrimary: "black", Material: "denim", Embedding: []float32{0, 1, 0}},
		{ID: "d1", Category: catalog.CategoryDress, ColorPrimary: "burgundy", SleeveLength: "long sleeve", Embedding: []float32{0.5, 0.5, 0}},
		{ID: "o1", Category: catalog.CategoryOuterwear, ColorPrimary: "black", Material: "wool", SleeveLength: "long sleeve", Embedding: []float32{0.8, 0, 0.2}},
	})
}

func mustPlanner(t *testing.T) *Planner {
	t.Helper()
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRecommend_FeasibleMildDay(t *testing.T) {
	p := mustPlanner(t)
	res, err := p.Recommend(context.Background(), testWardrobe(), dayCtx(15, FormalityCasual))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Feasible() {
		t.Fatalf("infeasible: %+v", res.Infeasible)
	}
	if len(res.Proposals) == 0 || len(res.Proposals) > DefaultConfig().TopK {
		t.Fatalf("got %d proposals, want 1..%d", len(res.Proposals), DefaultConfig().TopK)
	}
	if res.Diagnostics.Tier != TierMild {
		t.Errorf("tier = %v, want mild", res.Diagnostics.Tier)
	}
	for i, prop := range res.Proposals {
		complete := (prop.Slots[SlotUpper] != "" && prop.Slots[SlotLower] != "") ||
			prop.Slots[SlotDress] != "" || prop.Slots[SlotSet] != ""
		if !complete {
			t.Errorf("proposal %d incomplete: %v", i, prop.Slots)
		}
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	p := mustPlanner(t)
	day := dayCtx(15, FormalityCasual)
	day.PreferredColors = []string{"navy"}

	first, err := p.Recommend(context.Background(), testWardrobe(), day)
	if err != nil {
		t.Fatal(err)
	}
	for run := 0; run < 3; run++ {
		got, err := p.Recommend(context.Background(), testWardrobe(), day)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Proposals) != len(first.Proposals) {
			t.Fatalf("run %d: %d proposals, first run had %d", run, len(got.Proposals), len(first.Proposals))
		}
		for i := range got.Proposals {
			if got.Proposals[i].key() != first.Proposals[i].key() {
				t.Errorf("run %d rank %d: %v, first run had %v", run, i, got.Proposals[i].Slots, first.Proposals[i].Slots)
			}
			if !almostEqual(got.Proposals[i].Score, first.Proposals[i].Score) {
				t.Errorf("run %d rank %d score drifted", run, i)
			}
		}
	}
}

func TestRecommend_ColdDayIncludesOuterwear(t *testing.T) {
	p := mustPlanner(t)
	res, err := p.Recommend(context.Background(), testWardrobe(), dayCtx(2, FormalityCasual))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Feasible() {
		t.Fatalf("infeasible: %+v", res.Infeasible)
	}
	if res.Diagnostics.Tier != TierCold {
		t.Fatalf("tier = %v, want cold", res.Diagnostics.Tier)
	}
	for i, prop := range res.Proposals {
		if prop.Slots[SlotOuterwear] == "" {
			t.Errorf("proposal %d lacks outerwear on a cold day: %v", i, prop.Slots)
		}
	}
}

func TestRecommend_HotDayNeverProposesOuterwear(t *testing.T) {
	p := mustPlanner(t)
	res, err := p.Recommend(context.Background(), testWardrobe(), dayCtx(33, FormalityCasual))
	if err != nil {
		t.Fatal(err)
	}
	for i, prop := range res.Proposals {
		if prop.Slots[SlotOuterwear] != "" {
			t.Errorf("proposal %d carries outerwear on a hot day: %v", i, prop.Slots)
		}
	}
}

func TestRecommend_Infeasible(t *testing.T) {
	// Outerwear only, hot day: outerwear is excluded by tier and no
	// mandatory slot can fill.
	snap := snapOf(
		catalog.Garment{ID: "o1", Category: catalog.CategoryOuterwear, Material: "down"},
	)
	p := mustPlanner(t)

	res, err := p.Recommend(context.Background(), snap, dayCtx(33, FormalityCasual))
	if err != nil {
		t.Fatal(err)
	}
	if res.Feasible() {
		t.Fatal("expected infeasible result")
	}
	if res.Infeasible == nil {
		t.Fatal("missing infeasibility report")
	}
	if len(res.Infeasible.FailedSlots) != 4 {
		t.Errorf("failed slots = %v, want all four mandatory slots", res.Infeasible.FailedSlots)
	}
	if len(res.Infeasible.RelaxationsTried) == 0 {
		t.Error("expected the relaxations tried per category")
	}
}

func TestRecommend_InfeasibilityIsNotAnError(t *testing.T) {
	p := mustPlanner(t)
	res, err := p.Recommend(context.Background(), snapOf(), dayCtx(15, FormalityCasual))
	if err != nil {
		t.Fatalf("empty catalog must not error: %v", err)
	}
	if res.Feasible() {
		t.Fatal("empty catalog cannot be feasible")
	}
}

func TestRecommend_InvalidContext(t *testing.T) {
	p := mustPlanner(t)
	_, err := p.Recommend(context.Background(), testWardrobe(), DayContext{Formality: FormalityCasual})
	if !errors.Is(err, ErrInvalidContext) {
		t.Fatalf("err = %v, want ErrInvalidContext", err)
	}
}

func TestRecommend_AvoidColorsHonored(t *testing.T) {
	p := mustPlanner(t)
	day := dayCtx(15, FormalityCasual)
	day.AvoidColors = []string{"black"}

	res, err := p.Recommend(context.Background(), testWardrobe(), day)
	if err != nil {
		t.Fatal(err)
	}
	snap := testWardrobe()
	for i, prop := range res.Proposals {
		for slot, id := range prop.Slots {
			g, _ := snap.Get(id)
			if g.ColorPrimary == "black" || g.ColorSecondary == "black" {
				t.Errorf("proposal %d slot %v uses avoided color: %s", i, slot, id)
			}
		}
	}
}

func TestRecommend_RelaxationsSurfaceInDiagnostics(t *testing.T) {
	// Only short-sleeve uppers on a cold day: the upper pool fills via the
	// ladder and the run must say so.
	snap := snapOf(
		catalog.Garment{ID: "u1", Category: catalog.CategoryUpper, SleeveLength: "short sleeve", Material: "cotton"},
		catalog.Garment{ID: "l1", Category: catalog.CategoryLower, Material: "wool"},
	)
	p := mustPlanner(t)

	res, err := p.Recommend(context.Background(), snap, dayCtx(5, FormalityCasual))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Feasible() {
		t.Fatalf("infeasible: %+v", res.Infeasible)
	}
	if !res.Diagnostics.Relaxed() {
		t.Fatal("diagnostics do not report the relaxation")
	}
	steps := res.Diagnostics.Relaxations[catalog.CategoryUpper]
	if len(steps) == 0 || steps[len(steps)-1] != RelaxWidenTemperature {
		t.Errorf("upper relaxations = %v, want ladder up to widen_temperature", steps)
	}
	for _, prop := range res.Proposals {
		if prop.RelaxationPenalty <= 0 {
			t.Error("relaxed proposal carries no penalty")
		}
	}
}

func TestRecommend_OffTierWardrobeDegrades(t *testing.T) {
	// A hot day over a winter wardrobe: the only upper is heavy and
	// long-sleeved, so the strict pass rejects it. Widening temperature
	// must degrade to a penalized recommendation, not infeasibility.
	snap := snapOf(
		catalog.Garment{ID: "u1", Category: catalog.CategoryUpper, SleeveLength: "long sleeve", Material: "wool"},
		catalog.Garment{ID: "l1", Category: catalog.CategoryLower, Material: "cotton"},
	)
	p := mustPlanner(t)

	res, err := p.Recommend(context.Background(), snap, dayCtx(30, FormalityCasual))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Feasible() {
		t.Fatalf("infeasible: %+v", res.Infeasible)
	}
	steps := res.Diagnostics.Relaxations[catalog.CategoryUpper]
	if len(steps) == 0 || steps[len(steps)-1] != RelaxWidenTemperature {
		t.Errorf("upper relaxations = %v, want ladder up to widen_temperature", steps)
	}
	for _, prop := range res.Proposals {
		if prop.Slots[SlotUpper] != "u1" {
			t.Errorf("slots = %v, want the off-tier upper admitted", prop.Slots)
		}
		if prop.RelaxationPenalty <= 0 {
			t.Error("degraded proposal carries no penalty")
		}
		if _, ok := prop.Slots[SlotOuterwear]; ok {
			t.Error("outerwear slotted on a hot day")
		}
	}
}

func TestRecommend_MissingEmbeddingsCounted(t *testing.T) {
	snap := snapOf(
		catalog.Garment{ID: "u1", Category: catalog.CategoryUpper, Embedding: []float32{1, 0}},
		catalog.Garment{ID: "l1", Category: catalog.CategoryLower},
	)
	p := mustPlanner(t)

	res, err := p.Recommend(context.Background(), snap, dayCtx(15, FormalityCasual))
	if err != nil {
		t.Fatal(err)
	}
	if res.Diagnostics.MissingEmbeddings != 1 {
		t.Errorf("missing embeddings = %d, want 1", res.Diagnostics.MissingEmbeddings)
	}
	// Attribute-only garments still compose: degraded, not dropped.
	if !res.Feasible() {
		t.Fatal("attribute-only garment blocked composition")
	}
}

func TestRecommend_AdvicePresent(t *testing.T) {
	p := mustPlanner(t)
	res, err := p.Recommend(context.Background(), testWardrobe(), dayCtx(-2, FormalityCasual))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Diagnostics.Advice) == 0 {
		t.Error("expected dressing advice for the tier")
	}
}
