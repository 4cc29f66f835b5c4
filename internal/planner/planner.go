package planner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kalambet/attire/internal/catalog"
)

// Planner runs the recommendation pipeline. One Planner is safe for
// concurrent use: Recommend is a pure function over its arguments.
type Planner struct {
	cfg Config
}

// New validates the config eagerly and returns a Planner. Config problems
// are rejected here, before any catalog work.
func New(cfg Config) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Planner{cfg: cfg}, nil
}

// Config returns the planner's effective configuration.
func (p *Planner) Config() Config {
	return p.cfg
}

// mandatoryCategories are the categories whose pools feed the slot
// completion rule and therefore relax when empty. Outerwear is optional
// and never relaxes: an empty outerwear pool just means no outer layer.
var mandatoryCategories = []catalog.Category{
	catalog.CategoryUpper,
	catalog.CategoryLower,
	catalog.CategoryDress,
	catalog.CategorySet,
}

// Recommend produces ranked outfit proposals for one day. The snapshot and
// context are read-only for the duration of the call. Infeasibility is a
// result value, not an error; errors mean the request itself was unusable.
func (p *Planner) Recommend(ctx context.Context, snap *catalog.Snapshot, day DayContext) (Result, error) {
	if err := day.Validate(); err != nil {
		return Result{}, err
	}

	nctx := day.normalize()

	diag := Diagnostics{
		Tier:               nctx.tier,
		DegradedEmbeddings: snap.Degraded(),
		Stages:             make(map[catalog.Category]StageCounts),
		Relaxations:        make(map[catalog.Category][]RelaxationStep),
		Advice:             ComfortAdvice(nctx.tier),
	}

	pools := make(map[catalog.Category]*pool)
	for _, cat := range mandatoryCategories {
		pl, counts := buildPool(snap, cat, nctx, p.cfg)
		pools[cat] = pl
		diag.Stages[cat] = counts
		if len(pl.relaxations) > 0 {
			diag.Relaxations[cat] = pl.relaxations
		}
	}

	if outerwearAllowed(nctx.tier) {
		// Optional slot: strict filters only, no relaxation ladder.
		pl := &pool{category: catalog.CategoryOuterwear}
		counts := runFilters(snap, catalog.CategoryOuterwear, nctx, p.cfg, filterState{}, pl)
		pools[catalog.CategoryOuterwear] = pl
		diag.Stages[catalog.CategoryOuterwear] = counts
	}

	for _, pl := range pools {
		for _, c := range pl.candidates {
			if !c.garment.HasEmbedding() {
				diag.MissingEmbeddings++
			}
		}
	}

	slog.Debug("candidate pools built",
		"tier", nctx.tier,
		"upper", len(pools[catalog.CategoryUpper].candidates),
		"lower", len(pools[catalog.CategoryLower].candidates),
		"dress", len(pools[catalog.CategoryDress].candidates),
		"set", len(pools[catalog.CategorySet].candidates),
		"relaxed", diag.Relaxed(),
	)

	if inf := infeasibilityFor(pools); inf != nil {
		return Result{Infeasible: inf, Diagnostics: diag}, nil
	}

	proposals, err := compose(ctx, pools, nctx.tier, p.cfg)
	if err != nil {
		return Result{}, fmt.Errorf("composing outfits: %w", err)
	}
	if len(proposals) == 0 {
		return Result{Infeasible: infeasibilityAll(pools), Diagnostics: diag}, nil
	}

	return Result{Proposals: proposals, Diagnostics: diag}, nil
}

// infeasibilityFor checks the slot completion rule against the pools:
// a complete outfit needs (Upper and Lower) or Dress or Set. Returns nil
// when at least one completion path is open.
func infeasibilityFor(pools map[catalog.Category]*pool) *Infeasibility {
	pairOK := !pools[catalog.CategoryUpper].empty() && !pools[catalog.CategoryLower].empty()
	dressOK := !pools[catalog.CategoryDress].empty()
	setOK := !pools[catalog.CategorySet].empty()
	if pairOK || dressOK || setOK {
		return nil
	}
	return infeasibilityAll(pools)
}

func infeasibilityAll(pools map[catalog.Category]*pool) *Infeasibility {
	inf := &Infeasibility{RelaxationsTried: make(map[catalog.Category][]RelaxationStep)}
	for _, cat := range mandatoryCategories {
		pl := pools[cat]
		if pl.empty() {
			inf.FailedSlots = append(inf.FailedSlots, slotFor(cat))
		}
		if len(pl.relaxations) > 0 {
			inf.RelaxationsTried[cat] = pl.relaxations
		}
	}
	return inf
}
