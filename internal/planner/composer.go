package planner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/attire/internal/catalog"
)

// slotted is one garment assigned to one slot inside a combination.
type slotted struct {
	slot Slot
	cand candidate
}

// variant is one way to complete an outfit: an ordered list of slots, each
// with its truncated candidate list.
type variant struct {
	slots []Slot
	cands [][]candidate
}

// generator walks candidate combinations lazily: one variant at a time,
// odometer order within a variant. It is finite (pools are truncated to the
// search budget before it is built) and restartable via Reset. The full
// Cartesian product is never materialized.
type generator struct {
	variants []variant
	vi       int
	idx      []int
}

// newGenerator builds the combination source for the given pools. Base
// variants are (Upper, Lower), (Dress,) and (Set,); when the warmth tier
// recommends outerwear every variant carries the outerwear slot, and when
// it merely allows outerwear both the bare and the extended variants are
// generated.
func newGenerator(pools map[catalog.Category]*pool, tier WarmthTier, budget int) *generator {
	trunc := func(c catalog.Category) []candidate {
		p, ok := pools[c]
		if !ok || p.empty() {
			return nil
		}
		if len(p.candidates) > budget {
			return p.candidates[:budget]
		}
		return p.candidates
	}

	uppers := trunc(catalog.CategoryUpper)
	lowers := trunc(catalog.CategoryLower)
	dresses := trunc(catalog.CategoryDress)
	sets := trunc(catalog.CategorySet)
	outer := trunc(catalog.CategoryOuterwear)

	var bases []variant
	if len(uppers) > 0 && len(lowers) > 0 {
		bases = append(bases, variant{
			slots: []Slot{SlotUpper, SlotLower},
			cands: [][]candidate{uppers, lowers},
		})
	}
	if len(dresses) > 0 {
		bases = append(bases, variant{slots: []Slot{SlotDress}, cands: [][]candidate{dresses}})
	}
	if len(sets) > 0 {
		bases = append(bases, variant{slots: []Slot{SlotSet}, cands: [][]candidate{sets}})
	}

	g := &generator{}
	withOuter := len(outer) > 0 && outerwearAllowed(tier)
	mustOuter := withOuter && outerwearRecommended(tier)
	for _, b := range bases {
		if !mustOuter {
			g.variants = append(g.variants, b)
		}
		if withOuter {
			g.variants = append(g.variants, variant{
				slots: append(append([]Slot{}, b.slots...), SlotOuterwear),
				cands: append(append([][]candidate{}, b.cands...), outer),
			})
		}
	}

	g.Reset()
	return g
}

// Reset rewinds the generator to the first combination.
func (g *generator) Reset() {
	g.vi = 0
	if len(g.variants) > 0 {
		g.idx = make([]int, len(g.variants[0].slots))
	}
}

// Next returns the next combination, or false when the sequence is
// exhausted.
func (g *generator) Next() ([]slotted, bool) {
	for g.vi < len(g.variants) {
		v := g.variants[g.vi]
		if len(g.idx) != len(v.slots) {
			g.idx = make([]int, len(v.slots))
		}
		if g.idx[0] < len(v.cands[0]) {
			combo := make([]slotted, len(v.slots))
			for i, slot := range v.slots {
				combo[i] = slotted{slot: slot, cand: v.cands[i][g.idx[i]]}
			}
			g.advance(v)
			return combo, true
		}
		g.vi++
		g.idx = nil
	}
	return nil, false
}

// advance increments the odometer for the current variant.
func (g *generator) advance(v variant) {
	for i := len(g.idx) - 1; i >= 0; i-- {
		g.idx[i]++
		if g.idx[i] < len(v.cands[i]) || i == 0 {
			return
		}
		g.idx[i] = 0
	}
}

// scoreCombination turns one combination into a Proposal under the given
// weights. Mean pairwise similarity counts unknown pairs as neutral zero;
// the relaxation penalty charges one unit per ladder step applied to any
// pool the combination draws from.
func scoreCombination(combo []slotted, pools map[catalog.Category]*pool, cfg Config) Proposal {
	var simSum float64
	pairs := 0
	for i := 0; i < len(combo); i++ {
		for j := i + 1; j < len(combo); j++ {
			s, ok := Cosine(combo[i].cand.garment.Embedding, combo[j].cand.garment.Embedding)
			if ok {
				simSum += s
			}
			pairs++
		}
	}
	var meanSim float64
	if pairs > 0 {
		meanSim = simSum / float64(pairs)
	}

	var boostSum float64
	slots := make(map[Slot]string, len(combo))
	usedCats := make(map[catalog.Category]struct{}, len(combo))
	for _, sc := range combo {
		boostSum += sc.cand.boost
		slots[sc.slot] = sc.cand.garment.ID
		usedCats[sc.cand.garment.Category] = struct{}{}
	}

	relaxSteps := 0
	var relaxations []RelaxationStep
	for cat := range usedCats {
		if p, ok := pools[cat]; ok && len(p.relaxations) > 0 {
			relaxSteps += len(p.relaxations)
			relaxations = append(relaxations, p.relaxations...)
		}
	}
	penalty := cfg.Weights.RelaxationPenalty * float64(relaxSteps)

	return Proposal{
		Slots:             slots,
		Similarity:        meanSim,
		Boost:             boostSum,
		RelaxationPenalty: penalty,
		Relaxations:       dedupeSteps(relaxations),
		Score:             cfg.Weights.Similarity*meanSim + cfg.Weights.Boost*boostSum - penalty,
	}
}

func dedupeSteps(steps []RelaxationStep) []RelaxationStep {
	if len(steps) == 0 {
		return nil
	}
	seen := make(map[RelaxationStep]struct{}, len(steps))
	out := make([]RelaxationStep, 0, len(steps))
	for _, ladder := range relaxationLadder {
		for _, s := range steps {
			if s != ladder {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// better is the full ranking comparator: score descending, then lower
// relaxation penalty, then lexicographically smaller garment id set. Total
// and deterministic.
func better(a, b Proposal) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.RelaxationPenalty != b.RelaxationPenalty {
		return a.RelaxationPenalty < b.RelaxationPenalty
	}
	return a.key() < b.key()
}

// topK keeps the best K proposals seen so far, insertion-sorted by the
// ranking comparator. Small K makes insertion cheaper than a heap.
type topK struct {
	k     int
	items []Proposal
}

func newTopK(k int) *topK {
	return &topK{k: k, items: make([]Proposal, 0, k)}
}

func (t *topK) add(p Proposal) {
	if len(t.items) == t.k && !better(p, t.items[len(t.items)-1]) {
		return
	}
	pos := len(t.items)
	for pos > 0 && better(p, t.items[pos-1]) {
		pos--
	}
	t.items = append(t.items, Proposal{})
	copy(t.items[pos+1:], t.items[pos:])
	t.items[pos] = p
	if len(t.items) > t.k {
		t.items = t.items[:t.k]
	}
}

// compose enumerates combinations from the pools and returns the ranked
// top-K proposals. Scoring runs on a bounded errgroup in generation-order
// batches; results fold into the accumulator in generation order, so the
// ranking is identical to serial evaluation.
func compose(ctx context.Context, pools map[catalog.Category]*pool, tier WarmthTier, cfg Config) ([]Proposal, error) {
	gen := newGenerator(pools, tier, cfg.SearchBudget)
	acc := newTopK(cfg.TopK)

	batchSize := cfg.Parallelism * 8
	batch := make([][]slotted, 0, batchSize)
	scored := make([]Proposal, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Parallelism)
		for i, combo := range batch {
			i, combo := i, combo
			g.Go(func() error {
				scored[i] = scoreCombination(combo, pools, cfg)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i := range batch {
			acc.add(scored[i])
		}
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		combo, ok := gen.Next()
		if !ok {
			break
		}
		batch = append(batch, combo)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return acc.items, nil
}
