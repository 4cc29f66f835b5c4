package planner

import (
	"sort"
	"strings"

	"github.com/kalambet/attire/internal/catalog"
)

// Slot is an outfit role a proposal fills.
type Slot string

const (
	SlotUpper     Slot = "upper"
	SlotLower     Slot = "lower"
	SlotDress     Slot = "dress"
	SlotSet       Slot = "set"
	SlotOuterwear Slot = "outerwear"
)

func slotFor(c catalog.Category) Slot {
	switch c {
	case catalog.CategoryUpper:
		return SlotUpper
	case catalog.CategoryLower:
		return SlotLower
	case catalog.CategoryDress:
		return SlotDress
	case catalog.CategorySet:
		return SlotSet
	case catalog.CategoryOuterwear:
		return SlotOuterwear
	}
	return Slot(strings.ToLower(string(c)))
}

// Proposal is one ranked outfit: garment ids per slot plus the score
// breakdown and the relaxations its pools needed.
type Proposal struct {
	Slots             map[Slot]string  `json:"slots"`
	Score             float64          `json:"score"`
	Similarity        float64          `json:"similarity"`
	Boost             float64          `json:"boost"`
	RelaxationPenalty float64          `json:"relaxation_penalty"`
	Relaxations       []RelaxationStep `json:"relaxations,omitempty"`
}

// key returns the canonical identity of the proposal's garment set, used
// for the final deterministic tie-break.
func (p Proposal) key() string {
	ids := make([]string, 0, len(p.Slots))
	for _, id := range p.Slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// Infeasibility explains why no complete outfit could be formed. It is a
// result value, not an error: the pipeline worked, the catalog could not
// satisfy the day.
type Infeasibility struct {
	// FailedSlots names the mandatory slots whose pools stayed empty after
	// the full relaxation ladder.
	FailedSlots []Slot `json:"failed_slots"`
	// RelaxationsTried lists the ladder steps attempted per category.
	RelaxationsTried map[catalog.Category][]RelaxationStep `json:"relaxations_tried,omitempty"`
}

// Diagnostics carries observability data for one recommendation run.
type Diagnostics struct {
	Tier WarmthTier `json:"tier"`
	// DegradedEmbeddings counts garments whose embedding was dropped for a
	// dimension mismatch when the snapshot was built.
	DegradedEmbeddings int `json:"degraded_embeddings"`
	// MissingEmbeddings counts pool candidates carrying no embedding at all.
	MissingEmbeddings int `json:"missing_embeddings"`
	// Stages holds strict-pass survivor counts per category.
	Stages map[catalog.Category]StageCounts `json:"stages,omitempty"`
	// Relaxations holds the ladder steps that were applied per category.
	Relaxations map[catalog.Category][]RelaxationStep `json:"relaxations,omitempty"`
	// Advice carries per-tier dressing tips for presentation layers.
	Advice []string `json:"advice,omitempty"`
}

// Relaxed reports whether any pool needed relaxation.
func (d Diagnostics) Relaxed() bool {
	for _, steps := range d.Relaxations {
		if len(steps) > 0 {
			return true
		}
	}
	return false
}

// Result is the outcome of one recommendation: either ranked proposals or
// an explicit infeasibility report, always with diagnostics.
type Result struct {
	Proposals   []Proposal     `json:"proposals,omitempty"`
	Infeasible  *Infeasibility `json:"infeasible,omitempty"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

// Feasible reports whether the result carries at least one proposal.
func (r Result) Feasible() bool {
	return r.Infeasible == nil && len(r.Proposals) > 0
}
