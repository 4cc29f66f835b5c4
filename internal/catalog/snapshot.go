package catalog

import (
	"sort"
	"strings"
)

// Snapshot is an immutable, request-scoped view of the catalog: garments by
// id plus a per-category index. Build one with NewSnapshot and treat it as
// read-only for the duration of a recommendation.
type Snapshot struct {
	byID       map[string]Garment
	byCategory map[Category][]string
	degraded   int
	dim        int
}

// NewSnapshot indexes the given garments. Garments with an embedding whose
// length disagrees with the majority dimension are degraded to
// attribute-only (embedding dropped, counted), never rejected.
func NewSnapshot(garments []Garment) *Snapshot {
	s := &Snapshot{
		byID:       make(map[string]Garment, len(garments)),
		byCategory: make(map[Category][]string),
	}

	s.dim = dominantDim(garments)

	for _, g := range garments {
		if g.ID == "" {
			continue
		}
		if g.HasEmbedding() && len(g.Embedding) != s.dim {
			g.Embedding = nil
			s.degraded++
		}
		s.byID[g.ID] = g
		s.byCategory[g.Category] = append(s.byCategory[g.Category], g.ID)
	}

	// Stable per-category order keeps every downstream traversal
	// deterministic regardless of input order.
	for c := range s.byCategory {
		sort.Strings(s.byCategory[c])
	}

	return s
}

// dominantDim picks the most common embedding length, preferring
// EmbeddingDim on ties. A catalog with no embeddings reports EmbeddingDim
// so later loads have a fixed contract to check against.
func dominantDim(garments []Garment) int {
	counts := make(map[int]int)
	for _, g := range garments {
		if g.HasEmbedding() {
			counts[len(g.Embedding)]++
		}
	}
	if len(counts) == 0 {
		return EmbeddingDim
	}
	best, bestN := EmbeddingDim, counts[EmbeddingDim]
	for dim, n := range counts {
		if n > bestN {
			best, bestN = dim, n
		}
	}
	return best
}

// Get returns the garment for id.
func (s *Snapshot) Get(id string) (Garment, bool) {
	g, ok := s.byID[id]
	return g, ok
}

// Category returns the ids of all garments in the given category, sorted.
func (s *Snapshot) Category(c Category) []string {
	return s.byCategory[c]
}

// Len returns the total number of garments.
func (s *Snapshot) Len() int {
	return len(s.byID)
}

// Dim returns the embedding dimensionality of this snapshot.
func (s *Snapshot) Dim() int {
	return s.dim
}

// Degraded returns how many garments lost their embedding to a dimension
// mismatch during indexing.
func (s *Snapshot) Degraded() int {
	return s.degraded
}

// All returns every garment id, sorted.
func (s *Snapshot) All() []string {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
