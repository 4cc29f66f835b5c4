package planner

import "math"

// Cosine returns the cosine similarity of two embedding vectors in [-1, 1].
// ok is false (the "unknown" sentinel, not an error) when either vector is
// absent, zero-length, zero-norm, or the lengths disagree; callers treat
// unknown pairs as neutral so attribute-only garments stay combinable.
//
// Accumulation runs in float64 for stability, the same way the vector store
// scan does it.
func Cosine(a, b []float32) (score float64, ok bool) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, aNormSq, bNormSq float64
	for i := range a {
		af, bf := float64(a[i]), float64(b[i])
		dot += af * bf
		aNormSq += af * af
		bNormSq += bf * bf
	}
	if aNormSq == 0 || bNormSq == 0 {
		return 0, false
	}

	score = dot / (math.Sqrt(aNormSq) * math.Sqrt(bNormSq))
	// Guard against float drift pushing the result out of bounds.
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score, true
}
