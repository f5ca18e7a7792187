package recs

import "math"

// Cosine returns the cosine similarity of two borrow-count vectors over the
// shared book-column space: dot(a,b) / (|a|·|b|), in [-1, 1].
// A zero vector yields 0 instead of dividing by zero.
func Cosine(a, b map[int64]int) float64 {
	var dot, normA, normB float64
	for book, ca := range a {
		normA += float64(ca) * float64(ca)
		if cb, ok := b[book]; ok {
			dot += float64(ca) * float64(cb)
		}
	}
	for _, cb := range b {
		normB += float64(cb) * float64(cb)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Similarities computes the pairwise similarity table for every user in the
// matrix. The table is symmetric; the diagonal is exactly 1 for non-zero
// rows and 0 otherwise. Recomputed fresh per request, never cached.
func Similarities(m Matrix) map[int64]map[int64]float64 {
	sims := make(map[int64]map[int64]float64, len(m))
	for user, row := range m {
		sims[user] = make(map[int64]float64, len(m))
		if len(row) > 0 {
			sims[user][user] = 1
		}
	}
	for a, rowA := range m {
		for b, rowB := range m {
			if b <= a {
				continue
			}
			s := Cosine(rowA, rowB)
			sims[a][b] = s
			sims[b][a] = s
		}
	}
	return sims
}
