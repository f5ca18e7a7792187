package recs

import (
	"math"
	"testing"
)

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCosineKnownVectors(t *testing.T) {
	// Count vectors over books {1,2,3}: [2,1,0] vs [0,1,2].
	a := map[int64]int{1: 2, 2: 1}
	b := map[int64]int{2: 1, 3: 2}

	// dot=1, |a|=|b|=sqrt(5) -> 1/5.
	approx(t, Cosine(a, b), 0.2)
}

func TestCosineZeroVectorGuard(t *testing.T) {
	a := map[int64]int{}
	b := map[int64]int{1: 3}

	if got := Cosine(a, b); got != 0 {
		t.Fatalf("zero vector must yield 0, got %v", got)
	}
	if got := Cosine(b, a); got != 0 {
		t.Fatalf("zero vector must yield 0, got %v", got)
	}
}

func TestSimilaritiesSymmetricWithUnitDiagonal(t *testing.T) {
	m := Matrix{
		1: {10: 2, 11: 1},
		2: {11: 1, 12: 2},
		3: {10: 1, 12: 1},
	}

	sims := Similarities(m)

	for a := range m {
		approx(t, sims[a][a], 1)
		for b := range m {
			if sims[a][b] != sims[b][a] {
				t.Fatalf("sim(%d,%d)=%v != sim(%d,%d)=%v", a, b, sims[a][b], b, a, sims[b][a])
			}
			if sims[a][b] < -1 || sims[a][b] > 1 {
				t.Fatalf("sim(%d,%d)=%v out of [-1,1]", a, b, sims[a][b])
			}
		}
	}
}
