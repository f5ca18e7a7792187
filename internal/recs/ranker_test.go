package recs

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"library_project/internal/models"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func tx(id, user, book int64, action string) models.Transaction {
	return models.Transaction{
		ID:        id,
		UserID:    user,
		BookID:    book,
		Action:    action,
		Timestamp: testEpoch.Add(time.Duration(id) * time.Minute),
	}
}

// twoReaderSnapshot is the worked scenario: user 1 borrowed "1984" twice and
// "Dune" once, user 2 borrowed "Dune" once and "Foundation" twice. Their
// similarity is cosine([2,1,0],[0,1,2]) = 0.2.
func twoReaderSnapshot() Snapshot {
	return Snapshot{
		Users: []models.User{
			{ID: 1, Username: "ann"},
			{ID: 2, Username: "bob"},
			{ID: 3, Username: "new"},
		},
		Books: []models.Book{
			{ID: 1, Title: "1984", Genre: "Dystopian"},
			{ID: 2, Title: "Dune", Genre: "Science Fiction"},
			{ID: 3, Title: "Foundation", Genre: "Science Fiction"},
		},
		Transactions: []models.Transaction{
			tx(1, 1, 1, models.ActionBorrow),
			tx(2, 1, 1, models.ActionReturn),
			tx(3, 1, 1, models.ActionBorrow),
			tx(4, 1, 2, models.ActionBorrow),
			tx(5, 2, 2, models.ActionBorrow),
			tx(6, 2, 3, models.ActionBorrow),
			tx(7, 2, 3, models.ActionReturn),
			tx(8, 2, 3, models.ActionBorrow),
		},
	}
}

func TestRecommendNeighborVote(t *testing.T) {
	recs, err := Recommend(twoReaderSnapshot(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recs) != 1 {
		t.Fatalf("expected exactly one candidate, got %+v", recs)
	}
	if recs[0].BookID != 3 {
		t.Fatalf("expected Foundation (id=3), got %+v", recs[0])
	}
	// score = sim(1,2) * count[2][3] = 0.2 * 2.
	approx(t, recs[0].Score, 0.4)

	if recs[0].Reasons[0] != models.ReasonSimilarReaders {
		t.Fatalf("expected similar-readers reason, got %v", recs[0].Reasons)
	}
	// User 1 borrowed Dune, so Science Fiction is among the favorites.
	if !hasReason(recs[0], models.ReasonGenreMatch) {
		t.Fatalf("expected genre-match tag, got %v", recs[0].Reasons)
	}
}

func TestRecommendNeverIncludesOwnHistory(t *testing.T) {
	recs, err := Recommend(twoReaderSnapshot(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, rec := range recs {
		if rec.BookID == 1 || rec.BookID == 2 {
			t.Fatalf("recommended a book already in the user's history: %+v", rec)
		}
	}
}

func TestRecommendFallbackMatchesPopularity(t *testing.T) {
	snap := twoReaderSnapshot()

	recs, err := Recommend(snap, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Catalog has 3 books, so the fallback fills exactly min(6, catalog).
	if len(recs) != 3 {
		t.Fatalf("expected full catalog ranking, got %d entries", len(recs))
	}

	popular := TopPopular(snap.Transactions, MaxRecommendations)
	for i, bc := range popular {
		if recs[i].BookID != bc.BookID {
			t.Fatalf("fallback order diverges from popularity at %d: %+v vs %+v", i, recs, popular)
		}
		approx(t, recs[i].Score, float64(bc.Count))
	}
	for _, rec := range recs {
		if rec.Reasons[0] != models.ReasonPopularFallback {
			t.Fatalf("fallback rec missing popular-fallback reason: %+v", rec)
		}
	}
}

func TestRecommendFallbackTiesBreakByBookID(t *testing.T) {
	snap := twoReaderSnapshot()

	recs, err := Recommend(snap, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Every book was borrowed exactly twice, so the order is pure id order.
	want := []int64{1, 2, 3}
	for i, id := range want {
		if recs[i].BookID != id {
			t.Fatalf("expected id order %v, got %+v", want, recs)
		}
	}
}

func TestRecommendCapsAtSix(t *testing.T) {
	snap := Snapshot{
		Users: []models.User{{ID: 1, Username: "ann"}, {ID: 2, Username: "bob"}},
	}
	for i := int64(1); i <= 9; i++ {
		snap.Books = append(snap.Books, models.Book{ID: i, Title: "b", Genre: "Tech"})
	}
	snap.Transactions = []models.Transaction{tx(1, 2, 1, models.ActionBorrow)}

	recs, err := Recommend(snap, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != MaxRecommendations {
		t.Fatalf("expected %d entries, got %d", MaxRecommendations, len(recs))
	}
}

func TestRecommendIdempotent(t *testing.T) {
	snap := twoReaderSnapshot()

	first, err := Recommend(snap, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Recommend(snap, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same snapshot produced different output:\n%+v\n%+v", first, second)
	}
}

func TestRecommendUnknownUser(t *testing.T) {
	_, err := Recommend(twoReaderSnapshot(), 99)
	if !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestRecommendEmptyLog(t *testing.T) {
	snap := twoReaderSnapshot()
	snap.Transactions = nil

	recs, err := Recommend(snap, 1)
	if err != nil {
		t.Fatalf("empty log must not fail: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("empty log must yield empty list, got %+v", recs)
	}
	if popular := TopPopular(nil, 8); len(popular) != 0 {
		t.Fatalf("empty log must yield empty popularity, got %+v", popular)
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	snap := Snapshot{Users: []models.User{{ID: 1, Username: "ann"}}}

	recs, err := Recommend(snap, 1)
	if err != nil {
		t.Fatalf("empty catalog must not fail: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("empty catalog must yield empty list, got %+v", recs)
	}
}

func hasReason(rec models.Recommendation, reason string) bool {
	for _, r := range rec.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}
