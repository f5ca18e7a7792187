package recs

import (
	"testing"

	"library_project/internal/models"
)

func TestBuildCountsBorrowsOnly(t *testing.T) {
	m := Build([]models.Transaction{
		tx(1, 1, 10, models.ActionBorrow),
		tx(2, 1, 10, models.ActionReturn),
		tx(3, 1, 10, models.ActionBorrow),
		tx(4, 2, 11, models.ActionReturn), // anomaly: return with no borrow
	})

	if got := m.Row(1)[10]; got != 2 {
		t.Fatalf("returns must not decrement the count: got %d, want 2", got)
	}
	if _, ok := m[2]; ok {
		t.Fatalf("user with returns only must have no row: %+v", m)
	}
}

func TestBuildEmptyLog(t *testing.T) {
	if m := Build(nil); len(m) != 0 {
		t.Fatalf("empty log must build an empty matrix, got %+v", m)
	}
}

func TestBorrowedNowLatestActionWins(t *testing.T) {
	log := []models.Transaction{
		tx(1, 1, 10, models.ActionBorrow),
		tx(2, 1, 11, models.ActionBorrow),
		tx(3, 1, 11, models.ActionReturn),
		tx(4, 1, 12, models.ActionBorrow),
		tx(5, 1, 12, models.ActionReturn),
		tx(6, 1, 12, models.ActionBorrow),
		tx(7, 2, 10, models.ActionBorrow), // another reader, ignored
	}

	held := BorrowedNow(log, 1)

	if !held[10] || held[11] || !held[12] {
		t.Fatalf("unexpected borrow state: %+v", held)
	}
	if len(held) != 2 {
		t.Fatalf("expected exactly 2 held books, got %+v", held)
	}
}

func TestBorrowedNowReturnWithoutBorrow(t *testing.T) {
	held := BorrowedNow([]models.Transaction{tx(1, 1, 10, models.ActionReturn)}, 1)
	if len(held) != 0 {
		t.Fatalf("a lone return must not mark the book held: %+v", held)
	}
}

func TestTopPopularOrderAndLimit(t *testing.T) {
	log := []models.Transaction{
		tx(1, 1, 10, models.ActionBorrow),
		tx(2, 1, 10, models.ActionReturn),
		tx(3, 2, 10, models.ActionBorrow),
		tx(4, 1, 11, models.ActionBorrow),
		tx(5, 2, 12, models.ActionBorrow),
	}

	top := TopPopular(log, 2)

	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %+v", top)
	}
	if top[0].BookID != 10 || top[0].Count != 2 {
		t.Fatalf("expected book 10 with 2 borrows first, got %+v", top[0])
	}
	// 11 and 12 tie at one borrow each; lower id wins the remaining slot.
	if top[1].BookID != 11 {
		t.Fatalf("tie must break by ascending book id, got %+v", top[1])
	}
}

func TestFavoriteGenresOrderedByFrequency(t *testing.T) {
	books := []models.Book{
		{ID: 10, Title: "1984", Genre: "Dystopian"},
		{ID: 11, Title: "Dune", Genre: "Science Fiction"},
		{ID: 12, Title: "Cosmos", Genre: "Science"},
	}
	log := []models.Transaction{
		tx(1, 1, 11, models.ActionBorrow),
		tx(2, 1, 10, models.ActionBorrow),
		tx(3, 1, 10, models.ActionReturn),
		tx(4, 1, 10, models.ActionBorrow),
		tx(5, 2, 12, models.ActionBorrow), // another reader
	}

	got := FavoriteGenres(log, books, 1)

	if len(got) != 2 || got[0] != "Dystopian" || got[1] != "Science Fiction" {
		t.Fatalf("unexpected favorite genres: %v", got)
	}
}
