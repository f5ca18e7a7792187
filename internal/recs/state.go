package recs

import (
	"sort"

	"library_project/internal/models"
)

// BorrowedNow derives the set of books the user currently holds: a book is
// held if the most recent action for that (user, book) pair is a borrow.
// The fold relies on the log being in timestamp order. Log anomalies (a
// return with no prior borrow, double borrows) are not repaired; the latest
// action simply wins.
func BorrowedNow(txs []models.Transaction, userID int64) map[int64]bool {
	last := make(map[int64]string)
	for _, tx := range txs {
		if tx.UserID == userID {
			last[tx.BookID] = tx.Action
		}
	}

	held := make(map[int64]bool, len(last))
	for book, action := range last {
		if action == models.ActionBorrow {
			held[book] = true
		}
	}
	return held
}

// TopPopular ranks books by total borrow count, most borrowed first, ties
// by ascending book id. Books never borrowed are left out; an empty log
// yields an empty ranking.
func TopPopular(txs []models.Transaction, n int) []models.BookCount {
	counts := borrowCounts(txs)

	ranking := make([]models.BookCount, 0, len(counts))
	for book, count := range counts {
		ranking = append(ranking, models.BookCount{BookID: book, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].BookID < ranking[j].BookID
	})

	if n > 0 && len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}

func borrowCounts(txs []models.Transaction) map[int64]int {
	counts := make(map[int64]int)
	for _, tx := range txs {
		if tx.Action == models.ActionBorrow {
			counts[tx.BookID]++
		}
	}
	return counts
}
