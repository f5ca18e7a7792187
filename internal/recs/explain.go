package recs

import (
	"sort"

	"library_project/internal/models"
)

// FavoriteGenres returns the distinct genres of the user's borrowed books,
// most frequently borrowed first; ties break by genre name so the order is
// stable. Presentation metadata only — it never affects ranking.
func FavoriteGenres(txs []models.Transaction, books []models.Book, userID int64) []string {
	genreOf := make(map[int64]string, len(books))
	for _, b := range books {
		genreOf[b.ID] = b.Genre
	}

	counts := make(map[string]int)
	for _, tx := range txs {
		if tx.UserID != userID || tx.Action != models.ActionBorrow {
			continue
		}
		if genre, ok := genreOf[tx.BookID]; ok {
			counts[genre]++
		}
	}

	genres := make([]string, 0, len(counts))
	for genre := range counts {
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})
	return genres
}

// genreMatch reports whether the genre appears anywhere in the favorite
// list — it does not have to be the top genre.
func genreMatch(favorites []string, genre string) bool {
	for _, g := range favorites {
		if g == genre {
			return true
		}
	}
	return false
}
