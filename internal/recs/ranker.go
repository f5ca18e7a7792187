package recs

import (
	"errors"
	"fmt"
	"sort"

	"library_project/internal/models"
)

// ErrUnknownUser is returned when the target user is absent from the user set.
var ErrUnknownUser = errors.New("unknown user")

// MaxRecommendations caps the length of a recommendation list.
const MaxRecommendations = 6

// Snapshot is the read-only view of the interaction store the engine works
// on. It is rebuilt per request; the engine holds no state between calls.
type Snapshot struct {
	Users        []models.User
	Books        []models.Book
	Transactions []models.Transaction
}

// Recommend produces an ordered list (best first) of up to MaxRecommendations
// books for the given user.
//
// Users with borrow history get a similarity-weighted neighbor vote: every
// other user contributes sim(target,u)·count[u][book] per book, negative
// similarities subtract, and books already in the target's history are never
// recommended. Users without history fall back to global popularity. An empty
// log or empty catalog degrades to an empty list, never an error.
func Recommend(snap Snapshot, userID int64) ([]models.Recommendation, error) {
	if !hasUser(snap.Users, userID) {
		return nil, fmt.Errorf("%w: id=%d", ErrUnknownUser, userID)
	}
	if len(snap.Books) == 0 {
		return nil, nil
	}

	matrix := Build(snap.Transactions)
	if len(matrix) == 0 {
		// Nobody has borrowed anything yet: no data to rank on.
		return nil, nil
	}

	row := matrix.Row(userID)
	if len(row) == 0 {
		return popularFallback(snap), nil
	}

	sims := Similarities(matrix)
	scores := make(map[int64]float64, len(snap.Books))
	for other, counts := range matrix {
		if other == userID {
			continue
		}
		s := sims[userID][other]
		if s == 0 {
			continue
		}
		for book, count := range counts {
			scores[book] += s * float64(count)
		}
	}

	favorites := FavoriteGenres(snap.Transactions, snap.Books, userID)

	recs := make([]models.Recommendation, 0, len(snap.Books))
	for _, book := range snap.Books {
		if row[book.ID] > 0 {
			continue
		}
		rec := models.Recommendation{
			BookID:  book.ID,
			Title:   book.Title,
			Genre:   book.Genre,
			Score:   scores[book.ID],
			Reasons: []string{models.ReasonSimilarReaders},
		}
		if genreMatch(favorites, book.Genre) {
			rec.Reasons = append(rec.Reasons, models.ReasonGenreMatch)
		}
		recs = append(recs, rec)
	}

	sortRecommendations(recs)
	return truncate(recs), nil
}

// popularFallback ranks the whole catalog by global borrow count. Books
// nobody borrowed stay in with score zero so the list can still fill up.
func popularFallback(snap Snapshot) []models.Recommendation {
	counts := borrowCounts(snap.Transactions)

	recs := make([]models.Recommendation, 0, len(snap.Books))
	for _, book := range snap.Books {
		recs = append(recs, models.Recommendation{
			BookID:  book.ID,
			Title:   book.Title,
			Genre:   book.Genre,
			Score:   float64(counts[book.ID]),
			Reasons: []string{models.ReasonPopularFallback},
		})
	}

	sortRecommendations(recs)
	return truncate(recs)
}

// sortRecommendations orders by score descending, ties by ascending book id
// so repeated calls over the same log produce identical output.
func sortRecommendations(recs []models.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].BookID < recs[j].BookID
	})
}

func truncate(recs []models.Recommendation) []models.Recommendation {
	if len(recs) > MaxRecommendations {
		return recs[:MaxRecommendations]
	}
	return recs
}

func hasUser(users []models.User, userID int64) bool {
	for _, u := range users {
		if u.ID == userID {
			return true
		}
	}
	return false
}
