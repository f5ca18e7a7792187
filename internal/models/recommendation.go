package models

// Reason tags attached to a recommendation. Machine-readable; the bot and
// the Mini App map them to display copy.
const (
	ReasonPopularFallback = "popular-fallback"
	ReasonSimilarReaders  = "similar-readers"
	ReasonGenreMatch      = "genre-match"
)

// Recommendation is one ranked suggestion for a user, best first.
type Recommendation struct {
	BookID  int64    `json:"book_id"`
	Title   string   `json:"title"`
	Genre   string   `json:"genre"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// BookCount is one row of the popularity ranking used by the insights view.
type BookCount struct {
	BookID int64 `json:"book_id"`
	Count  int   `json:"count"`
}
