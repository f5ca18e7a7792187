package recs

import "library_project/internal/models"

// Matrix is the user×book borrow-count table derived from the transaction
// log. Rows exist only for users with at least one borrow; a missing book
// column means a count of zero. Returns never decrement a count — the
// matrix measures historical engagement, not current holding.
type Matrix map[int64]map[int64]int

// Build aggregates the log into a Matrix, counting borrow actions only.
// An empty log yields an empty matrix, which downstream treats as "no data".
func Build(txs []models.Transaction) Matrix {
	m := make(Matrix)
	for _, tx := range txs {
		if tx.Action != models.ActionBorrow {
			continue
		}
		row, ok := m[tx.UserID]
		if !ok {
			row = make(map[int64]int)
			m[tx.UserID] = row
		}
		row[tx.BookID]++
	}
	return m
}

// Row returns the count vector for one user (nil if the user never borrowed).
func (m Matrix) Row(userID int64) map[int64]int {
	return m[userID]
}
