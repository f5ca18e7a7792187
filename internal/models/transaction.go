package models

import "time"

// Transaction actions. The log only ever contains these two.
const (
	ActionBorrow = "borrow"
	ActionReturn = "return"
)

// Transaction is one append-only log entry. Entries are never updated or
// deleted; current borrow state is derived from the latest action per
// (user, book) pair, not stored.
type Transaction struct {
	ID        int64     `json:"tx_id"`
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}
