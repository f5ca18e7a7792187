package models

import "fmt"

// Book is one catalog entry. The catalog is seeded at startup and only
// extended through catalog management, never mutated by readers.
type Book struct {
	ID    int64  `json:"book_id"`
	Title string `json:"title"`
	Genre string `json:"genre"`
}

func (b Book) String() string {
	return fmt.Sprintf("📚 %s (%s, id=%d)", b.Title, b.Genre, b.ID)
}

// User is a registered reader. Created on first contact with the bot or
// the Mini App; the record is immutable afterwards.
type User struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
}
