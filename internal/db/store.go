package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"library_project/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the interaction store: the user table, the book catalog and the
// append-only transaction log. The recommendation core never touches it
// directly — it works on snapshots read through the service layer.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragma := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, stmt := range pragma {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("pragma: %w", err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
	user_id INTEGER PRIMARY KEY,
	username TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS books (
	book_id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	genre TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transactions (
	tx_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	book_id INTEGER NOT NULL,
	action TEXT NOT NULL CHECK (action IN ('borrow', 'return')),
	timestamp TEXT NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(user_id),
	FOREIGN KEY(book_id) REFERENCES books(book_id)
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_book_id ON transactions(book_id);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// EnsureUser registers a user on first contact. Existing records are left
// untouched: a user is immutable after registration.
func (s *Store) EnsureUser(ctx context.Context, userID int64, username string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO users (user_id, username) VALUES (?, ?)
`, userID, username)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, username FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var username sql.NullString
		if err := rows.Scan(&u.ID, &username); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Username = username.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return users, nil
}

// InsertBook adds one catalog entry and returns its id.
func (s *Store) InsertBook(ctx context.Context, title string, genre string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO books (title, genre) VALUES (?, ?)
`, title, genre)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	return res.LastInsertId()
}

// SeedBooks inserts the initial catalog in one transaction. Ids are assigned
// in list order so the seed is deterministic.
func (s *Store) SeedBooks(ctx context.Context, books []models.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, b := range books {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO books (title, genre) VALUES (?, ?)
`, b.Title, b.Genre); err != nil {
			return fmt.Errorf("seed %q: %w", b.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func (s *Store) ListBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT book_id, title, genre FROM books ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Genre); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return books, nil
}

func (s *Store) GetBook(ctx context.Context, bookID int64) (models.Book, error) {
	var b models.Book
	err := s.db.QueryRowContext(ctx, `
SELECT book_id, title, genre FROM books WHERE book_id = ?
`, bookID).Scan(&b.ID, &b.Title, &b.Genre)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Book{}, fmt.Errorf("book id=%d: %w", bookID, ErrNotFound)
		}
		return models.Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// timeLayout keeps every fraction at nine digits so the stored strings sort
// lexicographically in chronological order. RFC3339Nano trims trailing zeros
// and would put "…00.12Z" after "…00.123Z" within the same second.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AppendTransaction appends one borrow/return event to the log. The log is
// append-only; nothing ever updates or deletes rows here.
func (s *Store) AppendTransaction(ctx context.Context, userID, bookID int64, action string, ts time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO transactions (user_id, book_id, action, timestamp) VALUES (?, ?, ?, ?)
`, userID, bookID, action, ts.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("append transaction: %w", err)
	}
	return res.LastInsertId()
}

// ListTransactions returns the full log in timestamp order (tx_id as the
// tiebreaker), which is the order the derivation rules depend on.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.listTransactions(ctx, `
SELECT tx_id, user_id, book_id, action, timestamp
FROM transactions
ORDER BY timestamp, tx_id
`)
}

// ListUserTransactions returns one user's slice of the log, same order.
func (s *Store) ListUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return s.listTransactions(ctx, `
SELECT tx_id, user_id, book_id, action, timestamp
FROM transactions
WHERE user_id = ?
ORDER BY timestamp, tx_id
`, userID)
}

func (s *Store) listTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var ts string
		if err := rows.Scan(&t.ID, &t.UserID, &t.BookID, &t.Action, &ts); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Timestamp, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return txs, nil
}
