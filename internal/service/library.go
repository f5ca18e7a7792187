package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"library_project/internal/db"
	"library_project/internal/models"
	"library_project/internal/parser"
	"library_project/internal/recs"
)

var (
	// ErrAlreadyBorrowed rejects a borrow for a book the user still holds.
	ErrAlreadyBorrowed = errors.New("book already borrowed")
	// ErrNotBorrowed rejects a return for a book the user does not hold.
	ErrNotBorrowed = errors.New("book is not borrowed")
)

// PopularBook is one row of the insights ranking, with catalog metadata
// joined in for display.
type PopularBook struct {
	models.Book
	Count int `json:"count"`
}

// Library orchestrates the interaction store and the recommendation core.
// Reads go through a per-request snapshot; the only writes are user
// registration, catalog management and appends to the transaction log.
type Library struct {
	store *db.Store
	now   func() time.Time
}

func NewLibrary(store *db.Store) *Library {
	return &Library{store: store, now: time.Now}
}

// RegisterUser creates the user on first contact; later calls are no-ops.
func (l *Library) RegisterUser(ctx context.Context, userID int64, username string) error {
	return l.store.EnsureUser(ctx, userID, username)
}

func (l *Library) Books(ctx context.Context) ([]models.Book, error) {
	return l.store.ListBooks(ctx)
}

// AddBook extends the catalog. Catalog management, not part of the core.
func (l *Library) AddBook(ctx context.Context, title string, genre string) (models.Book, error) {
	if title == "" || genre == "" {
		return models.Book{}, fmt.Errorf("title and genre are required")
	}
	id, err := l.store.InsertBook(ctx, title, genre)
	if err != nil {
		return models.Book{}, err
	}
	return models.Book{ID: id, Title: title, Genre: genre}, nil
}

// Recommend runs the full synchronous recompute for one user: snapshot →
// matrix → similarity → ranking → explanation tags.
func (l *Library) Recommend(ctx context.Context, userID int64) ([]models.Recommendation, error) {
	snap, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return recs.Recommend(snap, userID)
}

// TopPopular returns the insights ranking with titles joined in.
func (l *Library) TopPopular(ctx context.Context, n int) ([]PopularBook, error) {
	books, err := l.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := l.store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	var ranking []PopularBook
	for _, bc := range recs.TopPopular(txs, n) {
		ranking = append(ranking, PopularBook{Book: byID[bc.BookID], Count: bc.Count})
	}
	return ranking, nil
}

// Borrowed returns the set of book ids the user currently holds.
func (l *Library) Borrowed(ctx context.Context, userID int64) (map[int64]bool, error) {
	txs, err := l.store.ListUserTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return recs.BorrowedNow(txs, userID), nil
}

// BorrowedBooks is Borrowed joined against the catalog, in catalog order.
func (l *Library) BorrowedBooks(ctx context.Context, userID int64) ([]models.Book, error) {
	held, err := l.Borrowed(ctx, userID)
	if err != nil {
		return nil, err
	}
	books, err := l.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Book
	for _, b := range books {
		if held[b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}

// Borrow appends a borrow event. Double borrows are rejected at the write
// path; the read path stays tolerant and derives state by the latest action
// regardless of how the log got there.
func (l *Library) Borrow(ctx context.Context, userID, bookID int64) error {
	book, err := l.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	held, err := l.Borrowed(ctx, userID)
	if err != nil {
		return err
	}
	if held[book.ID] {
		return fmt.Errorf("%q: %w", book.Title, ErrAlreadyBorrowed)
	}

	_, err = l.store.AppendTransaction(ctx, userID, bookID, models.ActionBorrow, l.now())
	return err
}

// Return appends a return event for a currently held book.
func (l *Library) Return(ctx context.Context, userID, bookID int64) error {
	book, err := l.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	held, err := l.Borrowed(ctx, userID)
	if err != nil {
		return err
	}
	if !held[book.ID] {
		return fmt.Errorf("%q: %w", book.Title, ErrNotBorrowed)
	}

	_, err = l.store.AppendTransaction(ctx, userID, bookID, models.ActionReturn, l.now())
	return err
}

// History returns the user's slice of the transaction log, oldest first.
func (l *Library) History(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return l.store.ListUserTransactions(ctx, userID)
}

// EnsureCatalog seeds the book catalog once. With a catalog path set, the
// books are imported from the HTML export; otherwise the built-in seed list
// is used. Returns the number of books seeded (0 when already seeded).
func (l *Library) EnsureCatalog(ctx context.Context, catalogPath string) (int, error) {
	n, err := l.store.CountBooks(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	books := defaultCatalog()
	if catalogPath != "" {
		f, err := os.Open(catalogPath)
		if err != nil {
			return 0, fmt.Errorf("open catalog file: %w", err)
		}
		defer f.Close()

		books, err = parser.ParseCatalog(f)
		if err != nil {
			return 0, err
		}
		if len(books) == 0 {
			return 0, fmt.Errorf("catalog file %s contains no books", catalogPath)
		}
	}

	if err := l.store.SeedBooks(ctx, books); err != nil {
		return 0, err
	}
	return len(books), nil
}

func (l *Library) snapshot(ctx context.Context) (recs.Snapshot, error) {
	users, err := l.store.ListUsers(ctx)
	if err != nil {
		return recs.Snapshot{}, err
	}
	books, err := l.store.ListBooks(ctx)
	if err != nil {
		return recs.Snapshot{}, err
	}
	txs, err := l.store.ListTransactions(ctx)
	if err != nil {
		return recs.Snapshot{}, err
	}
	return recs.Snapshot{Users: users, Books: books, Transactions: txs}, nil
}
