package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"library_project/internal/models"
	"library_project/internal/storage"
)

// ExportHistory writes the user's transaction history as a CSV report and
// returns the saved file. Rows come out in log order, oldest first.
func (l *Library) ExportHistory(ctx context.Context, userID int64, reportsDir string) (storage.SavedReport, error) {
	txs, err := l.store.ListUserTransactions(ctx, userID)
	if err != nil {
		return storage.SavedReport{}, err
	}
	books, err := l.store.ListBooks(ctx)
	if err != nil {
		return storage.SavedReport{}, err
	}

	byID := make(map[int64]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"tx_id", "timestamp", "action", "book_id", "title", "genre"}); err != nil {
		return storage.SavedReport{}, fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		book := byID[tx.BookID]
		row := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Timestamp.UTC().Format(time.RFC3339),
			tx.Action,
			strconv.FormatInt(tx.BookID, 10),
			book.Title,
			book.Genre,
		}
		if err := w.Write(row); err != nil {
			return storage.SavedReport{}, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return storage.SavedReport{}, fmt.Errorf("flush csv: %w", err)
	}

	return storage.SaveReport(reportsDir, ".csv", &buf)
}
