package service

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
)

func TestExportHistoryCSV(t *testing.T) {
	lib := newTestLibrary(t)
	seedScenario(t, lib)

	saved, err := lib.ExportHistory(context.Background(), 1, t.TempDir())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if saved.SizeBytes == 0 {
		t.Fatal("expected a non-empty report")
	}

	f, err := os.Open(saved.Path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	// Header plus ann's 4 log entries.
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][0] != "tx_id" || rows[0][4] != "title" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "borrow" || rows[1][4] != "1984" {
		t.Fatalf("unexpected first entry: %v", rows[1])
	}
}
