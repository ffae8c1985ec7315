package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export file: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read CSV: %v", err)
	}
	return rows
}

func TestCSVWriterAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	w, err := NewCSVWriter(path, 1)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	ctx := context.Background()
	err = w.Append(ctx, Record{
		TransactionID: "tx-1",
		PeriodID:      "p-1",
		EnvelopeID:    "env-1",
		EnvelopeName:  "Groceries",
		Date:          "2026-02-08T10:00:00Z",
		Description:   "market run",
		Amount:        "-5'000.00",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "Transaction ID" {
		t.Errorf("missing header row, got %v", rows[0])
	}
	if rows[1][3] != "Groceries" || rows[1][6] != "-5'000.00" {
		t.Errorf("unexpected row: %v", rows[1])
	}
}

func TestCSVWriterReopenSkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	ctx := context.Background()

	w, err := NewCSVWriter(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append(ctx, Record{TransactionID: "tx-1", Date: "2026-02-05"}); err != nil {
		t.Fatal(err)
	}
	w.Close()

	// Reopening an existing file must not write a second header.
	w, err = NewCSVWriter(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append(ctx, Record{TransactionID: "tx-2", Date: "2026-02-06"}); err != nil {
		t.Fatal(err)
	}
	w.Close()

	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "tx-1" || rows[2][0] != "tx-2" {
		t.Errorf("unexpected rows: %v", rows[1:])
	}
}

func TestCSVWriterBatchFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	w, err := NewCSVWriter(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := w.Append(ctx, Record{TransactionID: id}); err != nil {
			t.Fatal(err)
		}
	}

	// Batch of three is flushed without Close.
	rows := readRows(t, path)
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 flushed rows, got %d", len(rows))
	}
}

func TestCSVWriterCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	w, err := NewCSVWriter(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Append(ctx, Record{TransactionID: "tx-1"}); err == nil {
		t.Error("append with cancelled context should fail")
	}
}
