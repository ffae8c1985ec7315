package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Record is one exported ledger row.
type Record struct {
	TransactionID string
	PeriodID      string
	EnvelopeID    string
	EnvelopeName  string
	Date          string
	Description   string
	Amount        string
}

// LedgerWriter appends ledger rows to an export destination.
type LedgerWriter interface {
	Append(ctx context.Context, rec Record) error
	Close() error
}

var csvHeader = []string{"Transaction ID", "Period ID", "Envelope ID", "Envelope", "Date", "Description", "Amount"}

// CSVWriter appends ledger rows to a CSV file. Rows are flushed to disk every
// batchSize appends and on Close.
type CSVWriter struct {
	mu        sync.Mutex
	file      *os.File
	writer    *csv.Writer
	batchSize int
	pending   int
}

func NewCSVWriter(path string, batchSize int) (*CSVWriter, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export directory %q: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open export file %q: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat export file %q: %w", path, err)
	}

	w := &CSVWriter{
		file:      file,
		writer:    csv.NewWriter(file),
		batchSize: batchSize,
	}

	// A fresh file gets the column header row.
	if info.Size() == 0 {
		if err := w.writer.Write(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
		w.writer.Flush()
		if err := w.writer.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("flush CSV header: %w", err)
		}
	}

	return w, nil
}

func (w *CSVWriter) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	row := []string{
		rec.TransactionID,
		rec.PeriodID,
		rec.EnvelopeID,
		rec.EnvelopeName,
		rec.Date,
		rec.Description,
		rec.Amount,
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("write CSV row: %w", err)
	}

	w.pending++
	if w.pending >= w.batchSize {
		w.writer.Flush()
		if err := w.writer.Error(); err != nil {
			return fmt.Errorf("flush CSV rows: %w", err)
		}
		w.pending = 0
	}

	return nil
}

func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	flushErr := w.writer.Error()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flush CSV rows: %w", flushErr)
	}
	return closeErr
}
