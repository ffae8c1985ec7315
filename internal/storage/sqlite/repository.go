// Package sqlite implements storage.Repository on an embedded SQLite
// database with schema migrations applied at startup.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"envelopes/internal/storage"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) SavePeriod(ctx context.Context, p storage.Period) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO periods (id, start_date, end_date) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET start_date = excluded.start_date, end_date = excluded.end_date`,
		p.ID, p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly))
	if err != nil {
		return fmt.Errorf("save period: %w", err)
	}
	return nil
}

func (r *Repository) GetPeriod(ctx context.Context, id string) (storage.Period, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, start_date, end_date FROM periods WHERE id = ?`, id)
	return scanPeriod(row)
}

// GetCurrentPeriod returns the earliest-starting period covering now.
// Dates are stored as ISO calendar days, so the range check is a plain
// text comparison.
func (r *Repository) GetCurrentPeriod(ctx context.Context, now time.Time) (storage.Period, error) {
	today := now.UTC().Format(time.DateOnly)
	row := r.db.QueryRowContext(ctx,
		`SELECT id, start_date, end_date FROM periods
		 WHERE start_date <= ? AND ? <= end_date
		 ORDER BY start_date ASC LIMIT 1`, today, today)
	return scanPeriod(row)
}

func (r *Repository) ListPeriods(ctx context.Context) ([]storage.Period, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, start_date, end_date FROM periods ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var res []storage.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *Repository) CreateEnvelope(ctx context.Context, e storage.Envelope) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO envelopes (id, name) VALUES (?, ?)`, e.ID, e.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateEnvelope
		}
		return fmt.Errorf("create envelope: %w", err)
	}
	slog.InfoContext(ctx, "Envelope saved", "envelope_id", e.ID, "envelope_name", e.Name)
	return nil
}

func (r *Repository) GetEnvelope(ctx context.Context, id string) (storage.Envelope, error) {
	var e storage.Envelope
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM envelopes WHERE id = ?`, id).Scan(&e.ID, &e.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Envelope{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Envelope{}, fmt.Errorf("get envelope: %w", err)
	}
	return e, nil
}

// ListEnvelopes orders by rowid, which is creation order for this table.
func (r *Repository) ListEnvelopes(ctx context.Context) ([]storage.Envelope, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM envelopes ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list envelopes: %w", err)
	}
	defer rows.Close()

	var res []storage.Envelope
	for rows.Next() {
		var e storage.Envelope
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("scan envelope: %w", err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// DeleteEnvelope refuses to delete envelopes still referenced by
// transactions. The ledger is append-only, so the reference can never go
// away; callers get ErrEnvelopeInUse instead of a cascading delete.
func (r *Repository) DeleteEnvelope(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM envelopes WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrEnvelopeInUse
		}
		return fmt.Errorf("delete envelope: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete envelope: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t storage.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, period_id, envelope_id, amount_minor, description, category, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PeriodID, t.EnvelopeID, t.AmountMinor, t.Description, t.Category, t.Date)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"envelope_id", t.EnvelopeID,
		"amount_minor", t.AmountMinor)
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (storage.Transaction, error) {
	var t storage.Transaction
	err := r.db.QueryRowContext(ctx,
		`SELECT id, period_id, envelope_id, amount_minor, description, category, date
		 FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.PeriodID, &t.EnvelopeID, &t.AmountMinor, &t.Description, &t.Category, &t.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Transaction{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]storage.Transaction, error) {
	query := `SELECT id, period_id, envelope_id, amount_minor, description, category, date
	          FROM transactions`
	var conds []string
	var args []any
	if filter.PeriodID != nil {
		conds = append(conds, "period_id = ?")
		args = append(args, *filter.PeriodID)
	}
	if filter.EnvelopeID != nil {
		conds = append(conds, "envelope_id = ?")
		args = append(args, *filter.EnvelopeID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date ASC, rowid ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var res []storage.Transaction
	for rows.Next() {
		var t storage.Transaction
		if err := rows.Scan(&t.ID, &t.PeriodID, &t.EnvelopeID, &t.AmountMinor, &t.Description, &t.Category, &t.Date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (storage.Period, error) {
	var p storage.Period
	var start, end string
	err := row.Scan(&p.ID, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Period{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Period{}, fmt.Errorf("scan period: %w", err)
	}
	if p.StartDate, err = time.Parse(time.DateOnly, start); err != nil {
		return storage.Period{}, fmt.Errorf("parse period start %q: %w", start, err)
	}
	if p.EndDate, err = time.Parse(time.DateOnly, end); err != nil {
		return storage.Period{}, fmt.Errorf("parse period end %q: %w", end, err)
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
