package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"envelopes/internal/amqp"
	"envelopes/internal/core"
	"envelopes/internal/export"
	"envelopes/internal/storage"
)

// ExportWorker appends recorded transactions to the ledger export.
type ExportWorker struct {
	repo   storage.Repository
	writer export.LedgerWriter
}

func NewExportWorker(repo storage.Repository, writer export.LedgerWriter) *ExportWorker {
	return &ExportWorker{
		repo:   repo,
		writer: writer,
	}
}

// HandleTransactionRecorded loads the transaction behind a queue message and
// appends it as one export row.
func (w *ExportWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing transaction recorded message", "id", msg.ID)

	tx, err := w.repo.GetTransaction(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// The row was deleted or never committed. Requeueing cannot help.
		slog.WarnContext(ctx, "Transaction not found, skipping export", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	envelopeName := ""
	env, err := w.repo.GetEnvelope(ctx, tx.EnvelopeID)
	switch {
	case err == nil:
		envelopeName = env.Name
	case errors.Is(err, storage.ErrNotFound):
		slog.WarnContext(ctx, "Envelope not found for transaction", "id", msg.ID, "envelope_id", tx.EnvelopeID)
	default:
		return fmt.Errorf("get envelope from storage: %w", err)
	}

	rec := export.Record{
		TransactionID: tx.ID,
		PeriodID:      tx.PeriodID,
		EnvelopeID:    tx.EnvelopeID,
		EnvelopeName:  envelopeName,
		Date:          tx.Date,
		Description:   tx.Description,
		Amount:        core.FormatMinor(tx.AmountMinor),
	}
	if err := w.writer.Append(ctx, rec); err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", tx.ID,
		"envelope", envelopeName,
		"amount_minor", tx.AmountMinor)

	return nil
}

// Run consumes the queue until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeTransactionRecorded(ctx, func(msg *amqp.TransactionRecordedMessage) error {
		return w.HandleTransactionRecorded(ctx, msg)
	})
}
