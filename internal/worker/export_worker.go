// Package worker mirrors saved ledgers to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"zeus/internal/amqp"
	"zeus/internal/core"
	zlog "zeus/internal/log"
	"zeus/internal/sheets"
	"zeus/internal/storage"
)

// ExportWorker reloads the store on every saved notification and rewrites
// the spreadsheet summary. Messages carry no data, so a redelivered or late
// message always exports the current state.
type ExportWorker struct {
	store  storage.Store
	writer sheets.SummaryWriter
	logger *zlog.Logger

	mu   sync.Mutex
	last *core.State
}

func NewExportWorker(store storage.Store, writer sheets.SummaryWriter, logger *zlog.Logger) *ExportWorker {
	if logger == nil {
		logger = zlog.New(zlog.DefaultConfig())
	}
	return &ExportWorker{
		store:  store,
		writer: writer,
		logger: logger.WithComponent(zlog.ComponentWorker),
	}
}

// HandleLedgerSaved is the AMQP handler. A returned error requeues the message.
func (w *ExportWorker) HandleLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger saved message", "id", msg.ID, "saved_at", msg.SavedAt)
	return w.Export(ctx)
}

// StartupExport catches up on saves made while the worker was down.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Running startup export")
	return w.Export(ctx)
}

// Export writes the current summary unless it matches the last export.
func (w *ExportWorker) Export(ctx context.Context) error {
	st, err := w.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.InfoContext(ctx, "Nothing saved yet, skipping export")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.last != nil && w.last.Equal(st) {
		w.logger.DebugContext(ctx, "Ledger unchanged since last export")
		return nil
	}

	rows := sheets.SummaryRows(st)
	rng, err := w.writer.WriteSummary(ctx, rows)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export summary", zlog.FieldOperation, zlog.OpExport, zlog.FieldError, err)
		return fmt.Errorf("write summary: %w", err)
	}
	w.last = st

	w.logger.InfoContext(ctx, "Summary exported",
		zlog.FieldOperation, zlog.OpExport,
		"range", rng,
		zlog.FieldRows, len(rows))
	return nil
}
