// Package memory is an in-process SummaryWriter for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "zeus/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	rows   []ports.SummaryRow
	writes int
	err    error
}

var _ ports.SummaryWriter = (*Writer)(nil)

func New() *Writer { return &Writer{} }

func (w *Writer) WriteSummary(_ context.Context, rows []ports.SummaryRow) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.rows = append([]ports.SummaryRow(nil), rows...)
	w.writes++
	return fmt.Sprintf("mem!A1:E%d", len(rows)+1), nil
}

// FailWith makes subsequent writes return err; nil restores success.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

// Rows returns a copy of the last written rows.
func (w *Writer) Rows() []ports.SummaryRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ports.SummaryRow(nil), w.rows...)
}

func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
