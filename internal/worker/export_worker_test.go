package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zeus/internal/amqp"
	"zeus/internal/core"
	"zeus/internal/sheets/memory"
	"zeus/internal/storage"
)

func TestExport_NothingSaved(t *testing.T) {
	writer := memory.New()
	w := NewExportWorker(storage.NewMemoryStore(), writer, nil)

	require.NoError(t, w.StartupExport(context.Background()))
	assert.Equal(t, 0, writer.Writes())
}

func TestHandleLedgerSaved_WritesSummary(t *testing.T) {
	st := core.DefaultState()
	st.SetIncome(core.May, decimal.NewFromInt(2500))
	store, err := storage.NewMemoryStoreWith(st)
	require.NoError(t, err)

	writer := memory.New()
	w := NewExportWorker(store, writer, nil)

	msg := amqp.NewLedgerSavedMessage(time.Now())
	require.NoError(t, w.HandleLedgerSaved(context.Background(), msg))

	rows := writer.Rows()
	require.Len(t, rows, 12)
	assert.Equal(t, "Maio", rows[4].Month)
	assert.True(t, decimal.NewFromInt(2500).Equal(rows[4].Income))
}

func TestExport_SkipsUnchangedState(t *testing.T) {
	store, err := storage.NewMemoryStoreWith(core.DefaultState())
	require.NoError(t, err)
	writer := memory.New()
	w := NewExportWorker(store, writer, nil)
	ctx := context.Background()

	require.NoError(t, w.Export(ctx))
	require.NoError(t, w.Export(ctx))
	assert.Equal(t, 1, writer.Writes())

	changed := core.DefaultState()
	changed.DepositToSavings(core.June, decimal.NewFromInt(10))
	require.NoError(t, store.Save(ctx, changed))

	require.NoError(t, w.Export(ctx))
	assert.Equal(t, 2, writer.Writes())
}

func TestExport_WriterFailureIsRetried(t *testing.T) {
	store, err := storage.NewMemoryStoreWith(core.DefaultState())
	require.NoError(t, err)
	writer := memory.New()
	writer.FailWith(errors.New("quota exceeded"))
	w := NewExportWorker(store, writer, nil)

	err = w.Export(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")

	writer.FailWith(nil)
	require.NoError(t, w.Export(context.Background()))
	assert.Equal(t, 1, writer.Writes())
}

func TestExport_StoreFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	store.FailWith(errors.New("boom"))
	w := NewExportWorker(store, memory.New(), nil)

	err := w.Export(context.Background())
	assert.ErrorContains(t, err, "load ledger")
}
