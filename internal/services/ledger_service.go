package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"zeus/internal/core"
	zlog "zeus/internal/log"
	"zeus/internal/metrics"
	"zeus/internal/storage"
)

// Publisher announces successful saves. *amqp.Client implements it.
type Publisher interface {
	PublishLedgerSaved(ctx context.Context, savedAt time.Time) error
}

// LedgerService owns the dashboard state for the life of the process.
// Mutations only change memory; Save persists everything at once.
type LedgerService struct {
	mu        sync.Mutex
	state     *core.State
	store     storage.Store
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *zlog.Logger
	now       func() time.Time
}

// NewLedgerService loads the persisted state, falling back to the defaults
// when nothing was saved yet. Any other load error is returned as is.
func NewLedgerService(ctx context.Context, store storage.Store, publisher Publisher, m *metrics.Metrics) (*LedgerService, error) {
	logger := zlog.FromContext(ctx).WithComponent(zlog.ComponentLedger)

	st, err := store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.InfoContext(ctx, "No saved ledger found, starting from defaults")
		st = core.DefaultState()
	case err != nil:
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	return &LedgerService{
		state:     st,
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Snapshot returns a deep copy that callers may read without locking.
func (s *LedgerService) Snapshot() *core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *LedgerService) SetIncome(ctx context.Context, m core.Month, v decimal.Decimal) {
	s.mu.Lock()
	s.state.SetIncome(m, v)
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Income updated", zlog.NewFields().WithOperation(zlog.OpSetIncome).WithLedger(m.String(), v).ToSlice()...)
}

func (s *LedgerService) SetSavingsGoal(ctx context.Context, v decimal.Decimal) {
	s.mu.Lock()
	s.state.SetSavingsGoal(v)
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Savings goal updated", zlog.FieldOperation, zlog.OpSetGoal, zlog.FieldAmount, v.String())
}

func (s *LedgerService) Deposit(ctx context.Context, m core.Month, amount decimal.Decimal) {
	s.mu.Lock()
	s.state.DepositToSavings(m, amount)
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Savings deposit", zlog.NewFields().WithOperation(zlog.OpDeposit).WithLedger(m.String(), amount).ToSlice()...)
}

// Withdraw takes amount out of the month's savings only when the balance
// covers it, and reports whether it did.
func (s *LedgerService) Withdraw(ctx context.Context, m core.Month, amount decimal.Decimal) bool {
	s.mu.Lock()
	applied := s.state.WithdrawFromSavings(m, amount)
	s.mu.Unlock()

	s.metrics.Withdrawal(applied)
	fields := zlog.NewFields().WithOperation(zlog.OpWithdraw).WithLedger(m.String(), amount)
	if applied {
		s.logger.InfoContext(ctx, "Savings withdrawal", fields.ToSlice()...)
	} else {
		s.logger.InfoContext(ctx, "Savings withdrawal refused, insufficient balance", fields.ToSlice()...)
	}
	return applied
}

func (s *LedgerService) SetNotes(ctx context.Context, text string) {
	s.mu.Lock()
	s.state.SetNotes(text)
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Notes updated", zlog.FieldOperation, zlog.OpSetNotes)
}

func (s *LedgerService) SetReminders(ctx context.Context, text string) {
	s.mu.Lock()
	s.state.SetReminders(text)
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Reminders updated", zlog.FieldOperation, zlog.OpSetReminders)
}

func (s *LedgerService) ReplaceExpenses(ctx context.Context, m core.Month, entries []core.ExpenseEntry) {
	s.mu.Lock()
	s.state.ReplaceExpenses(m, entries)
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Expenses replaced",
		zlog.FieldOperation, zlog.OpReplaceExpenses,
		zlog.FieldMonth, m.String(),
		zlog.FieldRows, len(entries))
}

// Save persists the whole state. A configured publisher is told afterwards;
// publish failures are logged and never fail the save.
func (s *LedgerService) Save(ctx context.Context) error {
	s.mu.Lock()
	err := s.store.Save(ctx, s.state)
	s.mu.Unlock()

	s.metrics.LedgerSaved(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save ledger", zlog.FieldOperation, zlog.OpSave, zlog.FieldError, err)
		return fmt.Errorf("save ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger saved", zlog.FieldOperation, zlog.OpSave)

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerSaved(ctx, s.now()); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish ledger saved message",
				zlog.FieldOperation, zlog.OpPublish, zlog.FieldError, err)
		}
	}
	return nil
}

// Ping reports whether the backing store is reachable, when it can tell.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.store.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
