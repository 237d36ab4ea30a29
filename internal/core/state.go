package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultNotes     = "🐾 Bate-papo da família Zeus!"
	DefaultReminders = "COMPRAR GÁS"

	PlaceholderCategory = "Outros"
	PlaceholderItem     = "Exemplo"
)

// DefaultSavingsGoal applies to fresh state and to files that predate the goal field.
var DefaultSavingsGoal = decimal.NewFromInt(1000)

type (
	ExpenseEntry struct {
		Category string
		Item     string
		Amount   decimal.Decimal
	}

	// MonthLedger holds the income, piggy bank balance and expenses of one month.
	MonthLedger struct {
		Income   decimal.Decimal
		Savings  decimal.Decimal
		Expenses []ExpenseEntry
	}

	// State is the whole dashboard data set. Every month always has a ledger.
	State struct {
		Ledgers     [12]MonthLedger
		SavingsGoal decimal.Decimal
		Notes       string
		Reminders   string
	}
)

// NewState returns a state with zeroed ledgers, empty texts and the default goal.
func NewState() *State {
	st := &State{SavingsGoal: DefaultSavingsGoal}
	for i := range st.Ledgers {
		st.Ledgers[i] = MonthLedger{Income: decimal.Zero, Savings: decimal.Zero}
	}
	return st
}

// DefaultState is what the dashboard starts with when nothing was saved yet.
func DefaultState() *State {
	st := NewState()
	for i := range st.Ledgers {
		st.Ledgers[i].Expenses = []ExpenseEntry{{
			Category: PlaceholderCategory,
			Item:     PlaceholderItem,
			Amount:   decimal.Zero,
		}}
	}
	st.Notes = DefaultNotes
	st.Reminders = DefaultReminders
	return st
}

// Ledger returns the ledger of m. m must be valid.
func (s *State) Ledger(m Month) *MonthLedger {
	return &s.Ledgers[m-1]
}

func (s *State) SetIncome(m Month, v decimal.Decimal) {
	s.Ledger(m).Income = v
}

func (s *State) SetSavingsGoal(v decimal.Decimal) {
	s.SavingsGoal = v
}

func (s *State) DepositToSavings(m Month, amount decimal.Decimal) {
	l := s.Ledger(m)
	l.Savings = l.Savings.Add(amount)
}

// WithdrawFromSavings takes amount out of the month's piggy bank only when the
// balance covers it. It reports whether the withdrawal happened.
func (s *State) WithdrawFromSavings(m Month, amount decimal.Decimal) bool {
	l := s.Ledger(m)
	if l.Savings.LessThan(amount) {
		return false
	}
	l.Savings = l.Savings.Sub(amount)
	return true
}

func (s *State) SetNotes(text string) {
	s.Notes = text
}

func (s *State) SetReminders(text string) {
	s.Reminders = text
}

// ReplaceExpenses swaps the whole expense table of m for a copy of entries.
func (s *State) ReplaceExpenses(m Month, entries []ExpenseEntry) {
	s.Ledger(m).Expenses = append([]ExpenseEntry(nil), entries...)
}

// ReminderItems splits the reminders text into its non-blank lines.
func (s *State) ReminderItems() []string {
	var items []string
	for _, line := range strings.Split(s.Reminders, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	for i := range c.Ledgers {
		c.Ledgers[i].Expenses = append([]ExpenseEntry(nil), s.Ledgers[i].Expenses...)
	}
	return &c
}

// Equal compares two states field by field, amounts by value.
func (s *State) Equal(o *State) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Notes != o.Notes || s.Reminders != o.Reminders || !s.SavingsGoal.Equal(o.SavingsGoal) {
		return false
	}
	for i := range s.Ledgers {
		a, b := s.Ledgers[i], o.Ledgers[i]
		if !a.Income.Equal(b.Income) || !a.Savings.Equal(b.Savings) || len(a.Expenses) != len(b.Expenses) {
			return false
		}
		for j := range a.Expenses {
			x, y := a.Expenses[j], b.Expenses[j]
			if x.Category != y.Category || x.Item != y.Item || !x.Amount.Equal(y.Amount) {
				return false
			}
		}
	}
	return true
}
