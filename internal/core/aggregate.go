package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	SeriesIncome  = "Receita"
	SeriesExpense = "Gasto"

	uncategorized = "Sem categoria"
)

type (
	// MonthSummary gathers the figures shown on the dashboard metrics row.
	MonthSummary struct {
		Month     Month
		Income    decimal.Decimal
		Expenses  decimal.Decimal
		Savings   decimal.Decimal
		Remaining decimal.Decimal
		Deficit   bool
	}

	// ComparisonPoint is one row of the long-form income vs expense table.
	ComparisonPoint struct {
		Month Month
		Type  string
		Value decimal.Decimal
	}

	CategoryAmount struct {
		Category string
		Value    decimal.Decimal
	}
)

func TotalIncome(st *State, m Month) decimal.Decimal {
	return st.Ledger(m).Income
}

// TotalExpenses sums the month's expense amounts; an empty table sums to zero.
func TotalExpenses(st *State, m Month) decimal.Decimal {
	total := decimal.Zero
	for _, e := range st.Ledger(m).Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func SavingsBalance(st *State, m Month) decimal.Decimal {
	return st.Ledger(m).Savings
}

// RemainingBalance is income minus expenses minus savings. Negative means deficit.
func RemainingBalance(st *State, m Month) decimal.Decimal {
	return TotalIncome(st, m).Sub(TotalExpenses(st, m)).Sub(SavingsBalance(st, m))
}

func TotalSavingsAccumulated(st *State) decimal.Decimal {
	total := decimal.Zero
	for _, m := range Months() {
		total = total.Add(SavingsBalance(st, m))
	}
	return total
}

// GoalProgress is accumulated savings over the goal, clamped to [0, 1].
// A goal of zero or less yields 0.
func GoalProgress(st *State) float64 {
	if !st.SavingsGoal.IsPositive() {
		return 0
	}
	p := TotalSavingsAccumulated(st).Div(st.SavingsGoal).InexactFloat64()
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func Summarize(st *State, m Month) MonthSummary {
	remaining := RemainingBalance(st, m)
	return MonthSummary{
		Month:     m,
		Income:    TotalIncome(st, m),
		Expenses:  TotalExpenses(st, m),
		Savings:   SavingsBalance(st, m),
		Remaining: remaining,
		Deficit:   remaining.IsNegative(),
	}
}

// ComparisonSeries lists income and expenses for every month in calendar order.
func ComparisonSeries(st *State) []ComparisonPoint {
	points := make([]ComparisonPoint, 0, 24)
	for _, m := range Months() {
		points = append(points,
			ComparisonPoint{Month: m, Type: SeriesIncome, Value: TotalIncome(st, m)},
			ComparisonPoint{Month: m, Type: SeriesExpense, Value: TotalExpenses(st, m)},
		)
	}
	return points
}

// CategoryBreakdown sums the month's expenses per category in first-seen order.
func CategoryBreakdown(st *State, m Month) []CategoryAmount {
	var out []CategoryAmount
	index := map[string]int{}
	for _, e := range st.Ledger(m).Expenses {
		name := strings.TrimSpace(e.Category)
		if name == "" {
			name = uncategorized
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryAmount{Category: name, Value: decimal.Zero})
		}
		out[i].Value = out[i].Value.Add(e.Amount)
	}
	return out
}
