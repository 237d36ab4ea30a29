// Package sheets mirrors the yearly ledger summary into a spreadsheet.
package sheets

import (
	"context"

	"github.com/shopspring/decimal"

	"zeus/internal/core"
)

// Header is the first row written above the monthly summary.
var Header = []string{"Mês", "Receita", "Gastos", "Cofrinho", "Saldo"}

type (
	SummaryRow struct {
		Month     string
		Income    decimal.Decimal
		Expenses  decimal.Decimal
		Savings   decimal.Decimal
		Remaining decimal.Decimal
	}

	// SummaryWriter replaces the spreadsheet summary with rows and returns
	// the range it wrote.
	SummaryWriter interface {
		WriteSummary(ctx context.Context, rows []SummaryRow) (string, error)
	}
)

// SummaryRows builds one row per month in calendar order.
func SummaryRows(st *core.State) []SummaryRow {
	rows := make([]SummaryRow, 0, 12)
	for _, m := range core.Months() {
		s := core.Summarize(st, m)
		rows = append(rows, SummaryRow{
			Month:     m.String(),
			Income:    s.Income,
			Expenses:  s.Expenses,
			Savings:   s.Savings,
			Remaining: s.Remaining,
		})
	}
	return rows
}
