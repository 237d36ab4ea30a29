package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"zeus/internal/core"
)

const (
	maxFormBytes = 1 << 20
	maxTextLen   = 10000
	maxFieldLen  = 200
	maxRows      = 500
)

// ValidationError is reported to the user as 422.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return invalid("form", "formulário inválido")
	}
	return nil
}

// parseMonth reads the month from the form or query. A missing value means
// the current month.
func (s *Server) parseMonth(r *http.Request) (core.Month, error) {
	raw := strings.TrimSpace(r.FormValue("month"))
	if raw == "" {
		return core.MonthOf(s.now()), nil
	}
	m, err := core.ParseMonth(raw)
	if err != nil {
		return 0, invalid("month", "mês inválido")
	}
	return m, nil
}

func parseAmountField(r *http.Request, field string) (decimal.Decimal, error) {
	v, err := core.ParseAmount(r.FormValue(field))
	if err != nil {
		return decimal.Zero, invalid(field, "informe um valor numérico não negativo")
	}
	return v, nil
}

// parseExpenseRows reads the expense table from parallel category, item and
// amount fields. Fully blank rows are dropped; a blank amount counts as zero.
func parseExpenseRows(r *http.Request) ([]core.ExpenseEntry, error) {
	categories := r.PostForm["category"]
	items := r.PostForm["item"]
	amounts := r.PostForm["amount"]

	if len(categories) != len(items) || len(items) != len(amounts) {
		return nil, invalid("expenses", "linhas da tabela incompletas")
	}
	if len(categories) > maxRows {
		return nil, invalid("expenses", fmt.Sprintf("no máximo %d linhas", maxRows))
	}

	entries := make([]core.ExpenseEntry, 0, len(categories))
	for i := range categories {
		category := sanitizeInput(categories[i], maxFieldLen)
		item := sanitizeInput(items[i], maxFieldLen)
		rawAmount := strings.TrimSpace(amounts[i])

		if category == "" && item == "" && rawAmount == "" {
			continue
		}

		amount := decimal.Zero
		if rawAmount != "" {
			v, err := core.ParseAmount(rawAmount)
			if err != nil {
				return nil, invalid("amount", fmt.Sprintf("valor inválido na linha %d", i+1))
			}
			amount = v
		}
		entries = append(entries, core.ExpenseEntry{Category: category, Item: item, Amount: amount})
	}
	return entries, nil
}

func parseText(r *http.Request, field string) string {
	return sanitizeText(r.FormValue(field), maxTextLen)
}

// sanitizeInput trims, drops control characters and caps single-line fields.
// Text is NFC-normalised so "ção" typed either way groups as one category.
func sanitizeInput(s string, maxLen int) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	return truncate(norm.NFC.String(strings.TrimSpace(s)), maxLen)
}

// sanitizeText is sanitizeInput for multi-line text; tabs and line breaks survive.
func sanitizeText(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if (r < 32 && r != '\t' && r != '\n') || r == 127 {
			return -1
		}
		return r
	}, s)
	return truncate(norm.NFC.String(s), maxLen)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return s
}

func asValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
