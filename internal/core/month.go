package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Month is one of the twelve calendar months used as a ledger key.
type Month int

const (
	January Month = iota + 1
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

var monthLabels = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

var ErrInvalidMonth = errors.New("invalid month")

// Months returns all months in calendar order.
func Months() []Month {
	out := make([]Month, 0, len(monthLabels))
	for m := January; m <= December; m++ {
		out = append(out, m)
	}
	return out
}

// String returns the label persisted in the data file.
func (m Month) String() string {
	if !m.Valid() {
		return "Month(" + strconv.Itoa(int(m)) + ")"
	}
	return monthLabels[m-1]
}

func (m Month) Valid() bool {
	return m >= January && m <= December
}

// ParseMonth accepts a month label (case-insensitive) or its number 1-12.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidMonth
	}
	if n, err := strconv.Atoi(s); err == nil {
		if m := Month(n); m.Valid() {
			return m, nil
		}
		return 0, ErrInvalidMonth
	}
	for i, label := range monthLabels {
		if strings.EqualFold(label, s) {
			return Month(i + 1), nil
		}
	}
	return 0, ErrInvalidMonth
}

// MonthOf returns the ledger month in which t falls.
func MonthOf(t time.Time) Month {
	return Month(t.Month())
}
