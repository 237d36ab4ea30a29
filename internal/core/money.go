package core

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// MaxIntegerDigits bounds accepted amounts below one trillion reais.
const MaxIntegerDigits = 12

var (
	plainAmount   = regexp.MustCompile(`^\d{1,12}([.,]\d{1,2})?$`)
	groupedAmount = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d{1,2})?$`)
)

// ParseAmount converts user input to a non-negative amount with at most two
// decimal places and twelve integer digits.
//
// "12.34" and "12,34" are both 12.34. A dot followed by exactly three digits
// groups thousands, so "1.234" is 1234 and "1.234,56" is 1234.56. Signs,
// exponents and other notations are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)

	switch {
	case groupedAmount.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		if intPart, _, _ := strings.Cut(s, ","); len(intPart) > MaxIntegerDigits {
			return decimal.Zero, ErrInvalidAmount
		}
	case plainAmount.MatchString(s):
	default:
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatBRL renders an amount as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString("R$ ")
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
