package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"zeus/internal/core"
)

// Top-level keys of the persisted record.
const (
	keyIncome    = "receitas"
	keySavings   = "cofrinho"
	keyNotes     = "mural"
	keyReminders = "lembretes"
	keyGoal      = "meta_cofrinho"
	keyExpenses  = "gastos"
)

var requiredKeys = []string{keyIncome, keySavings, keyNotes, keyReminders, keyExpenses}

type (
	record struct {
		Receitas     byMonth[number]       `json:"receitas"`
		Cofrinho     byMonth[number]       `json:"cofrinho"`
		Mural        string                `json:"mural"`
		Lembretes    string                `json:"lembretes"`
		MetaCofrinho *number               `json:"meta_cofrinho,omitempty"`
		Gastos       byMonth[expenseTable] `json:"gastos"`
	}

	// expenseTable is the column-oriented form of a month's expenses.
	expenseTable struct {
		Categoria column[string] `json:"Categoria"`
		Item      column[string] `json:"Item"`
		Valor     column[number] `json:"Valor"`
	}

	// number writes a decimal as a bare JSON number.
	number decimal.Decimal

	// byMonth is a month-keyed object written in calendar order.
	byMonth[T any] [12]T

	// column reads either an array or a pandas-style {"0": v, "1": v} object.
	column[T any] []T
)

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

// Stored amounts beyond these bounds are rejected before any arithmetic
// touches them.
const (
	maxStoredDigits   = 18
	minStoredExponent = -12
)

// UnmarshalJSON reads null as zero; legacy files write blank cells that way
// once NaN is normalised.
func (n *number) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*n = number(decimal.Zero)
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	if d.Exponent() < minStoredExponent || d.NumDigits()+int(d.Exponent()) > maxStoredDigits {
		return fmt.Errorf("amount %s out of range", data)
	}
	*n = number(d)
	return nil
}

func (b byMonth[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range core.Months() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalPlain(m.String())
		if err != nil {
			return nil, err
		}
		val, err := marshalPlain(b[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON wants the exact persisted labels. Duplicate and null
// months are errors.
func (b *byMonth[T]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil {
		return err
	} else if tok != json.Delim('{') {
		return fmt.Errorf("month map must be an object, got %v", tok)
	}

	var seen [12]bool
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := tok.(string)
		m, ok := monthByLabel(label)
		if !ok {
			return fmt.Errorf("unknown month %q", label)
		}
		if seen[m-1] {
			return fmt.Errorf("duplicate month %q", label)
		}
		seen[m-1] = true

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if string(bytes.TrimSpace(raw)) == "null" {
			return fmt.Errorf("month %q is null", label)
		}
		if err := json.Unmarshal(raw, &b[m-1]); err != nil {
			return fmt.Errorf("month %q: %w", label, err)
		}
	}
	_, err := dec.Token()
	return err
}

func monthByLabel(label string) (core.Month, bool) {
	for _, m := range core.Months() {
		if m.String() == label {
			return m, true
		}
	}
	return 0, false
}

func (c column[T]) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return marshalPlain([]T(c))
}

func (c *column[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		var values []T
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*c = values
		return nil
	}

	var byIndex map[string]T
	if err := json.Unmarshal(data, &byIndex); err != nil {
		return err
	}
	type row struct {
		index int
		value T
	}
	rows := make([]row, 0, len(byIndex))
	for k, v := range byIndex {
		i, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("row index %q is not a number", k)
		}
		rows = append(rows, row{index: i, value: v})
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].index < rows[b].index })
	values := make([]T, len(rows))
	for i, r := range rows {
		values[i] = r.value
	}
	*c = values
	return nil
}

// marshalPlain encodes v without HTML escaping so accents and symbols stay readable.
func marshalPlain(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeState renders st as the pretty-printed UTF-8 record.
func encodeState(st *core.State) ([]byte, error) {
	rec := record{
		Mural:     st.Notes,
		Lembretes: st.Reminders,
	}
	goal := number(st.SavingsGoal)
	rec.MetaCofrinho = &goal

	for i, l := range st.Ledgers {
		rec.Receitas[i] = number(l.Income)
		rec.Cofrinho[i] = number(l.Savings)
		table := expenseTable{
			Categoria: make(column[string], 0, len(l.Expenses)),
			Item:      make(column[string], 0, len(l.Expenses)),
			Valor:     make(column[number], 0, len(l.Expenses)),
		}
		for _, e := range l.Expenses {
			table.Categoria = append(table.Categoria, e.Category)
			table.Item = append(table.Item, e.Item)
			table.Valor = append(table.Valor, number(e.Amount))
		}
		rec.Gastos[i] = table
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode ledger state: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeState parses a record. Every failure is reported as ErrCorrupt.
func decodeState(data []byte) (*core.State, error) {
	data = normalizeNaN(data)
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for _, k := range requiredKeys {
		if raw, ok := keys[k]; !ok || string(bytes.TrimSpace(raw)) == "null" {
			return nil, fmt.Errorf("%w: missing key %q", ErrCorrupt, k)
		}
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	st := core.NewState()
	st.Notes = rec.Mural
	st.Reminders = rec.Lembretes
	if rec.MetaCofrinho != nil {
		st.SavingsGoal = decimal.Decimal(*rec.MetaCofrinho)
	}
	for i, m := range core.Months() {
		l := st.Ledger(m)
		l.Income = decimal.Decimal(rec.Receitas[i])
		l.Savings = decimal.Decimal(rec.Cofrinho[i])

		t := rec.Gastos[i]
		if len(t.Categoria) != len(t.Item) || len(t.Item) != len(t.Valor) {
			return nil, fmt.Errorf("%w: %s expense columns differ in length (%d, %d, %d)",
				ErrCorrupt, m, len(t.Categoria), len(t.Item), len(t.Valor))
		}
		l.Expenses = make([]core.ExpenseEntry, len(t.Valor))
		for j := range t.Valor {
			l.Expenses[j] = core.ExpenseEntry{
				Category: t.Categoria[j],
				Item:     t.Item[j],
				Amount:   decimal.Decimal(t.Valor[j]),
			}
		}
	}
	return st, nil
}

// normalizeNaN rewrites bare NaN tokens outside strings to null. Python's
// json.dump emits NaN for blank table cells.
func normalizeNaN(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) {
		return data
	}
	out := make([]byte, 0, len(data)+8)
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == 'N' && bytes.HasPrefix(data[i:], []byte("NaN")):
			out = append(out, "null"...)
			i += 2
			continue
		}
		out = append(out, c)
	}
	return out
}
