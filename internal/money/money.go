package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. Prices and totals must reconcile to
// the cent across arbitrarily many add/remove cycles, so this never goes
// through float64.
type Money struct {
	d decimal.Decimal
}

// ParseError reports malformed numeric input. The caller is expected to
// keep its previous valid value instead of propagating a wrong number.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("money: cannot parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func Zero() Money { return Money{} }

func FromInt(n int64) Money { return Money{d: decimal.NewFromInt(n)} }

// Parse accepts plain decimal text ("50.50"). Comma is tolerated as the
// decimal separator since the entry forms historically accepted both.
func Parse(s string) (Money, error) {
	t := strings.TrimSpace(s)
	t = strings.ReplaceAll(t, ",", ".")
	d, err := decimal.NewFromString(t)
	if err != nil {
		return Money{}, &ParseError{Input: s, Err: err}
	}
	return Money{d: d}, nil
}

// MustParse is for literals in tests and seeds.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// MulInt scales a unit price by a line-item count.
func (m Money) MulInt(n int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(n)))}
}

// Cmp returns -1, 0 or 1. Ordering is total and exact.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) IsZero() bool { return m.d.IsZero() }

// String renders with two decimal places, the display and invoice format.
func (m Money) String() string { return m.d.StringFixed(2) }

// Decimal exposes the underlying value for storage drivers.
func (m Money) Decimal() decimal.Decimal { return m.d }

func FromDecimal(d decimal.Decimal) Money { return Money{d: d} }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.d.StringFixed(2) + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return &ParseError{Input: s, Err: err}
	}
	m.d = d
	return nil
}
