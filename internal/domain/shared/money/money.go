package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("money: invalid amount")

// Amount is a monetary value in the ledger's single, implicit currency (TRY).
type Amount = decimal.Decimal

var (
	Zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// Symbol is prefixed to formatted amounts.
const Symbol = "₺"

// FromInt builds a whole amount.
func FromInt(v int64) Amount {
	return decimal.NewFromInt(v)
}

// FromFloat converts a wire float; values come from JSON so they are finite.
func FromFloat(v float64) Amount {
	return decimal.NewFromFloat(v)
}

// Parse reads amounts the way operators type them: "4500", "4500.50" or "4500,50".
func Parse(raw string) (Amount, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if !strings.Contains(value, ".") {
		value = strings.Replace(value, ",", ".", 1)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, nil
}

// Percent returns rate percent of a, i.e. a * rate / 100.
func Percent(a Amount, rate decimal.Decimal) Amount {
	return a.Mul(rate).Div(hundred)
}

// Sum adds every amount.
func Sum(values ...Amount) Amount {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Float is the wire representation consumed by the spreadsheet and the UI.
func Float(a Amount) float64 {
	return a.InexactFloat64()
}

// Format renders a rounded amount with Turkish digit grouping, e.g. ₺22.500.
func Format(a Amount) string {
	rounded := a.Round(0).IntPart()
	neg := rounded < 0
	if neg {
		rounded = -rounded
	}
	digits := fmt.Sprintf("%d", rounded)

	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3 + 4)
	if neg {
		b.WriteString("-")
	}
	b.WriteString(Symbol)
	rem := len(digits) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(digits[:rem])
	for i := rem; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
