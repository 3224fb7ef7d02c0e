package draw

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Terms are the room figures the prize is computed from.
type Terms struct {
	EntryValue       decimal.Decimal
	Capacity         int
	ProfitPercentage decimal.Decimal
}

// Prize is entryValue × capacity × profitPercentage/100.
func (t Terms) Prize() decimal.Decimal {
	return t.EntryValue.
		Mul(decimal.NewFromInt(int64(t.Capacity))).
		Mul(t.ProfitPercentage).
		Div(hundred)
}

// ReturnMultiplier is prize / entryValue, rounded to one decimal place.
// A zero entry value yields zero.
func (t Terms) ReturnMultiplier() decimal.Decimal {
	if t.EntryValue.IsZero() {
		return decimal.Zero
	}
	return t.Prize().Div(t.EntryValue).Round(1)
}

// FillPercent is the share of capacity taken, in percent. It is not capped at
// 100 because speculative arrivals can push the count past capacity.
func FillPercent(count, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(count) / float64(capacity) * 100
}

// Remaining is the number of open slots, floored at zero.
func Remaining(count, capacity int) int {
	if count >= capacity {
		return 0
	}
	return capacity - count
}

// IsFull reports whether the room has reached capacity.
func IsFull(count, capacity int) bool {
	return capacity > 0 && count >= capacity
}
