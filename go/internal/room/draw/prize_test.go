package draw

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTermsPrize(t *testing.T) {
	tests := []struct {
		name       string
		entry      string
		capacity   int
		pct        string
		prize      string
		multiplier string
	}{
		{"reference room", "2.00", 100, "80", "160", "80"},
		{"odd figures", "5.50", 7, "90", "34.65", "6.3"},
		{"zero entry", "0", 10, "80", "0", "0"},
		{"no profit share", "10", 10, "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := Terms{
				EntryValue:       decimal.RequireFromString(tt.entry),
				Capacity:         tt.capacity,
				ProfitPercentage: decimal.RequireFromString(tt.pct),
			}
			if got := terms.Prize(); !got.Equal(decimal.RequireFromString(tt.prize)) {
				t.Errorf("Prize() = %s, want %s", got, tt.prize)
			}
			if got := terms.ReturnMultiplier(); !got.Equal(decimal.RequireFromString(tt.multiplier)) {
				t.Errorf("ReturnMultiplier() = %s, want %s", got, tt.multiplier)
			}
		})
	}
}

func TestReferenceRoomDisplay(t *testing.T) {
	terms := Terms{
		EntryValue:       decimal.RequireFromString("2.00"),
		Capacity:         100,
		ProfitPercentage: decimal.NewFromInt(80),
	}
	if got := terms.Prize().StringFixed(2); got != "160.00" {
		t.Errorf("prize = %s, want 160.00", got)
	}
	if got := terms.ReturnMultiplier().StringFixed(1); got != "80.0" {
		t.Errorf("multiplier = %s, want 80.0", got)
	}
}

func TestFillFigures(t *testing.T) {
	if got := FillPercent(25, 100); got != 25 {
		t.Errorf("FillPercent = %v", got)
	}
	if got := FillPercent(3, 0); got != 0 {
		t.Errorf("FillPercent with zero capacity = %v", got)
	}
	if got := Remaining(12, 10); got != 0 {
		t.Errorf("Remaining over capacity = %d", got)
	}
	if got := Remaining(4, 10); got != 6 {
		t.Errorf("Remaining = %d", got)
	}
	if !IsFull(10, 10) || IsFull(9, 10) || IsFull(0, 0) {
		t.Error("IsFull mismatch")
	}
}
