package sqlutil

import "testing"

func TestNullString(t *testing.T) {
	tests := []struct {
		in        string
		wantValid bool
	}{
		{"", false},
		{"   ", false},
		{"Sala 12", true},
	}
	for _, tt := range tests {
		got := NullString(tt.in)
		if got.Valid != tt.wantValid || (got.Valid && got.String != tt.in) {
			t.Errorf("NullString(%q) = %+v", tt.in, got)
		}
	}
}
