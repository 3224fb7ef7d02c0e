package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"", RoleGuest, false},
		{"guest", RoleGuest, false},
		{"Player", RolePlayer, false},
		{" admin ", RoleAdmin, false},
		{"superuser", RoleGuest, true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRole(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCheckSendChat(t *testing.T) {
	tests := []struct {
		name          string
		role          Role
		participating bool
		want          error
	}{
		{"guest", RoleGuest, true, ErrLoginRequired},
		{"player outside", RolePlayer, false, ErrNotParticipant},
		{"player inside", RolePlayer, true, nil},
		{"admin outside", RoleAdmin, false, ErrNotParticipant},
		{"admin inside", RoleAdmin, true, nil},
		{"unknown role", Role(9), true, ErrLoginRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.role.CheckSendChat(tt.participating)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("CheckSendChat() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("CheckSendChat() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role          Role
		participating bool
		chat          bool
		list          bool
		configure     bool
	}{
		{RoleGuest, false, false, false, false},
		{RoleGuest, true, false, false, false},
		{RolePlayer, false, false, false, false},
		{RolePlayer, true, true, true, false},
		{RoleAdmin, false, false, true, true},
		{RoleAdmin, true, true, true, true},
	}
	for _, tt := range tests {
		if got := tt.role.CanSendChat(tt.participating); got != tt.chat {
			t.Errorf("%v.CanSendChat(%v) = %v", tt.role, tt.participating, got)
		}
		if got := tt.role.CanViewParticipants(tt.participating); got != tt.list {
			t.Errorf("%v.CanViewParticipants(%v) = %v", tt.role, tt.participating, got)
		}
		if got := tt.role.CanConfigureRoom(); got != tt.configure {
			t.Errorf("%v.CanConfigureRoom() = %v", tt.role, got)
		}
	}
}

func TestJoinPromptFor(t *testing.T) {
	entry := decimal.RequireFromString("2.00")
	tests := []struct {
		name          string
		session       Session
		participating bool
		want          JoinPrompt
	}{
		{"guest", Session{Role: RoleGuest}, false, JoinPromptLogin},
		{"already in", Session{Role: RolePlayer}, true, JoinPromptNone},
		{"no balance", Session{Role: RolePlayer}, false, JoinPromptTopUp},
		{"short balance", Session{Role: RolePlayer, Balance: decimal.NewNullDecimal(decimal.RequireFromString("1.99"))}, false, JoinPromptTopUp},
		{"enough", Session{Role: RolePlayer, Balance: decimal.NewNullDecimal(entry)}, false, JoinPromptConfirm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.JoinPromptFor(entry, tt.participating); got != tt.want {
				t.Errorf("JoinPromptFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFlexID(t *testing.T) {
	var payload struct {
		A FlexID `json:"a"`
		B FlexID `json:"b"`
		C FlexID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 42, "b": "u-7", "c": null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.A != "42" || payload.B != "u-7" || payload.C != "" {
		t.Errorf("got %q %q %q", payload.A, payload.B, payload.C)
	}
	if err := json.Unmarshal([]byte(`{"a": {}}`), &payload); err == nil {
		t.Error("expected error for object id")
	}
}

func TestFlexTime(t *testing.T) {
	for _, in := range []string{
		`"2025-03-01T10:00:00Z"`,
		`"2025-03-01T10:00:00.000000Z"`,
		`"2025-03-01 10:00:00"`,
	} {
		var ft FlexTime
		if err := json.Unmarshal([]byte(in), &ft); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if ft.Year() != 2025 || ft.Hour() != 10 {
			t.Errorf("unmarshal %s = %v", in, ft.Time)
		}
	}

	for _, in := range []string{`"yesterday"`, `1740823200`, `null`, `""`} {
		ft := FlexTime{Time: time.Now()}
		if err := json.Unmarshal([]byte(in), &ft); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if !ft.IsZero() {
			t.Errorf("unmarshal %s = %v, want zero time", in, ft.Time)
		}
	}
}
