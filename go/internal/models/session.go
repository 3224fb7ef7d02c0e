package models

import (
	"github.com/shopspring/decimal"
)

// Session is the local user, resolved once at startup and passed down.
type Session struct {
	InstanceID  string
	UserID      string
	DisplayName string
	Role        Role
	Balance     decimal.NullDecimal
}

// JoinPrompt is what a room view offers the local user on mount.
type JoinPrompt string

const (
	JoinPromptNone    JoinPrompt = "none"
	JoinPromptLogin   JoinPrompt = "login"
	JoinPromptTopUp   JoinPrompt = "top_up"
	JoinPromptConfirm JoinPrompt = "confirm"
)

// JoinPromptFor picks the mount-time prompt for a room with the given entry value.
func (s Session) JoinPromptFor(entry decimal.Decimal, participating bool) JoinPrompt {
	if s.Role == RoleGuest {
		return JoinPromptLogin
	}
	if participating {
		return JoinPromptNone
	}
	if !s.Balance.Valid || s.Balance.Decimal.LessThan(entry) {
		return JoinPromptTopUp
	}
	return JoinPromptConfirm
}
