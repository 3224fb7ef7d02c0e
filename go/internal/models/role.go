package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of session roles.
type Role int

const (
	RoleGuest Role = iota
	RolePlayer
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "guest"
	case RolePlayer:
		return "player"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole resolves a role name. An empty name is a guest.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "guest":
		return RoleGuest, nil
	case "player", "user":
		return RolePlayer, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleGuest, fmt.Errorf("unknown role %q", s)
	}
}

var (
	ErrLoginRequired  = errors.New("login required")
	ErrNotParticipant = errors.New("only participants can chat in this room")
)

// CheckSendChat returns nil when the role may post into a room's chat. Admins
// are held to the same participation rule as players.
func (r Role) CheckSendChat(participating bool) error {
	switch r {
	case RoleGuest:
		return ErrLoginRequired
	case RolePlayer, RoleAdmin:
		if !participating {
			return ErrNotParticipant
		}
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrLoginRequired, r)
	}
}

// CanSendChat reports whether the role may post into a room's chat.
func (r Role) CanSendChat(participating bool) bool {
	return r.CheckSendChat(participating) == nil
}

// CanViewParticipants reports whether the full participant list is shown.
func (r Role) CanViewParticipants(participating bool) bool {
	switch r {
	case RoleGuest:
		return false
	case RolePlayer:
		return participating
	case RoleAdmin:
		return true
	default:
		return false
	}
}

// CanConfigureRoom reports whether room settings are available.
func (r Role) CanConfigureRoom() bool {
	switch r {
	case RoleGuest, RolePlayer:
		return false
	case RoleAdmin:
		return true
	default:
		return false
	}
}
