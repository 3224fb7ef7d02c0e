package models

import (
	"github.com/shopspring/decimal"
)

// RoomStatus defines the status of a room.
type RoomStatus string

const (
	RoomStatusOpen     RoomStatus = "OPEN"
	RoomStatusResolved RoomStatus = "RESOLVED"
)

// Room is the header of a mounted room: its terms and where it stands.
// Membership lives in the participant reconciler, not here.
type Room struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Path             string          `json:"path,omitempty"`
	Capacity         int             `json:"capacity"`
	EntryValue       decimal.Decimal `json:"entry_value"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"` // 0-100
	Round            int             `json:"round"`
	Status           RoomStatus      `json:"status"`
}

// RoomSnapshot is the server's view of a room at load time.
type RoomSnapshot struct {
	Room
	ConfirmedParticipants    []Participant `json:"confirmed_participants"`
	ConfirmedCount           int           `json:"confirmed_count"`
	IsLocalUserParticipating bool          `json:"is_local_user_participating"`
}
