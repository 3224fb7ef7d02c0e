package models

import "time"

// Provenance tells where a participant record came from.
type Provenance string

const (
	ProvenanceConfirmed   Provenance = "confirmed"
	ProvenanceSpeculative Provenance = "speculative"
)

// Participant is a user who has paid to join a room.
type Participant struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	JoinedAt    time.Time  `json:"joined_at"`
	Provenance  Provenance `json:"provenance"`
}
