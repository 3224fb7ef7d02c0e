package models

import "time"

// DrawOutcome is the result of a room's draw. It is written once.
type DrawOutcome struct {
	WinnerName string    `json:"winner_name"`
	ResolvedAt time.Time `json:"resolved_at"`
}
