package models

import "time"

// MessageProvenance tells how a chat message reached the feed.
type MessageProvenance string

const (
	MessageHistorical MessageProvenance = "historical"
	MessageLive       MessageProvenance = "live"
	MessageLocal      MessageProvenance = "local"
)

// ChatMessage is one entry of a room's chat transcript.
type ChatMessage struct {
	ID         string            `json:"id"`
	AuthorID   string            `json:"author_id"`
	AuthorName string            `json:"author_name"`
	Body       string            `json:"body"`
	CreatedAt  time.Time         `json:"created_at"`
	Provenance MessageProvenance `json:"provenance"`
}
