package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/salapix/go/internal/models"
)

// ShouldChime reports whether a message should trigger the audible cue. The
// local user's own messages never chime, and neither does anything while muted.
func ShouldChime(m models.ChatMessage, localUserID string, muted bool) bool {
	if muted {
		return false
	}
	return strings.TrimSpace(m.AuthorID) != strings.TrimSpace(localUserID)
}

// Chimer plays the audible cue.
type Chimer interface {
	Chime(ctx context.Context) error
}

// Notifier applies ShouldChime to feed additions and plays the cue off the
// caller's goroutine. Chime failures are logged and swallowed.
type Notifier struct {
	chimer  Chimer
	timeout time.Duration
}

// NewNotifier creates a notifier. A nil chimer disables the cue.
func NewNotifier(chimer Chimer) *Notifier {
	return &Notifier{chimer: chimer, timeout: 2 * time.Second}
}

// Notify chimes for m when the gate allows it and reports whether it did.
func (n *Notifier) Notify(m models.ChatMessage, localUserID string, muted bool) bool {
	if n == nil || n.chimer == nil || !ShouldChime(m, localUserID, muted) {
		return false
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.chimer.Chime(ctx); err != nil {
			log.Debug().Err(err).Str("message_id", m.ID).Msg("chat chime failed")
		}
	}()
	return true
}
