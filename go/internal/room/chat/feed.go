// Package chat keeps a room's chat transcript free of duplicates and decides
// when a new message deserves an audible cue.
package chat

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/salapix/go/internal/models"
)

// Feed merges the historical transcript with live and locally sent messages.
// The message id is the dedup key across all three sources. Order is the
// order in which ids were first seen, with the historical page in front; the
// feed never re-sorts by timestamp.
//
// A Feed is owned by a single room view and is not safe for concurrent use.
type Feed struct {
	historical []models.ChatMessage
	appended   []models.ChatMessage
	ids        map[string]struct{}
	seeded     bool
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{ids: make(map[string]struct{})}
}

// AppendHistorical seeds the feed with the chronological history page. Only
// the first call has an effect. A message already delivered live keeps its id
// but moves to its historical position. It returns how many messages were added.
func (f *Feed) AppendHistorical(messages []models.ChatMessage) int {
	if f.seeded {
		return 0
	}
	f.seeded = true

	seen := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		m.ID = id
		m.Provenance = models.MessageHistorical
		f.historical = append(f.historical, m)
	}

	added := len(f.historical)
	if len(f.appended) > 0 {
		kept := f.appended[:0]
		for _, m := range f.appended {
			if _, inHistory := seen[m.ID]; inHistory {
				added--
				continue
			}
			kept = append(kept, m)
		}
		f.appended = kept
	}
	for id := range seen {
		f.ids[id] = struct{}{}
	}
	return added
}

// AppendLive appends a message delivered by the push channel unless its id is
// already in the feed. It reports whether the feed grew.
func (f *Feed) AppendLive(m models.ChatMessage) bool {
	m.Provenance = models.MessageLive
	return f.append(m)
}

// AppendLocal appends the server echo of a message the local user just sent.
// The echoed id becomes the dedup key, so a later live delivery of the same
// message is dropped.
func (f *Feed) AppendLocal(echo models.ChatMessage) bool {
	echo.Provenance = models.MessageLocal
	return f.append(echo)
}

func (f *Feed) append(m models.ChatMessage) bool {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return false
	}
	if _, ok := f.ids[m.ID]; ok {
		log.Debug().Str("message_id", m.ID).Str("provenance", string(m.Provenance)).Msg("duplicate chat message, ignoring")
		return false
	}
	f.ids[m.ID] = struct{}{}
	f.appended = append(f.appended, m)
	return true
}

// Seeded reports whether the history page has been applied.
func (f *Feed) Seeded() bool {
	return f.seeded
}

// Len is the number of messages in the feed.
func (f *Feed) Len() int {
	return len(f.historical) + len(f.appended)
}

// Messages returns a copy of the feed in display order.
func (f *Feed) Messages() []models.ChatMessage {
	out := make([]models.ChatMessage, 0, f.Len())
	out = append(out, f.historical...)
	return append(out, f.appended...)
}
