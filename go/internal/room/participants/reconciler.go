// Package participants merges the server-confirmed member list of a room with
// arrivals learned only from push events.
package participants

import (
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/salapix/go/internal/models"
)

// Reconciler holds the confirmed and speculative participant lists of one
// room view. Confirmed members are set once from the snapshot; speculative
// members are append-only. Arrivals recorded before the snapshot loads stay
// buffered and are reconciled against confirmed membership at read time.
//
// A Reconciler is owned by a single room view and is not safe for concurrent use.
type Reconciler struct {
	clock clockwork.Clock

	confirmed    []models.Participant
	confirmedIDs map[string]struct{}
	loaded       bool

	speculative    []models.Participant
	speculativeIDs map[string]struct{}
}

// NewReconciler creates an empty reconciler. A nil clock uses the real clock.
func NewReconciler(clock clockwork.Clock) *Reconciler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reconciler{
		clock:          clock,
		confirmedIDs:   make(map[string]struct{}),
		speculativeIDs: make(map[string]struct{}),
	}
}

// SetConfirmed installs the snapshot's participant list. Confirmed members are
// immutable for the life of the view, so only the first call has an effect.
func (r *Reconciler) SetConfirmed(list []models.Participant) bool {
	if r.loaded {
		return false
	}
	r.loaded = true
	r.confirmed = make([]models.Participant, 0, len(list))
	for _, p := range list {
		id := strings.TrimSpace(p.UserID)
		if id == "" {
			continue
		}
		if _, dup := r.confirmedIDs[id]; dup {
			continue
		}
		p.UserID = id
		p.Provenance = models.ProvenanceConfirmed
		r.confirmedIDs[id] = struct{}{}
		r.confirmed = append(r.confirmed, p)
	}
	return true
}

// Loaded reports whether the confirmed list has been installed.
func (r *Reconciler) Loaded() bool {
	return r.loaded
}

// RecordArrival appends a speculative participant unless the id is already
// known in either list. It reports whether the list grew.
func (r *Reconciler) RecordArrival(participantID, displayName string) bool {
	id := strings.TrimSpace(participantID)
	if id == "" {
		return false
	}
	if _, ok := r.confirmedIDs[id]; ok {
		log.Debug().Str("participant_id", id).Msg("arrival already confirmed, ignoring")
		return false
	}
	if _, ok := r.speculativeIDs[id]; ok {
		log.Debug().Str("participant_id", id).Msg("duplicate arrival, ignoring")
		return false
	}

	r.speculativeIDs[id] = struct{}{}
	r.speculative = append(r.speculative, models.Participant{
		UserID:      id,
		DisplayName: displayName,
		JoinedAt:    r.clock.Now(),
		Provenance:  models.ProvenanceSpeculative,
	})
	return true
}

// Contains reports whether the id is a member in either list.
func (r *Reconciler) Contains(participantID string) bool {
	id := strings.TrimSpace(participantID)
	if _, ok := r.confirmedIDs[id]; ok {
		return true
	}
	_, ok := r.speculativeIDs[id]
	return ok
}

// Confirmed returns a copy of the confirmed list.
func (r *Reconciler) Confirmed() []models.Participant {
	out := make([]models.Participant, len(r.confirmed))
	copy(out, r.confirmed)
	return out
}

// Speculative returns the speculative arrivals that the confirmed list does
// not already account for.
func (r *Reconciler) Speculative() []models.Participant {
	out := make([]models.Participant, 0, len(r.speculative))
	for _, p := range r.speculative {
		if _, ok := r.confirmedIDs[p.UserID]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

// All returns confirmed participants followed by reconciled speculative ones.
func (r *Reconciler) All() []models.Participant {
	return append(r.Confirmed(), r.Speculative()...)
}

// TotalCount is the number of confirmed plus reconciled speculative participants.
func (r *Reconciler) TotalCount() int {
	return len(r.confirmed) + len(r.Speculative())
}
