package view

import (
	"github.com/shopspring/decimal"

	"github.com/mcdev12/salapix/go/internal/models"
	"github.com/mcdev12/salapix/go/internal/room/draw"
)

// DrawState is the draw part of RoomState.
type DrawState struct {
	State       draw.State          `json:"state"`
	Tick        int                 `json:"tick"`
	Highlighted string              `json:"highlighted,omitempty"`
	Outcome     *models.DrawOutcome `json:"outcome,omitempty"`
	Prize       decimal.Decimal     `json:"prize"`
}

// RoomState is an immutable copy of everything a room page renders.
type RoomState struct {
	RoomID  string       `json:"room_id"`
	Mounted bool         `json:"mounted"`
	Room    *models.Room `json:"room,omitempty"`

	SnapshotLoading bool `json:"snapshot_loading"`
	HistoryLoading  bool `json:"history_loading"`
	Live            bool `json:"live"`

	ParticipantCount int             `json:"participant_count"`
	Capacity         int             `json:"capacity"`
	FillPercent      float64         `json:"fill_percent"`
	Remaining        int             `json:"remaining"`
	Full             bool            `json:"full"`
	Prize            decimal.Decimal `json:"prize"`
	ReturnMultiplier decimal.Decimal `json:"return_multiplier"`

	// Participants is nil when the local user may not see the list.
	Participants []models.Participant `json:"participants,omitempty"`
	Messages     []models.ChatMessage `json:"messages"`
	Draw         DrawState            `json:"draw"`
	Notices      []Notice             `json:"notices,omitempty"`

	Muted               bool              `json:"muted"`
	Role                string            `json:"role"`
	Participating       bool              `json:"participating"`
	Prompt              models.JoinPrompt `json:"prompt"`
	CanSendChat         bool              `json:"can_send_chat"`
	CanViewParticipants bool              `json:"can_view_participants"`
	CanConfigureRoom    bool              `json:"can_configure_room"`
}

// State returns a copy of the current view state. It is safe to call from
// any goroutine.
func (v *View) State() RoomState {
	v.mu.RLock()
	defer v.mu.RUnlock()

	role := v.deps.Session.Role
	st := RoomState{
		RoomID:           v.roomID,
		Mounted:          v.mounted,
		Live:             v.live,
		Muted:            v.muted,
		Role:             role.String(),
		CanConfigureRoom: role.CanConfigureRoom(),
		Messages:         []models.ChatMessage{},
		Draw:             DrawState{State: draw.StateIdle},
	}
	if !v.mounted {
		return st
	}

	participating := v.participatingLocked()
	st.SnapshotLoading = !v.snapshotDone
	st.HistoryLoading = !v.historyDone
	st.Participating = participating
	st.CanSendChat = role.CanSendChat(participating)
	st.CanViewParticipants = role.CanViewParticipants(participating)
	st.ParticipantCount = v.reconciler.TotalCount()
	st.Messages = append(st.Messages, v.feed.Messages()...)
	st.Notices = append([]Notice(nil), v.notices...)
	if st.CanViewParticipants {
		st.Participants = v.reconciler.All()
	}

	if v.room != nil {
		room := *v.room
		terms := termsOf(room)
		st.Capacity = room.Capacity
		st.FillPercent = draw.FillPercent(st.ParticipantCount, room.Capacity)
		st.Remaining = draw.Remaining(st.ParticipantCount, room.Capacity)
		st.Full = draw.IsFull(st.ParticipantCount, room.Capacity)
		st.Prize = terms.Prize()
		st.ReturnMultiplier = terms.ReturnMultiplier()
		st.Prompt = v.deps.Session.JoinPromptFor(room.EntryValue, participating)
		st.Room = &room
	}

	if v.seq != nil {
		f := v.seq.Snapshot()
		st.Draw = DrawState{
			State:       f.State,
			Tick:        f.Tick,
			Highlighted: f.Highlighted,
			Outcome:     f.Outcome,
			Prize:       f.Prize,
		}
		if f.State == draw.StateResolved && st.Room != nil {
			st.Room.Status = models.RoomStatusResolved
		}
	}
	if st.Room != nil && st.Room.Status == "" {
		st.Room.Status = models.RoomStatusOpen
	}

	return st
}
