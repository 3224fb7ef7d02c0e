package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/salapix/go/internal/models"
)

var (
	// ErrMalformedPayload is returned when an event body cannot be decoded or
	// lacks its dedup key.
	ErrMalformedPayload = errors.New("malformed event payload")
	// ErrUnknownEvent is returned for event names this package does not handle.
	ErrUnknownEvent = errors.New("unknown event")
)

// EventType is the broadcast name of a room event.
type EventType string

const (
	EventParticipantArrived EventType = "novo_participante"
	EventMessagePosted      EventType = "chat_nova_mensagem"
	EventDrawResolved       EventType = "sala_sorteada"
)

// ParticipantArrived is pushed when someone joins the room.
type ParticipantArrived struct {
	ParticipantID string
	DisplayName   string
}

// MessagePosted is pushed for every chat message.
type MessagePosted struct {
	ID         string
	Body       string
	AuthorID   string
	AuthorName string
	CreatedAt  time.Time
}

// DrawResolved is pushed once the room's winner is chosen.
type DrawResolved struct {
	WinnerDisplayName string
}

// Handlers are the callbacks a subscription delivers to. Nil handlers are skipped.
type Handlers struct {
	OnParticipantArrived func(ParticipantArrived)
	OnMessagePosted      func(MessagePosted)
	OnDrawResolved       func(DrawResolved)
}

type participantArrivedPayload struct {
	Participante   string        `json:"participante"`
	ParticipanteID models.FlexID `json:"participante_id"`
}

type messagePostedPayload struct {
	ID       models.FlexID   `json:"id"`
	Mensagem string          `json:"mensagem"`
	UserID   models.FlexID   `json:"user_id"`
	UserNome string          `json:"user_nome"`
	Data     models.FlexTime `json:"data"`
}

type drawResolvedPayload struct {
	UsuarioVencedor string `json:"usuario_vencedor"`
}

// NormalizeEventName strips the leading dot used by namespace-less listeners.
func NormalizeEventName(name string) EventType {
	return EventType(strings.TrimPrefix(strings.TrimSpace(name), "."))
}

// Dispatch decodes one raw event and hands it to the matching handler.
func Dispatch(name string, data []byte, h Handlers) error {
	switch NormalizeEventName(name) {
	case EventParticipantArrived:
		var p participantArrivedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, EventParticipantArrived, err)
		}
		if p.ParticipanteID == "" {
			return fmt.Errorf("%w: %s: missing participante_id", ErrMalformedPayload, EventParticipantArrived)
		}
		if h.OnParticipantArrived != nil {
			h.OnParticipantArrived(ParticipantArrived{
				ParticipantID: p.ParticipanteID.String(),
				DisplayName:   p.Participante,
			})
		}

	case EventMessagePosted:
		var p messagePostedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, EventMessagePosted, err)
		}
		if p.ID == "" {
			return fmt.Errorf("%w: %s: missing id", ErrMalformedPayload, EventMessagePosted)
		}
		if h.OnMessagePosted != nil {
			h.OnMessagePosted(MessagePosted{
				ID:         p.ID.String(),
				Body:       p.Mensagem,
				AuthorID:   p.UserID.String(),
				AuthorName: p.UserNome,
				CreatedAt:  p.Data.Time,
			})
		}

	case EventDrawResolved:
		var p drawResolvedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, EventDrawResolved, err)
		}
		if strings.TrimSpace(p.UsuarioVencedor) == "" {
			return fmt.Errorf("%w: %s: missing usuario_vencedor", ErrMalformedPayload, EventDrawResolved)
		}
		if h.OnDrawResolved != nil {
			h.OnDrawResolved(DrawResolved{WinnerDisplayName: p.UsuarioVencedor})
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return nil
}

// RoomChannel is the push topic for a room.
func RoomChannel(roomID string) string {
	return "sala." + roomID
}
