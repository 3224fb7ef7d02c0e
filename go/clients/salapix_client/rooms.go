package salapix_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/mcdev12/salapix/go/internal/models"
)

type User struct {
	ID   models.FlexID `json:"id"`
	Name string        `json:"name"`
}

type RoomParticipant struct {
	UserID    models.FlexID   `json:"user_id"`
	User      User            `json:"user"`
	CreatedAt models.FlexTime `json:"created_at"`
}

type Room struct {
	ID                  models.FlexID     `json:"id"`
	Nome                string            `json:"nome"`
	Descricao           string            `json:"descricao"`
	Path                string            `json:"path"`
	ValorEntrada        decimal.Decimal   `json:"valor_entrada"`
	QuantidadeJogadores int               `json:"quantidade_jogadores"`
	LucroPorcentagem    decimal.Decimal   `json:"lucro_porcentagem"`
	Rodada              int               `json:"rodada"`
	Participantes       []RoomParticipant `json:"participantes"`
	ParticipantesCount  int               `json:"participantes_count"`
	ParticipandoCount   int               `json:"participando_count"`
	VencedorID          models.FlexID     `json:"vencedor_id"`
}

type roomEnvelope struct {
	Room
	Data *Room `json:"data"`
}

// GetRoom fetches the room snapshot.
func (c *SalapixClient) GetRoom(ctx context.Context, roomID string) (*models.RoomSnapshot, error) {
	endpoint := fmt.Sprintf(RoomEndpoint, url.PathEscape(roomID))
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", roomID, err)
	}

	var envelope roomEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w, raw response: %s", err, string(body))
	}
	room := envelope.Room
	if envelope.Data != nil {
		room = *envelope.Data
	}
	if room.ID == "" {
		room.ID = models.FlexID(roomID)
	}

	return c.toSnapshot(room), nil
}

func (c *SalapixClient) toSnapshot(r Room) *models.RoomSnapshot {
	status := models.RoomStatusOpen
	if r.VencedorID != "" {
		status = models.RoomStatusResolved
	}

	snapshot := &models.RoomSnapshot{
		Room: models.Room{
			ID:               r.ID.String(),
			Name:             r.Nome,
			Path:             r.Path,
			Capacity:         r.QuantidadeJogadores,
			EntryValue:       r.ValorEntrada,
			ProfitPercentage: r.LucroPorcentagem,
			Round:            r.Rodada,
			Status:           status,
		},
		ConfirmedCount:           r.ParticipantesCount,
		IsLocalUserParticipating: r.ParticipandoCount > 0,
	}

	for _, p := range r.Participantes {
		id := p.User.ID
		if id == "" {
			id = p.UserID
		}
		snapshot.ConfirmedParticipants = append(snapshot.ConfirmedParticipants, models.Participant{
			UserID:      id.String(),
			DisplayName: p.User.Name,
			JoinedAt:    p.CreatedAt.Time,
			Provenance:  models.ProvenanceConfirmed,
		})
		if c.userID != "" && id.String() == c.userID {
			snapshot.IsLocalUserParticipating = true
		}
	}
	if snapshot.ConfirmedCount < len(snapshot.ConfirmedParticipants) {
		snapshot.ConfirmedCount = len(snapshot.ConfirmedParticipants)
	}

	return snapshot
}
