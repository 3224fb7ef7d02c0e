// Package archive keeps an append-only log of resolved draws. Nothing in the
// room view reads it back.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/salapix/go/internal/models"
	"github.com/mcdev12/salapix/go/internal/sqlutil"
)

// OutcomeRecord is one resolved draw.
type OutcomeRecord struct {
	Room         models.Room
	WinnerName   string
	Prize        decimal.Decimal
	Participants []models.Participant
	SessionID    string
	ResolvedAt   time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RecordOutcome stores rec. It reports false when the room round was already
// recorded, which is not an error.
func (r *Repository) RecordOutcome(ctx context.Context, rec OutcomeRecord) (bool, error) {
	params, err := outcomeParams(rec)
	if err != nil {
		return false, err
	}

	inserted := false
	err = sqlutil.Run(ctx, r.db, func(tx *sql.Tx) *Queries { return NewQueries(tx) }, func(q *Queries) error {
		id, err := q.InsertOutcome(ctx, params)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to insert draw outcome: %w", err)
		}
		for _, p := range participantParams(id, rec.Participants) {
			if err := q.InsertOutcomeParticipant(ctx, p); err != nil {
				return fmt.Errorf("failed to insert outcome participant %s: %w", p.UserID, err)
			}
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if inserted {
		log.Info().Str("room_id", rec.Room.ID).Int("round", rec.Room.Round).Str("winner", rec.WinnerName).Msg("draw outcome archived")
	} else {
		log.Debug().Str("room_id", rec.Room.ID).Int("round", rec.Room.Round).Msg("draw outcome already archived")
	}
	return inserted, nil
}

func outcomeParams(rec OutcomeRecord) (InsertOutcomeParams, error) {
	if rec.Room.ID == "" {
		return InsertOutcomeParams{}, errors.New("outcome without room id")
	}
	if rec.WinnerName == "" {
		return InsertOutcomeParams{}, errors.New("outcome without winner")
	}

	var participants pqtype.NullRawMessage
	if len(rec.Participants) > 0 {
		raw, err := json.Marshal(rec.Participants)
		if err != nil {
			return InsertOutcomeParams{}, fmt.Errorf("failed to marshal participants: %w", err)
		}
		participants = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	return InsertOutcomeParams{
		ID:               uuid.New(),
		RoomID:           rec.Room.ID,
		Round:            int32(rec.Room.Round),
		RoomName:         sqlutil.NullString(rec.Room.Name),
		WinnerName:       rec.WinnerName,
		EntryValue:       rec.Room.EntryValue,
		Capacity:         int32(rec.Room.Capacity),
		ProfitPercentage: rec.Room.ProfitPercentage,
		Prize:            rec.Prize,
		Participants:     participants,
		SessionID:        sqlutil.NullString(rec.SessionID),
		ResolvedAt:       rec.ResolvedAt.UTC(),
	}, nil
}

func participantParams(outcomeID uuid.UUID, list []models.Participant) []InsertOutcomeParticipantParams {
	out := make([]InsertOutcomeParticipantParams, 0, len(list))
	for i, p := range list {
		out = append(out, InsertOutcomeParticipantParams{
			OutcomeID:   outcomeID,
			Position:    int32(i),
			UserID:      p.UserID,
			DisplayName: sqlutil.NullString(p.DisplayName),
			Provenance:  string(p.Provenance),
		})
	}
	return out
}
