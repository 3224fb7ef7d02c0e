package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

const insertOutcome = `
INSERT INTO draw_outcomes (
  id, room_id, round, room_name, winner_name, entry_value, capacity,
  profit_percentage, prize, participants, session_id, resolved_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
ON CONFLICT (room_id, round) DO NOTHING
RETURNING id
`

type InsertOutcomeParams struct {
	ID               uuid.UUID
	RoomID           string
	Round            int32
	RoomName         sql.NullString
	WinnerName       string
	EntryValue       decimal.Decimal
	Capacity         int32
	ProfitPercentage decimal.Decimal
	Prize            decimal.Decimal
	Participants     pqtype.NullRawMessage
	SessionID        sql.NullString
	ResolvedAt       time.Time
}

// InsertOutcome returns sql.ErrNoRows when the room round is already recorded.
func (q *Queries) InsertOutcome(ctx context.Context, arg InsertOutcomeParams) (uuid.UUID, error) {
	row := q.db.QueryRowContext(ctx, insertOutcome,
		arg.ID,
		arg.RoomID,
		arg.Round,
		arg.RoomName,
		arg.WinnerName,
		arg.EntryValue,
		arg.Capacity,
		arg.ProfitPercentage,
		arg.Prize,
		arg.Participants,
		arg.SessionID,
		arg.ResolvedAt,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const insertOutcomeParticipant = `
INSERT INTO draw_outcome_participants (
  outcome_id, position, user_id, display_name, provenance
) VALUES (
  $1,$2,$3,$4,$5
)
`

type InsertOutcomeParticipantParams struct {
	OutcomeID   uuid.UUID
	Position    int32
	UserID      string
	DisplayName sql.NullString
	Provenance  string
}

func (q *Queries) InsertOutcomeParticipant(ctx context.Context, arg InsertOutcomeParticipantParams) error {
	_, err := q.db.ExecContext(ctx, insertOutcomeParticipant,
		arg.OutcomeID,
		arg.Position,
		arg.UserID,
		arg.DisplayName,
		arg.Provenance,
	)
	return err
}
