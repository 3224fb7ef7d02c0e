package archive

// Schema creates the archive tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS draw_outcomes (
    id                UUID PRIMARY KEY,
    room_id           TEXT NOT NULL,
    round             INTEGER NOT NULL,
    room_name         TEXT,
    winner_name       TEXT NOT NULL,
    entry_value       NUMERIC(14, 2) NOT NULL,
    capacity          INTEGER NOT NULL,
    profit_percentage NUMERIC(6, 2) NOT NULL,
    prize             NUMERIC(14, 2) NOT NULL,
    participants      JSONB,
    session_id        TEXT,
    resolved_at       TIMESTAMPTZ NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (room_id, round)
);

CREATE TABLE IF NOT EXISTS draw_outcome_participants (
    outcome_id   UUID NOT NULL REFERENCES draw_outcomes (id) ON DELETE CASCADE,
    position     INTEGER NOT NULL,
    user_id      TEXT NOT NULL,
    display_name TEXT,
    provenance   TEXT NOT NULL,
    PRIMARY KEY (outcome_id, position)
);
`
