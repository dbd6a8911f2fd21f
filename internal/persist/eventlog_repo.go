package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/initiative-tracker/server/internal/eventlog"
)

type EventLogRepo struct {
	db        *DB
	sessionID uuid.UUID
}

func NewEventLogRepo(db *DB, sessionID uuid.UUID) *EventLogRepo {
	return &EventLogRepo{db: db, sessionID: sessionID}
}

// WriteEntries writes a batch of log entries in a single transaction.
// On error nothing is written and the caller should requeue the batch.
func (r *EventLogRepo) WriteEntries(ctx context.Context, entries []eventlog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("event log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO encounter_log (session_id, seq, text, logged_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (session_id, seq) DO NOTHING`,
			r.sessionID, e.Seq, e.Text, e.At,
		); err != nil {
			return fmt.Errorf("event log insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
