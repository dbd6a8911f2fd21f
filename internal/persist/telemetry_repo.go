package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/initiative-tracker/server/internal/telemetry"
)

type TelemetryRepo struct {
	db        *DB
	sessionID uuid.UUID
}

func NewTelemetryRepo(db *DB, sessionID uuid.UUID) *TelemetryRepo {
	return &TelemetryRepo{db: db, sessionID: sessionID}
}

// WriteRecords sends a batch of telemetry rows in one round trip.
func (r *TelemetryRepo) WriteRecords(ctx context.Context, records []telemetry.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		props := rec.Props
		if props == nil {
			props = map[string]any{}
		}
		batch.Queue(
			`INSERT INTO telemetry_events (session_id, name, props, recorded_at)
			 VALUES ($1, $2, $3, $4)`,
			r.sessionID, rec.Name, props, rec.At,
		)
	}

	return execBatch(r.db.Pool.SendBatch(ctx, batch), len(records))
}

// execBatch reads n statement results and closes br. The close error is
// returned too, since it carries the failure of the implicit transaction.
func execBatch(br pgx.BatchResults, n int) error {
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("telemetry insert: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("telemetry batch: %w", err)
	}
	return nil
}
