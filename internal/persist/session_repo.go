package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SessionRepo records one row per tracker run; log and telemetry rows hang
// off it.
type SessionRepo struct {
	db *DB
}

func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Start inserts a new session and returns its id.
func (r *SessionRepo) Start(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := r.db.Pool.Exec(ctx,
		`INSERT INTO tracker_sessions (id, name) VALUES ($1, $2)`,
		id, name,
	); err != nil {
		return uuid.Nil, fmt.Errorf("start session: %w", err)
	}
	return id, nil
}
