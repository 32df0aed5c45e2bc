package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SnapshotRepository stores one opaque queue-state blob per user. The blob's
// format belongs to the engine; this layer only round-trips bytes.
type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Write(ctx context.Context, userID string, blob []byte) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO queue_snapshots (user_id, snapshot, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		userID,
		blob,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Read returns the stored blob, or (nil, nil) when the user has none.
func (r *SnapshotRepository) Read(ctx context.Context, userID string) ([]byte, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT snapshot FROM queue_snapshots WHERE user_id = ?`,
		userID,
	)

	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return blob, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(
		ctx,
		`DELETE FROM queue_snapshots WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
