package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hyperfocus/backend/internal/model"
)

// ArchiveRepository stores completed-plan summaries keyed by user and date.
// A second plan finished the same day replaces the first, matching the
// date-keyed document the reference store used.
type ArchiveRepository struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

func (r *ArchiveRepository) Save(ctx context.Context, userID string, archive *model.PlanArchive) error {
	sessionsJSON, err := json.Marshal(archive.Sessions)
	if err != nil {
		return fmt.Errorf("encode archive sessions: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO plan_archives (user_id, date_key, plan_name, sessions, archived_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, date_key) DO UPDATE SET
		   plan_name = excluded.plan_name,
		   sessions = excluded.sessions,
		   archived_at = excluded.archived_at`,
		userID,
		archive.DateKey,
		archive.PlanName,
		string(sessionsJSON),
		time.UnixMilli(archive.ArchivedAt).UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	return nil
}

func (r *ArchiveRepository) List(ctx context.Context, userID string) ([]model.PlanArchive, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT date_key, plan_name, sessions, archived_at
		 FROM plan_archives
		 WHERE user_id = ?
		 ORDER BY date_key DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	archives := make([]model.PlanArchive, 0)
	for rows.Next() {
		var archive model.PlanArchive
		var sessionsJSON string
		var archivedAt string
		if err := rows.Scan(&archive.DateKey, &archive.PlanName, &sessionsJSON, &archivedAt); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		if err := json.Unmarshal([]byte(sessionsJSON), &archive.Sessions); err != nil {
			return nil, fmt.Errorf("decode archive sessions: %w", err)
		}
		parsedArchivedAt, err := parseTime(archivedAt)
		if err != nil {
			return nil, fmt.Errorf("parse archive archived_at: %w", err)
		}
		archive.ArchivedAt = parsedArchivedAt.UnixMilli()
		archive.UserID = userID
		archives = append(archives, archive)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archives: %w", err)
	}

	return archives, nil
}
