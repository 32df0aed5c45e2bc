package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"hyperfocus/backend/internal/model"
)

// PlanRepository stores saved plan templates. The plan body is kept as a JSON
// column; templates are immutable once saved, so there is nothing to query
// inside them. Subscribers registered via Subscribe are notified after every
// successful write, mirroring a remote store's change feed.
type PlanRepository struct {
	db *sql.DB

	mu          sync.Mutex
	subscribers []func(userID string)
}

func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Subscribe registers a change callback invoked after saves and deletes with
// the affected user's id. Callbacks run synchronously on the mutating call.
func (r *PlanRepository) Subscribe(onChange func(userID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, onChange)
}

func (r *PlanRepository) notify(userID string) {
	r.mu.Lock()
	subscribers := make([]func(string), len(r.subscribers))
	copy(subscribers, r.subscribers)
	r.mu.Unlock()

	for _, onChange := range subscribers {
		onChange(userID)
	}
}

func (r *PlanRepository) Save(ctx context.Context, userID string, profile *model.PlanProfile) error {
	planJSON, err := json.Marshal(profile.Plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO focus_plans (id, user_id, name, plan, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		profile.ID,
		userID,
		profile.Name,
		string(planJSON),
		profile.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}

	r.notify(userID)
	return nil
}

func (r *PlanRepository) Get(ctx context.Context, userID, planID string) (*model.PlanProfile, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, name, plan, created_at
		 FROM focus_plans
		 WHERE user_id = ? AND id = ?`,
		userID,
		planID,
	)
	profile, err := scanPlanProfile(row)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *PlanRepository) List(ctx context.Context, userID string) ([]model.PlanProfile, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, name, plan, created_at
		 FROM focus_plans
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	profiles := make([]model.PlanProfile, 0)
	for rows.Next() {
		profile, scanErr := scanPlanProfile(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}

	return profiles, nil
}

func (r *PlanRepository) Delete(ctx context.Context, userID, planID string) error {
	_, err := r.db.ExecContext(
		ctx,
		`DELETE FROM focus_plans WHERE user_id = ? AND id = ?`,
		userID,
		planID,
	)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	r.notify(userID)
	return nil
}

func scanPlanProfile(s scanner) (*model.PlanProfile, error) {
	var profile model.PlanProfile
	var planJSON string
	var createdAt string
	if err := s.Scan(&profile.ID, &profile.Name, &planJSON, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}

	if err := json.Unmarshal([]byte(planJSON), &profile.Plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse plan created_at: %w", err)
	}
	profile.CreatedAt = parsedCreatedAt

	return &profile, nil
}
