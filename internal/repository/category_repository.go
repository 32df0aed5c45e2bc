package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hyperfocus/backend/internal/model"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO categories (id, user_id, name, color, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		category.ID,
		category.UserID,
		category.Name,
		category.Color,
		category.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Get(ctx context.Context, userID, categoryID string) (*model.Category, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, name, color, created_at
		 FROM categories
		 WHERE user_id = ? AND id = ?`,
		userID,
		categoryID,
	)
	category, err := scanCategory(row)
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) List(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, name, color, created_at
		 FROM categories
		 WHERE user_id = ?
		 ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		category, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		categories = append(categories, *category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, userID, categoryID string) error {
	_, err := r.db.ExecContext(
		ctx,
		`DELETE FROM categories WHERE user_id = ? AND id = ?`,
		userID,
		categoryID,
	)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func scanCategory(s scanner) (*model.Category, error) {
	var category model.Category
	var createdAt string
	if err := s.Scan(&category.ID, &category.UserID, &category.Name, &category.Color, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse category created_at: %w", err)
	}
	category.CreatedAt = parsedCreatedAt

	return &category, nil
}
