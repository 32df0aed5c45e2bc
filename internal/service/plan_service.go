package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "hyperfocus/backend/internal/errors"
	"hyperfocus/backend/internal/model"
	"hyperfocus/backend/internal/repository"
)

// PlanService owns the saved-plan and category collections. Writes are
// optimistic from the engine's point of view: a store failure is reported to
// the caller but never touches an in-flight queue.
type PlanService struct {
	plans      *repository.PlanRepository
	categories *repository.CategoryRepository
}

func NewPlanService(plans *repository.PlanRepository, categories *repository.CategoryRepository) *PlanService {
	return &PlanService{plans: plans, categories: categories}
}

type SavePlanInput struct {
	Name                string              `json:"name"`
	Segments            []model.PlanSegment `json:"segments"`
	ShortBreakDuration  int                 `json:"shortBreakDuration"`
	ShortBreakFrequency int                 `json:"shortBreakFrequency"`
	LongBreakDuration   int                 `json:"longBreakDuration"`
	LongBreakFrequency  int                 `json:"longBreakFrequency"`
}

func (s *PlanService) SavePlan(ctx context.Context, userID string, input SavePlanInput) (*model.PlanProfile, *apperrors.APIError) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.BadRequest("invalid_name", "plan name is required")
	}
	if len(input.Segments) == 0 {
		return nil, apperrors.BadRequest("invalid_segments", "plan needs at least one segment")
	}
	for _, segment := range input.Segments {
		if segment.DurationMinutes < 1 {
			return nil, apperrors.BadRequest("invalid_duration", "segment durations must be positive minutes")
		}
	}
	if input.ShortBreakFrequency < 1 || input.LongBreakFrequency < 1 {
		return nil, apperrors.BadRequest("invalid_frequency", "break frequencies must be at least 1")
	}
	if input.ShortBreakDuration < 1 || input.LongBreakDuration < 1 {
		return nil, apperrors.BadRequest("invalid_duration", "break durations must be positive minutes")
	}

	// Snapshot category colors into the segments so the queue never needs a
	// live category reference.
	segments := make([]model.PlanSegment, len(input.Segments))
	copy(segments, input.Segments)
	for i := range segments {
		if segments[i].CategoryID == "" || segments[i].CategoryColor != 0 {
			continue
		}
		category, err := s.categories.Get(ctx, userID, segments[i].CategoryID)
		if err == repository.ErrNotFound {
			return nil, apperrors.BadRequest("unknown_category", "segment references an unknown category")
		}
		if err != nil {
			return nil, apperrors.Internal("failed to resolve category")
		}
		segments[i].CategoryColor = category.Color
	}

	profile := &model.PlanProfile{
		ID:   uuid.NewString(),
		Name: name,
		Plan: model.FocusPlan{
			Segments:            segments,
			ShortBreakDuration:  input.ShortBreakDuration,
			ShortBreakFrequency: input.ShortBreakFrequency,
			LongBreakDuration:   input.LongBreakDuration,
			LongBreakFrequency:  input.LongBreakFrequency,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.plans.Save(ctx, userID, profile); err != nil {
		log.Printf("service: save plan: %v", err)
		return nil, apperrors.Internal("failed to save plan")
	}

	return profile, nil
}

func (s *PlanService) ListPlans(ctx context.Context, userID string) ([]model.PlanProfile, *apperrors.APIError) {
	profiles, err := s.plans.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list plans")
	}
	return profiles, nil
}

// DeletePlan removes a saved template. An in-flight queue built from the
// plan is unaffected.
func (s *PlanService) DeletePlan(ctx context.Context, userID, planID string) *apperrors.APIError {
	if err := s.plans.Delete(ctx, userID, planID); err != nil {
		log.Printf("service: delete plan: %v", err)
		return apperrors.Internal("failed to delete plan")
	}
	return nil
}

type SaveCategoryInput struct {
	Name  string `json:"name"`
	Color int64  `json:"color"`
}

func (s *PlanService) CreateCategory(ctx context.Context, userID string, input SaveCategoryInput) (*model.Category, *apperrors.APIError) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.BadRequest("invalid_name", "category name is required")
	}

	category := &model.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Color:     input.Color,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.Internal("failed to create category")
	}
	return category, nil
}

func (s *PlanService) ListCategories(ctx context.Context, userID string) ([]model.Category, *apperrors.APIError) {
	categories, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list categories")
	}
	return categories, nil
}

func (s *PlanService) DeleteCategory(ctx context.Context, userID, categoryID string) *apperrors.APIError {
	if err := s.categories.Delete(ctx, userID, categoryID); err != nil {
		return apperrors.Internal("failed to delete category")
	}
	return nil
}
