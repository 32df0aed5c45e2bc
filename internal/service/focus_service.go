package service

import (
	"context"
	"sync"
	"time"

	"hyperfocus/backend/internal/engine"
	apperrors "hyperfocus/backend/internal/errors"
	"hyperfocus/backend/internal/model"
	"hyperfocus/backend/internal/repository"
)

// FocusService keeps one queue controller per user, created lazily and
// restored from that user's persisted snapshot on first touch. All queue
// mutations go through the controller, which is the single writer.
type FocusService struct {
	plans     *repository.PlanRepository
	snapshots *repository.SnapshotRepository
	archives  *repository.ArchiveRepository
	clock     engine.Clock
	tick      time.Duration

	mu          sync.Mutex
	controllers map[string]*engine.Controller
}

func NewFocusService(
	plans *repository.PlanRepository,
	snapshots *repository.SnapshotRepository,
	archives *repository.ArchiveRepository,
	clock engine.Clock,
	tick time.Duration,
) *FocusService {
	return &FocusService{
		plans:       plans,
		snapshots:   snapshots,
		archives:    archives,
		clock:       clock,
		tick:        tick,
		controllers: make(map[string]*engine.Controller),
	}
}

// userSnapshotStore binds the shared snapshot repository to one user, giving
// the engine the per-queue store contract it expects.
type userSnapshotStore struct {
	repo   *repository.SnapshotRepository
	userID string
}

func (s userSnapshotStore) WriteSnapshot(ctx context.Context, blob []byte) error {
	return s.repo.Write(ctx, s.userID, blob)
}

func (s userSnapshotStore) ReadSnapshot(ctx context.Context) ([]byte, error) {
	return s.repo.Read(ctx, s.userID)
}

type userArchiveSink struct {
	repo   *repository.ArchiveRepository
	userID string
}

func (s userArchiveSink) ArchivePlan(ctx context.Context, archive model.PlanArchive) error {
	return s.repo.Save(ctx, s.userID, &archive)
}

// Controller returns the user's queue controller, creating and restoring it
// on first use.
func (s *FocusService) Controller(ctx context.Context, userID string) *engine.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctl, ok := s.controllers[userID]; ok {
		return ctl
	}

	ctl := engine.New(engine.Config{
		Clock:   s.clock,
		Store:   userSnapshotStore{repo: s.snapshots, userID: userID},
		Archive: userArchiveSink{repo: s.archives, userID: userID},
		Tick:    s.tick,
	})
	ctl.Restore(ctx)
	s.controllers[userID] = ctl
	return ctl
}

// StartPlan builds a fresh queue from a saved plan. The controller replaces
// any in-flight queue wholesale.
func (s *FocusService) StartPlan(ctx context.Context, userID, planID string) (*engine.StateView, *apperrors.APIError) {
	profile, err := s.plans.Get(ctx, userID, planID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("plan_not_found", "plan not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load plan")
	}

	ctl := s.Controller(ctx, userID)
	ctl.Start(*profile)
	view := ctl.View()
	return &view, nil
}

func (s *FocusService) GetState(ctx context.Context, userID string) *engine.StateView {
	view := s.Controller(ctx, userID).View()
	return &view
}

func (s *FocusService) Begin(ctx context.Context, userID string) *engine.StateView {
	ctl := s.Controller(ctx, userID)
	ctl.Begin()
	view := ctl.View()
	return &view
}

func (s *FocusService) Pause(ctx context.Context, userID string) *engine.StateView {
	ctl := s.Controller(ctx, userID)
	ctl.Pause()
	view := ctl.View()
	return &view
}

func (s *FocusService) Resume(ctx context.Context, userID string) *engine.StateView {
	ctl := s.Controller(ctx, userID)
	ctl.Resume()
	view := ctl.View()
	return &view
}

func (s *FocusService) EndSession(ctx context.Context, userID string, manual bool) *engine.StateView {
	ctl := s.Controller(ctx, userID)
	ctl.EndSession(manual)
	view := ctl.View()
	return &view
}

func (s *FocusService) MarkCompleted(ctx context.Context, userID, sessionID string) *engine.StateView {
	ctl := s.Controller(ctx, userID)
	ctl.MarkCompleted(sessionID)
	view := ctl.View()
	return &view
}

func (s *FocusService) DeleteSession(ctx context.Context, userID string, index int) *engine.StateView {
	ctl := s.Controller(ctx, userID)
	ctl.DeleteSession(index)
	view := ctl.View()
	return &view
}

func (s *FocusService) AdjustDuration(ctx context.Context, userID string, index, minutes int) *engine.StateView {
	ctl := s.Controller(ctx, userID)
	ctl.AdjustDuration(index, minutes)
	view := ctl.View()
	return &view
}

func (s *FocusService) ListArchives(ctx context.Context, userID string) ([]model.PlanArchive, *apperrors.APIError) {
	archives, err := s.archives.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list archives")
	}
	return archives, nil
}
