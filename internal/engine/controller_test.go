package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"hyperfocus/backend/internal/model"
)

const t0 = int64(1_700_000_000_000)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(millis int64) *fakeClock {
	return &fakeClock{now: time.UnixMilli(millis).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memoryStore struct {
	mu   sync.Mutex
	blob []byte
}

func (s *memoryStore) WriteSnapshot(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = blob
	return nil
}

func (s *memoryStore) ReadSnapshot(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blob, nil
}

type memoryArchive struct {
	mu       sync.Mutex
	archives []model.PlanArchive
}

func (s *memoryArchive) ArchivePlan(_ context.Context, archive model.PlanArchive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archives = append(s.archives, archive)
	return nil
}

func (s *memoryArchive) list() []model.PlanArchive {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PlanArchive, len(s.archives))
	copy(out, s.archives)
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testProfile(n int) model.PlanProfile {
	return model.PlanProfile{
		ID:   "plan-1",
		Name: "Morning",
		Plan: segmentPlan(n, 1, 4),
	}
}

// newIdleController builds a controller whose background tickers fire so
// rarely they never interfere with direct operation calls.
func newIdleController(t *testing.T, clock Clock, archive ArchiveSink) *Controller {
	t.Helper()
	ctl := New(Config{Clock: clock, Archive: archive, Tick: time.Hour})
	t.Cleanup(ctl.Close)
	return ctl
}

func TestBeginStampsScheduledStart(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(2))
	clock.Advance(5 * time.Minute)
	ctl.Begin()

	view := ctl.View()
	if !view.IsRunning || view.IsPaused {
		t.Fatalf("expected running unpaused, got %+v", view)
	}
	if got := view.Queue[0].ScheduledStart; got != t0+5*60_000 {
		t.Fatalf("expected current entry re-stamped to now, got %d", got)
	}
	if view.Queue[0].OriginalStart != t0 {
		t.Fatalf("originalStart must keep the build-time instant, got %d", view.Queue[0].OriginalStart)
	}
}

func TestCompletionAccounting(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(2))
	ctl.Begin()
	first := ctl.View().Queue[0]

	clock.Advance(10 * time.Minute)
	ctl.MarkCompleted(first.ID)

	view := ctl.View()
	done := view.Queue[0]
	if !done.IsCompleted || done.IsCancelled {
		t.Fatalf("expected completed, got %+v", done)
	}
	if done.ActualDuration == nil || *done.ActualDuration != 10 {
		t.Fatalf("expected actual duration 10, got %v", done.ActualDuration)
	}
	if done.BreakDuration != 0 || done.FocusDuration != 10 {
		t.Fatalf("expected break 0 focus 10, got break %d focus %d", done.BreakDuration, done.FocusDuration)
	}
	if done.CompletedAt == nil || *done.CompletedAt != t0+10*60_000 {
		t.Fatalf("unexpected completedAt %v", done.CompletedAt)
	}
}

func TestMarkCompletedAdvancesCursor(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(2))
	ctl.Begin()
	first := ctl.View().Queue[0]

	clock.Advance(25 * time.Minute)
	ctl.MarkCompleted(first.ID)

	view := ctl.View()
	if view.CurrentIndex != 1 {
		t.Fatalf("expected cursor at 1, got %d", view.CurrentIndex)
	}
	if !view.IsRunning || view.IsPaused {
		t.Fatalf("expected running unpaused after advance, got %+v", view)
	}
	if view.Progress != 0 {
		t.Fatalf("expected progress reset, got %f", view.Progress)
	}
	// The new current entry counts from the transition instant, not its
	// originally planned start.
	if got := view.Queue[1].ScheduledStart; got != t0+25*60_000 {
		t.Fatalf("expected next entry start %d, got %d", t0+25*60_000, got)
	}
}

func TestTerminalAdvancement(t *testing.T) {
	clock := newFakeClock(t0)
	archive := &memoryArchive{}
	ctl := newIdleController(t, clock, archive)

	ctl.Start(testProfile(1))
	ctl.Begin()
	only := ctl.View().Queue[0]

	clock.Advance(25 * time.Minute)
	ctl.MarkCompleted(only.ID)

	view := ctl.View()
	if view.IsRunning {
		t.Fatal("expected queue stopped after final completion")
	}
	if view.CurrentIndex != 0 {
		t.Fatalf("cursor must stay on the terminal last entry, got %d", view.CurrentIndex)
	}

	waitFor(t, "archive write", func() bool { return len(archive.list()) == 1 })
	got := archive.list()[0]
	if got.PlanName != "Morning" {
		t.Fatalf("expected archive for plan Morning, got %q", got.PlanName)
	}
	if len(got.Sessions) != 1 || !got.Sessions[0].IsCompleted {
		t.Fatalf("unexpected archive sessions %+v", got.Sessions)
	}
	if got.DateKey != clock.Now().UTC().Format("2006-01-02") {
		t.Fatalf("unexpected date key %q", got.DateKey)
	}
}

func TestPauseResumeAppendsBreakWindow(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(1))
	ctl.Begin()

	clock.Advance(time.Minute)
	ctl.Pause()

	view := ctl.View()
	if !view.IsPaused {
		t.Fatal("expected paused")
	}
	if view.BreakStartedAt == nil || *view.BreakStartedAt != t0+60_000 {
		t.Fatalf("unexpected breakStartedAt %v", view.BreakStartedAt)
	}
	if view.Queue[0].PauseStartTime == nil {
		t.Fatal("expected pauseStartTime stamped on active entry")
	}

	clock.Advance(time.Minute)
	ctl.Resume()

	view = ctl.View()
	entry := view.Queue[0]
	if view.IsPaused || view.BreakStartedAt != nil {
		t.Fatalf("expected resumed, got %+v", view)
	}
	if entry.PauseStartTime != nil {
		t.Fatal("pauseStartTime must clear on resume")
	}
	if len(entry.BreakWindows) != 1 {
		t.Fatalf("expected exactly one break window, got %d", len(entry.BreakWindows))
	}
	window := entry.BreakWindows[0]
	if window.Start != t0+60_000 || window.End != t0+120_000 {
		t.Fatalf("unexpected break window %+v", window)
	}
}

func TestPauseResumeAccounting(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(1))
	ctl.Begin()
	entry := ctl.View().Queue[0]

	clock.Advance(2 * time.Minute)
	ctl.Pause()
	clock.Advance(3 * time.Minute)
	ctl.Resume()
	clock.Advance(5 * time.Minute)
	ctl.MarkCompleted(entry.ID)

	done := ctl.View().Queue[0]
	if done.ActualDuration == nil || *done.ActualDuration != 10 {
		t.Fatalf("expected 10 elapsed minutes, got %v", done.ActualDuration)
	}
	if done.BreakDuration != 3 {
		t.Fatalf("expected 3 break minutes, got %d", done.BreakDuration)
	}
	if done.FocusDuration != 7 {
		t.Fatalf("expected 7 focus minutes, got %d", done.FocusDuration)
	}
}

func TestEndSessionManualCascadesFromNow(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(3))
	ctl.Begin()

	clock.Advance(4 * time.Minute)
	ctl.EndSession(true)

	view := ctl.View()
	ended := view.Queue[0]
	if !ended.IsCancelled || ended.IsCompleted {
		t.Fatalf("manual end must cancel, got %+v", ended)
	}
	if ended.ActualDuration == nil || *ended.ActualDuration != 4 {
		t.Fatalf("expected 4 elapsed minutes, got %v", ended.ActualDuration)
	}
	if view.CurrentIndex != 1 || !view.IsRunning {
		t.Fatalf("expected advancement to entry 1 running, got index %d running %v",
			view.CurrentIndex, view.IsRunning)
	}

	// Every subsequent entry is re-anchored at the transition instant,
	// originalStart included.
	now := t0 + 4*60_000
	expected := now
	for i := 1; i < len(view.Queue); i++ {
		entry := view.Queue[i]
		if entry.ScheduledStart != expected || entry.OriginalStart != expected {
			t.Fatalf("entry %d: expected start %d, got scheduled %d original %d",
				i, expected, entry.ScheduledStart, entry.OriginalStart)
		}
		expected += int64(entry.DurationMinutes) * minuteMillis
	}
}

func TestEndSessionOnLastEntryFinishesPlan(t *testing.T) {
	clock := newFakeClock(t0)
	archive := &memoryArchive{}
	ctl := newIdleController(t, clock, archive)

	ctl.Start(testProfile(1))
	ctl.Begin()
	clock.Advance(time.Minute)
	ctl.EndSession(false)

	view := ctl.View()
	if view.IsRunning || view.IsPaused {
		t.Fatalf("expected stopped, got %+v", view)
	}
	if view.Progress != 1 {
		t.Fatalf("expected progress 1, got %f", view.Progress)
	}
	if !view.Queue[0].IsCompleted {
		t.Fatal("non-manual end must complete the entry")
	}
	waitFor(t, "archive write", func() bool { return len(archive.list()) == 1 })
}

func TestDeleteSessionCascade(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(3)) // work, break, work, break, work
	before := ctl.View()
	anchor := before.Queue[0].ScheduledStart

	ctl.DeleteSession(1)

	view := ctl.View()
	if len(view.Queue) != len(before.Queue)-1 {
		t.Fatalf("expected %d entries, got %d", len(before.Queue)-1, len(view.Queue))
	}

	// The schedule compacts from the first remaining entry's existing start.
	expected := anchor
	for i := range view.Queue {
		if view.Queue[i].ScheduledStart != expected {
			t.Fatalf("entry %d: expected start %d, got %d", i, expected, view.Queue[i].ScheduledStart)
		}
		expected += int64(view.Queue[i].DurationMinutes) * minuteMillis
	}
}

func TestDeleteSessionCursorShift(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(3))
	ctl.Begin()
	first := ctl.View().Queue[0]
	clock.Advance(25 * time.Minute)
	ctl.MarkCompleted(first.ID) // cursor now 1

	ctl.DeleteSession(0)
	if got := ctl.View().CurrentIndex; got != 0 {
		t.Fatalf("deleting before the cursor must shift it left, got %d", got)
	}

	ctl.DeleteSession(2)
	if got := ctl.View().CurrentIndex; got != 0 {
		t.Fatalf("deleting after the cursor must not move it, got %d", got)
	}

	ctl.DeleteSession(99)
	if got := len(ctl.View().Queue); got != 3 {
		t.Fatalf("invalid index must be a no-op, queue length %d", got)
	}
}

func TestAdjustDurationCascade(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(3))
	before := ctl.View()

	ctl.AdjustDuration(1, 50)

	view := ctl.View()
	if view.Queue[1].DurationMinutes != 50 {
		t.Fatalf("expected duration 50, got %d", view.Queue[1].DurationMinutes)
	}

	// Entries up to and including the adjusted one keep their starts.
	for i := 0; i <= 1; i++ {
		if view.Queue[i].ScheduledStart != before.Queue[i].ScheduledStart {
			t.Fatalf("entry %d scheduledStart must not move", i)
		}
	}
	for i := range view.Queue {
		if view.Queue[i].OriginalStart != before.Queue[i].OriginalStart {
			t.Fatalf("entry %d originalStart must never change on adjust", i)
		}
	}

	expected := view.Queue[1].ScheduledStart + 50*minuteMillis
	for i := 2; i < len(view.Queue); i++ {
		if view.Queue[i].ScheduledStart != expected {
			t.Fatalf("entry %d: expected start %d, got %d", i, expected, view.Queue[i].ScheduledStart)
		}
		expected += int64(view.Queue[i].DurationMinutes) * minuteMillis
	}

	ctl.AdjustDuration(1, 0)
	if ctl.View().Queue[1].DurationMinutes != 50 {
		t.Fatal("non-positive duration must be a no-op")
	}
}

func TestStaleCompletionIsNoOp(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	ctl.Start(testProfile(2))
	ctl.Begin()
	before := ctl.View()

	ctl.MarkCompleted("no-such-id")

	view := ctl.View()
	if view.CurrentIndex != before.CurrentIndex || view.Queue[0].IsCompleted {
		t.Fatalf("stale id must not mutate state: %+v", view)
	}

	first := view.Queue[0].ID
	clock.Advance(25 * time.Minute)
	ctl.MarkCompleted(first)
	ctl.MarkCompleted(first) // second completion must not re-fire

	view = ctl.View()
	if view.CurrentIndex != 1 {
		t.Fatalf("double completion advanced twice, cursor %d", view.CurrentIndex)
	}
}

func TestSubscribeReceivesMutations(t *testing.T) {
	clock := newFakeClock(t0)
	ctl := newIdleController(t, clock, nil)

	updates, cancel := ctl.Subscribe()
	defer cancel()

	ctl.Start(testProfile(1))

	select {
	case view := <-updates:
		if len(view.Queue) != 1 {
			t.Fatalf("expected queue of 1 in update, got %d", len(view.Queue))
		}
	case <-time.After(time.Second):
		t.Fatal("expected an update after Start")
	}
}
