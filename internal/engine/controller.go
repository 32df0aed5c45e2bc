package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"hyperfocus/backend/internal/model"
)

// SnapshotStore persists the serialized queue state. Writes are best-effort;
// a read returns (nil, nil) when no snapshot exists.
type SnapshotStore interface {
	WriteSnapshot(ctx context.Context, blob []byte) error
	ReadSnapshot(ctx context.Context) ([]byte, error)
}

// ArchiveSink receives the completed-plan summary when a queue finishes.
type ArchiveSink interface {
	ArchivePlan(ctx context.Context, archive model.PlanArchive) error
}

// StateView is the read-only projection of the queue state handed to
// observers. The queue is a deep copy; mutating it has no effect.
type StateView struct {
	Queue                []model.ExecutableSession `json:"queue"`
	CurrentIndex         int                       `json:"currentIndex"`
	IsRunning            bool                      `json:"isRunning"`
	IsPaused             bool                      `json:"isPaused"`
	Progress             float64                   `json:"progress"`
	BreakStartedAt       *int64                    `json:"breakStartedAt,omitempty"`
	CurrentBreakDuration int64                     `json:"currentBreakDuration"`
	PlanName             string                    `json:"planName,omitempty"`
	ServerTime           time.Time                 `json:"serverTime"`
}

// Config wires a Controller's collaborators. Clock defaults to the system
// clock and Tick to one second.
type Config struct {
	Clock   Clock
	Store   SnapshotStore
	Archive ArchiveSink
	Tick    time.Duration
}

// Controller owns one session queue and is its single writer. Every mutation
// runs under one mutex; the timer driver and the break ticker acquire the
// same mutex per tick, so structural mutations never interleave. After every
// mutation the state is snapshotted (fire-and-forget) and broadcast to
// subscribers.
type Controller struct {
	mu sync.Mutex

	clock   Clock
	store   SnapshotStore
	archive ArchiveSink
	tick    time.Duration

	queue                []model.ExecutableSession
	currentIndex         int
	isRunning            bool
	isPaused             bool
	progress             float64
	breakStartedAt       *int64
	currentBreakDuration int64
	planName             string

	timerCancel context.CancelFunc
	breakCancel context.CancelFunc

	// persistCh holds at most the latest pending snapshot; a single writer
	// goroutine drains it, so the last write landed is always the newest.
	persistCh chan []byte

	subs    map[int]chan StateView
	nextSub int
}

func New(cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	c := &Controller{
		clock:     cfg.Clock,
		store:     cfg.Store,
		archive:   cfg.Archive,
		tick:      cfg.Tick,
		persistCh: make(chan []byte, 1),
		subs:      make(map[int]chan StateView),
	}
	if c.store != nil {
		go c.runPersister()
	}
	return c
}

// Start replaces the queue wholesale with the expansion of the given plan,
// anchored at the current instant. The queue is built stopped; Begin runs it.
func (c *Controller) Start(profile model.PlanProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	c.stopBreakTickerLocked()

	c.queue = BuildQueue(profile.Plan, profile.Name, c.nowMillis())
	c.currentIndex = 0
	c.isRunning = false
	c.isPaused = false
	c.progress = 0
	c.breakStartedAt = nil
	c.currentBreakDuration = 0
	c.planName = profile.Name

	c.persistLocked()
	c.notifyLocked()
}

// Begin starts executing the queue from the current entry. The entry's
// scheduledStart is re-stamped to now so elapsed time counts from the moment
// of the press, not from queue-build time.
func (c *Controller) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning || c.currentIndex >= len(c.queue) {
		return
	}
	entry := &c.queue[c.currentIndex]
	if entry.Terminal() {
		return
	}

	now := c.nowMillis()
	entry.ScheduledStart = now
	c.isRunning = true
	c.isPaused = false
	c.progress = 0
	c.startTimerLocked()

	c.persistLocked()
	c.notifyLocked()
}

// MarkCompleted finishes the entry with the given id. When that entry is the
// current one, the cursor advances: the next entry's scheduledStart is
// re-stamped to now and its timer starts; with no next entry the queue stops
// and the plan is archived. A stale or unknown id is a no-op.
func (c *Controller) MarkCompleted(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexByIDLocked(sessionID)
	if idx < 0 {
		return
	}
	entry := &c.queue[idx]
	if entry.Terminal() {
		return
	}

	now := c.nowMillis()
	c.finishEntryLocked(entry, now, false)

	if idx == c.currentIndex {
		if idx < len(c.queue)-1 {
			c.currentIndex++
			next := &c.queue[c.currentIndex]
			next.ScheduledStart = now
			c.progress = 0
			c.isRunning = true
			c.isPaused = false
			c.startTimerLocked()
		} else {
			c.isRunning = false
			c.stopTimerLocked()
			c.archiveLocked(now)
		}
	}

	c.persistLocked()
	c.notifyLocked()
}

// Pause suspends the active entry, opening a break window.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isPaused || c.currentIndex >= len(c.queue) {
		return
	}
	entry := &c.queue[c.currentIndex]
	if entry.Terminal() {
		return
	}

	now := c.nowMillis()
	c.isPaused = true
	c.breakStartedAt = &now
	entry.PauseStartTime = &now
	c.startBreakTickerLocked()

	c.persistLocked()
	c.notifyLocked()
}

// Resume closes the open break window and appends it to the active entry.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isPaused || c.currentIndex >= len(c.queue) {
		return
	}
	entry := &c.queue[c.currentIndex]

	now := c.nowMillis()
	if entry.PauseStartTime != nil {
		entry.BreakWindows = append(entry.BreakWindows, model.BreakWindow{
			Start: *entry.PauseStartTime,
			End:   now,
		})
		entry.PauseStartTime = nil
	}
	c.isPaused = false
	c.breakStartedAt = nil
	c.stopBreakTickerLocked()

	c.persistLocked()
	c.notifyLocked()
}

// EndSession terminates the active entry: cancelled when manual, completed
// otherwise. Subsequent entries are re-anchored at now (each start follows
// the previous entry's end) because the next entry becomes active
// immediately; compare DeleteSession, which keeps the existing anchor.
func (c *Controller) EndSession(manual bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentIndex >= len(c.queue) {
		return
	}
	entry := &c.queue[c.currentIndex]
	if entry.Terminal() {
		return
	}

	now := c.nowMillis()
	c.finishEntryLocked(entry, now, manual)

	c.stopBreakTickerLocked()
	c.breakStartedAt = nil
	c.stopTimerLocked()

	if c.currentIndex < len(c.queue)-1 {
		start := now
		for i := c.currentIndex + 1; i < len(c.queue); i++ {
			c.queue[i].ScheduledStart = start
			c.queue[i].OriginalStart = start
			start += int64(c.queue[i].DurationMinutes) * minuteMillis
		}
		c.currentIndex++
		c.isPaused = false
		c.isRunning = true
		c.progress = 0
		c.startTimerLocked()
	} else {
		c.isRunning = false
		c.isPaused = false
		c.progress = 1
		c.archiveLocked(now)
	}

	c.persistLocked()
	c.notifyLocked()
}

// DeleteSession removes the entry at index and compacts the schedule,
// cascading from the first remaining entry's existing scheduledStart (or now
// for a queue that lost its anchor). The cursor shifts left when the removal
// was at or before it. The timer is not restarted. Invalid index is a no-op.
func (c *Controller) DeleteSession(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.queue) {
		return
	}

	c.queue = append(c.queue[:index], c.queue[index+1:]...)

	start := c.nowMillis()
	if len(c.queue) > 0 {
		start = c.queue[0].ScheduledStart
	}
	for i := range c.queue {
		c.queue[i].ScheduledStart = start
		start += int64(c.queue[i].DurationMinutes) * minuteMillis
	}

	if index <= c.currentIndex && c.currentIndex > 0 {
		c.currentIndex--
	}

	c.persistLocked()
	c.notifyLocked()
}

// AdjustDuration sets the entry's planned length and cascades scheduledStart
// recomputation from that entry through the end of the queue. originalStart
// values are untouched. Invalid index or non-positive minutes is a no-op.
func (c *Controller) AdjustDuration(index, newMinutes int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.queue) || newMinutes < 1 {
		return
	}

	c.queue[index].DurationMinutes = newMinutes

	start := c.queue[index].ScheduledStart
	for i := index; i < len(c.queue); i++ {
		c.queue[i].ScheduledStart = start
		start += int64(c.queue[i].DurationMinutes) * minuteMillis
	}

	c.persistLocked()
	c.notifyLocked()
}

// Restore loads the last persisted snapshot, if any, and resumes the timer
// when the snapshot was captured running and unpaused. An absent, blank, or
// unreadable snapshot leaves the controller in its empty default state.
func (c *Controller) Restore(ctx context.Context) {
	if c.store == nil {
		return
	}
	blob, err := c.store.ReadSnapshot(ctx)
	if err != nil {
		log.Printf("engine: read snapshot: %v", err)
		return
	}

	snapshot, ok := DecodeSnapshot(blob)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = snapshot.Queue
	c.currentIndex = snapshot.CurrentIndex
	c.progress = snapshot.Progress
	c.isRunning = snapshot.IsRunning
	c.isPaused = snapshot.IsPaused
	c.breakStartedAt = snapshot.BreakStartedAt
	c.currentBreakDuration = snapshot.CurrentBreakDuration
	if len(snapshot.Queue) > 0 {
		c.planName = snapshot.Queue[0].PlanTitle
	}

	// scheduledStart is an absolute instant, so elapsed time across the
	// restart is recovered by the progress formula alone.
	if c.isRunning && !c.isPaused && c.currentIndex < len(c.queue) && !c.queue[c.currentIndex].Terminal() {
		c.startTimerLocked()
	}
	if c.isPaused && c.breakStartedAt != nil {
		c.startBreakTickerLocked()
	}
}

// Snapshot returns the state in its persisted form.
func (c *Controller) Snapshot() model.QueueSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// View returns a read-only copy of the current state.
func (c *Controller) View() StateView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Subscribe registers an observer notified after every mutation. The returned
// cancel func releases the subscription. Slow observers miss intermediate
// views rather than blocking the controller.
func (c *Controller) Subscribe() (<-chan StateView, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan StateView, 16)
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close stops the timer and break ticker. State stays readable.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.stopBreakTickerLocked()
}

func (c *Controller) nowMillis() int64 {
	return c.clock.Now().UnixMilli()
}

func (c *Controller) indexByIDLocked(sessionID string) int {
	for i := range c.queue {
		if c.queue[i].ID == sessionID {
			return i
		}
	}
	return -1
}

// finishEntryLocked stamps the terminal flags and the elapsed/break/focus
// accounting: actual = wall-clock minutes since scheduledStart, break = sum
// of the entry's break windows, focus = actual - break floored at zero.
func (c *Controller) finishEntryLocked(entry *model.ExecutableSession, now int64, cancelled bool) {
	totalElapsed := int((now - entry.ScheduledStart) / minuteMillis)
	if totalElapsed < 0 {
		totalElapsed = 0
	}
	breakMinutes := int(breakWindowMillis(entry.BreakWindows) / minuteMillis)
	focusMinutes := totalElapsed - breakMinutes
	if focusMinutes < 0 {
		focusMinutes = 0
	}

	entry.IsCompleted = !cancelled
	entry.IsCancelled = cancelled
	entry.CompletedAt = &now
	entry.ActualDuration = &totalElapsed
	entry.BreakDuration = breakMinutes
	entry.FocusDuration = focusMinutes
}

func breakWindowMillis(windows []model.BreakWindow) int64 {
	var total int64
	for _, w := range windows {
		total += w.End - w.Start
	}
	return total
}

func (c *Controller) startTimerLocked() {
	c.stopTimerLocked()
	ctx, cancel := context.WithCancel(context.Background())
	c.timerCancel = cancel
	go c.runTimer(ctx)
}

func (c *Controller) stopTimerLocked() {
	if c.timerCancel != nil {
		c.timerCancel()
		c.timerCancel = nil
	}
}

func (c *Controller) runTimer(ctx context.Context) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.advanceProgress() {
				return
			}
		}
	}
}

// advanceProgress performs one timer tick. It reports true when the loop
// should stop: the queue halted, the entry turned terminal, or completion
// fired. Completion fires at most once per entry because MarkCompleted
// re-checks the terminal flags under the lock.
func (c *Controller) advanceProgress() bool {
	c.mu.Lock()

	if !c.isRunning || c.currentIndex >= len(c.queue) {
		c.mu.Unlock()
		return true
	}
	if c.isPaused {
		c.mu.Unlock()
		return false
	}
	entry := &c.queue[c.currentIndex]
	if entry.Terminal() {
		c.mu.Unlock()
		return true
	}

	durationMs := int64(entry.DurationMinutes) * minuteMillis
	progress := 0.0
	if durationMs > 0 {
		progress = float64(c.nowMillis()-entry.ScheduledStart) / float64(durationMs)
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	c.progress = progress
	c.persistLocked()
	c.notifyLocked()

	if progress < 1 {
		c.mu.Unlock()
		return false
	}

	id := entry.ID
	c.mu.Unlock()
	c.MarkCompleted(id)
	return true
}

func (c *Controller) startBreakTickerLocked() {
	c.stopBreakTickerLocked()
	ctx, cancel := context.WithCancel(context.Background())
	c.breakCancel = cancel
	go c.runBreakTicker(ctx)
}

func (c *Controller) stopBreakTickerLocked() {
	if c.breakCancel != nil {
		c.breakCancel()
		c.breakCancel = nil
	}
	c.currentBreakDuration = 0
}

func (c *Controller) runBreakTicker(ctx context.Context) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.isPaused || c.breakStartedAt == nil {
				c.mu.Unlock()
				return
			}
			c.currentBreakDuration = c.nowMillis() - *c.breakStartedAt
			c.notifyLocked()
			c.mu.Unlock()
		}
	}
}

// persistLocked snapshots the state and hands the blob to the persister
// goroutine without blocking. A still-pending older blob is replaced, so the
// store converges on the newest state. Failures are logged; the in-memory
// state stays authoritative.
func (c *Controller) persistLocked() {
	if c.store == nil {
		return
	}
	blob, err := EncodeSnapshot(c.snapshotLocked())
	if err != nil {
		log.Printf("engine: encode snapshot: %v", err)
		return
	}
	for {
		select {
		case c.persistCh <- blob:
			return
		default:
			select {
			case <-c.persistCh:
			default:
			}
		}
	}
}

func (c *Controller) runPersister() {
	for blob := range c.persistCh {
		if err := c.store.WriteSnapshot(context.Background(), blob); err != nil {
			log.Printf("engine: write snapshot: %v", err)
		}
	}
}

func (c *Controller) snapshotLocked() model.QueueSnapshot {
	return model.QueueSnapshot{
		Queue:                copyQueue(c.queue),
		CurrentIndex:         c.currentIndex,
		Progress:             c.progress,
		IsRunning:            c.isRunning,
		IsPaused:             c.isPaused,
		BreakStartedAt:       c.breakStartedAt,
		CurrentBreakDuration: c.currentBreakDuration,
	}
}

func (c *Controller) archiveLocked(now int64) {
	if c.archive == nil {
		return
	}

	sessions := make([]model.ArchivedSession, 0, len(c.queue))
	for i := range c.queue {
		entry := &c.queue[i]
		actual := 0
		if entry.ActualDuration != nil {
			actual = *entry.ActualDuration
		}
		completedAt := int64(0)
		if entry.CompletedAt != nil {
			completedAt = *entry.CompletedAt
		}
		sessions = append(sessions, model.ArchivedSession{
			Title:          entry.Title,
			Kind:           entry.Kind,
			Duration:       entry.DurationMinutes,
			IsCompleted:    entry.IsCompleted,
			IsCancelled:    entry.IsCancelled,
			ActualDuration: actual,
			BreakDuration:  entry.BreakDuration,
			CategoryID:     entry.CategoryID,
			IconName:       entry.IconName,
			CompletedAt:    completedAt,
		})
	}

	archive := model.PlanArchive{
		DateKey:    c.clock.Now().UTC().Format("2006-01-02"),
		PlanName:   c.planName,
		Sessions:   sessions,
		ArchivedAt: now,
	}

	sink := c.archive
	go func() {
		if err := sink.ArchivePlan(context.Background(), archive); err != nil {
			log.Printf("engine: archive plan: %v", err)
		}
	}()
}

func (c *Controller) viewLocked() StateView {
	return StateView{
		Queue:                copyQueue(c.queue),
		CurrentIndex:         c.currentIndex,
		IsRunning:            c.isRunning,
		IsPaused:             c.isPaused,
		Progress:             c.progress,
		BreakStartedAt:       c.breakStartedAt,
		CurrentBreakDuration: c.currentBreakDuration,
		PlanName:             c.planName,
		ServerTime:           c.clock.Now().UTC(),
	}
}

func (c *Controller) notifyLocked() {
	view := c.viewLocked()
	for _, ch := range c.subs {
		select {
		case ch <- view:
		default:
		}
	}
}

func copyQueue(queue []model.ExecutableSession) []model.ExecutableSession {
	out := make([]model.ExecutableSession, len(queue))
	copy(out, queue)
	for i := range out {
		if len(queue[i].BreakWindows) > 0 {
			windows := make([]model.BreakWindow, len(queue[i].BreakWindows))
			copy(windows, queue[i].BreakWindows)
			out[i].BreakWindows = windows
		}
	}
	return out
}
