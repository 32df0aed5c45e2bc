package model

import "time"

const (
	KindWork       = "work"
	KindShortBreak = "short_break"
	KindLongBreak  = "long_break"
)

const (
	DefaultSegmentMinutes    = 25
	DefaultShortBreakMinutes = 5
	DefaultShortBreakEvery   = 1
	DefaultLongBreakMinutes  = 20
	DefaultLongBreakEvery    = 4

	BreakCategoryColor = int64(0xFFE0E0E0)
)

// PlanSegment is one named work block inside a plan template. Category id and
// color are snapshotted from the category store at plan creation time.
type PlanSegment struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"durationMinutes"`
	CategoryID      string `json:"categoryId"`
	CategoryColor   int64  `json:"categoryColor"`
	IconName        string `json:"iconName"`
}

// FocusPlan is the immutable template a queue is built from.
type FocusPlan struct {
	Segments            []PlanSegment `json:"segments"`
	ShortBreakDuration  int           `json:"shortBreakDuration"`
	ShortBreakFrequency int           `json:"shortBreakFrequency"`
	LongBreakDuration   int           `json:"longBreakDuration"`
	LongBreakFrequency  int           `json:"longBreakFrequency"`
}

// PlanProfile is a named, saved plan template.
type PlanProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      FocusPlan `json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
}

// BreakWindow is a pause interval taken during one executable session,
// distinct from a scheduled short/long break entry.
type BreakWindow struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// ExecutableSession is one entry of the running queue. All instants are
// absolute milliseconds since epoch.
type ExecutableSession struct {
	ID              string        `json:"id"`
	Kind            string        `json:"kind"`
	Title           string        `json:"title"`
	DurationMinutes int           `json:"durationMinutes"`
	CategoryID      string        `json:"categoryId,omitempty"`
	CategoryColor   int64         `json:"categoryColor,omitempty"`
	IconName        string        `json:"iconName,omitempty"`
	ScheduledStart  int64         `json:"scheduledStart"`
	OriginalStart   int64         `json:"originalStart"`
	BreakWindows    []BreakWindow `json:"breakWindows,omitempty"`
	PauseStartTime  *int64        `json:"pauseStartTime,omitempty"`
	IsCompleted     bool          `json:"isCompleted"`
	IsCancelled     bool          `json:"isCancelled"`
	ActualDuration  *int          `json:"actualDuration,omitempty"`
	BreakDuration   int           `json:"breakDuration"`
	FocusDuration   int           `json:"focusDuration"`
	CompletedAt     *int64        `json:"completedAt,omitempty"`
	PlanTitle       string        `json:"planTitle,omitempty"`
}

// IsBreak reports whether the entry is a scheduled break rather than work.
func (s *ExecutableSession) IsBreak() bool {
	return s.Kind == KindShortBreak || s.Kind == KindLongBreak
}

// Terminal reports whether the entry has finished, either way.
func (s *ExecutableSession) Terminal() bool {
	return s.IsCompleted || s.IsCancelled
}

// QueueSnapshot is the persisted form of the whole queue state. Optional
// break-tracking fields default to "no break in progress" when absent, so
// snapshots written before those fields existed still restore.
type QueueSnapshot struct {
	Queue                []ExecutableSession `json:"queue"`
	CurrentIndex         int                 `json:"currentIndex"`
	Progress             float64             `json:"progress"`
	IsRunning            bool                `json:"isRunning"`
	IsPaused             bool                `json:"isPaused"`
	BreakStartedAt       *int64              `json:"breakStartedAt,omitempty"`
	CurrentBreakDuration int64               `json:"currentBreakDuration"`
}

// ArchivedSession is one line of a completed-plan summary.
type ArchivedSession struct {
	Title          string `json:"title"`
	Kind           string `json:"kind"`
	Duration       int    `json:"duration"`
	IsCompleted    bool   `json:"isCompleted"`
	IsCancelled    bool   `json:"isCancelled"`
	ActualDuration int    `json:"actualDuration"`
	BreakDuration  int    `json:"breakDuration"`
	CategoryID     string `json:"categoryId,omitempty"`
	IconName       string `json:"iconName,omitempty"`
	CompletedAt    int64  `json:"completedAt"`
}

// PlanArchive is the summary record written when a queue finishes.
type PlanArchive struct {
	UserID     string            `json:"-"`
	DateKey    string            `json:"dateKey"`
	PlanName   string            `json:"planName"`
	Sessions   []ArchivedSession `json:"sessions"`
	ArchivedAt int64             `json:"archivedAt"`
}
