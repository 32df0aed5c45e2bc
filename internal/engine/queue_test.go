package engine

import (
	"testing"

	"hyperfocus/backend/internal/model"
)

func segmentPlan(n, shortEvery, longEvery int) model.FocusPlan {
	segments := make([]model.PlanSegment, n)
	for i := range segments {
		segments[i] = model.PlanSegment{
			Title:           "Deep Work",
			DurationMinutes: 25,
			CategoryID:      "cat-1",
			CategoryColor:   0xFF112233,
			IconName:        "Code",
		}
	}
	return model.FocusPlan{
		Segments:            segments,
		ShortBreakDuration:  5,
		ShortBreakFrequency: shortEvery,
		LongBreakDuration:   20,
		LongBreakFrequency:  longEvery,
	}
}

func kinds(queue []model.ExecutableSession) []string {
	out := make([]string, len(queue))
	for i := range queue {
		out[i] = queue[i].Kind
	}
	return out
}

func TestBuildQueueShortBreakCadence(t *testing.T) {
	// Four segments, short break after every segment, long break every
	// fourth. The long-break boundary lands only after the last segment, so
	// no long break appears and no break trails the queue.
	queue := BuildQueue(segmentPlan(4, 1, 4), "Morning", 1_000)

	want := []string{
		model.KindWork, model.KindShortBreak,
		model.KindWork, model.KindShortBreak,
		model.KindWork, model.KindShortBreak,
		model.KindWork,
	}
	got := kinds(queue)
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestBuildQueueLongBreakWinsTie(t *testing.T) {
	// Both frequencies divide the boundary after segment 2; exactly one
	// break is emitted and it is the long one.
	queue := BuildQueue(segmentPlan(3, 2, 2), "Plan", 0)

	want := []string{
		model.KindWork, model.KindWork, model.KindLongBreak, model.KindWork,
	}
	got := kinds(queue)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if queue[2].DurationMinutes != 20 {
		t.Fatalf("expected long break duration 20, got %d", queue[2].DurationMinutes)
	}
	if queue[2].Title != "Long Break" {
		t.Fatalf("expected long break title, got %q", queue[2].Title)
	}
}

func TestBuildQueueSchedule(t *testing.T) {
	start := int64(10_000)
	queue := BuildQueue(segmentPlan(3, 1, 4), "Plan", start)

	expected := start
	for i := range queue {
		if queue[i].ScheduledStart != expected {
			t.Fatalf("entry %d: expected start %d, got %d", i, expected, queue[i].ScheduledStart)
		}
		if queue[i].OriginalStart != queue[i].ScheduledStart {
			t.Fatalf("entry %d: originalStart %d != scheduledStart %d",
				i, queue[i].OriginalStart, queue[i].ScheduledStart)
		}
		expected += int64(queue[i].DurationMinutes) * minuteMillis
	}
}

func TestBuildQueueBreakCount(t *testing.T) {
	cases := []struct {
		n, short, long int
		wantBreaks     int
	}{
		{1, 1, 4, 0},
		{2, 1, 4, 1},
		{4, 2, 3, 2},
		{6, 2, 3, 3},
		{5, 3, 5, 1},
	}

	for _, tc := range cases {
		queue := BuildQueue(segmentPlan(tc.n, tc.short, tc.long), "Plan", 0)
		breaks := 0
		for i := range queue {
			if queue[i].IsBreak() {
				breaks++
			}
		}
		if breaks != tc.wantBreaks {
			t.Fatalf("n=%d s=%d l=%d: expected %d breaks, got %d (%v)",
				tc.n, tc.short, tc.long, tc.wantBreaks, breaks, kinds(queue))
		}
		if len(queue) != tc.n+tc.wantBreaks {
			t.Fatalf("n=%d: expected %d entries, got %d", tc.n, tc.n+tc.wantBreaks, len(queue))
		}
		if queue[len(queue)-1].Kind != model.KindWork {
			t.Fatalf("n=%d: queue must not end with a break", tc.n)
		}
	}
}

func TestBuildQueueFieldSnapshot(t *testing.T) {
	queue := BuildQueue(segmentPlan(2, 1, 4), "Evening", 0)

	work := queue[0]
	if work.CategoryID != "cat-1" || work.CategoryColor != 0xFF112233 || work.IconName != "Code" {
		t.Fatalf("work entry lost segment fields: %+v", work)
	}
	if work.PlanTitle != "Evening" {
		t.Fatalf("expected plan title Evening, got %q", work.PlanTitle)
	}
	if work.ID == "" || queue[1].ID == "" || work.ID == queue[1].ID {
		t.Fatal("entries must carry distinct ids")
	}

	pause := queue[1]
	if pause.CategoryID != "" {
		t.Fatalf("break entry must not carry a category id, got %q", pause.CategoryID)
	}
}
