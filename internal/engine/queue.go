package engine

import (
	"github.com/google/uuid"

	"hyperfocus/backend/internal/model"
)

const minuteMillis = int64(60_000)

// BuildQueue expands a plan template into the concrete, time-stamped sequence
// of executable sessions starting at startMillis. Breaks are interleaved after
// each work segment except the last: a long break when the 1-based segment
// number divides by the long-break frequency, otherwise a short break when it
// divides by the short-break frequency. The long-break check wins when both
// divide. Pure function; output order is build order.
func BuildQueue(plan model.FocusPlan, planTitle string, startMillis int64) []model.ExecutableSession {
	queue := make([]model.ExecutableSession, 0, 2*len(plan.Segments))
	currentTime := startMillis

	for i, segment := range plan.Segments {
		workStart := currentTime
		queue = append(queue, model.ExecutableSession{
			ID:              uuid.NewString(),
			Kind:            model.KindWork,
			Title:           segment.Title,
			DurationMinutes: segment.DurationMinutes,
			CategoryID:      segment.CategoryID,
			CategoryColor:   segment.CategoryColor,
			IconName:        segment.IconName,
			ScheduledStart:  workStart,
			OriginalStart:   workStart,
			FocusDuration:   segment.DurationMinutes,
			PlanTitle:       planTitle,
		})
		currentTime += int64(segment.DurationMinutes) * minuteMillis

		if i == len(plan.Segments)-1 {
			break
		}

		kind := ""
		breakMinutes := 0
		switch {
		case plan.LongBreakFrequency >= 1 && (i+1)%plan.LongBreakFrequency == 0:
			kind = model.KindLongBreak
			breakMinutes = plan.LongBreakDuration
		case plan.ShortBreakFrequency >= 1 && (i+1)%plan.ShortBreakFrequency == 0:
			kind = model.KindShortBreak
			breakMinutes = plan.ShortBreakDuration
		}
		if kind == "" {
			continue
		}

		title := "Short Break"
		if kind == model.KindLongBreak {
			title = "Long Break"
		}
		breakStart := currentTime
		queue = append(queue, model.ExecutableSession{
			ID:              uuid.NewString(),
			Kind:            kind,
			Title:           title,
			DurationMinutes: breakMinutes,
			CategoryColor:   model.BreakCategoryColor,
			ScheduledStart:  breakStart,
			OriginalStart:   breakStart,
			FocusDuration:   breakMinutes,
			PlanTitle:       planTitle,
		})
		currentTime += int64(breakMinutes) * minuteMillis
	}

	return queue
}
