package planner

import (
	"fmt"
	"time"

	"github.com/tgienger/rooted/internal/config"
)

// Window is the part of each day tasks may be planned in, as offsets from midnight
type Window struct {
	Start        time.Duration
	End          time.Duration
	SkipWeekends bool
}

func DefaultWindow() Window {
	return Window{Start: 8 * time.Hour, End: 17 * time.Hour}
}

// WindowFromConfig parses the configured workday
func WindowFromConfig(c config.PlannerConfig) (Window, error) {
	start, err := config.ParseClock(c.WorkdayStart)
	if err != nil {
		return Window{}, fmt.Errorf("workday start: %w", err)
	}
	end, err := config.ParseClock(c.WorkdayEnd)
	if err != nil {
		return Window{}, fmt.Errorf("workday end: %w", err)
	}
	if end <= start {
		return Window{}, fmt.Errorf("workday ends before it starts")
	}
	return Window{Start: start, End: end, SkipWeekends: c.SkipWeekends}, nil
}

// Length is the number of minutes in one workday
func (w Window) Length() int {
	return int((w.End - w.Start) / time.Minute)
}

func (w Window) startOf(day time.Time) time.Time { return at(day, w.Start) }
func (w Window) endOf(day time.Time) time.Time   { return at(day, w.End) }

func at(day time.Time, offset time.Duration) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(offset/time.Hour), int(offset%time.Hour/time.Minute), 0, 0, day.Location())
}

func (w Window) workday(day time.Time) bool {
	if !w.SkipWeekends {
		return true
	}
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// nextStart returns the start of the first workday after day
func (w Window) nextStart(day time.Time) time.Time {
	next := at(day, 0).AddDate(0, 0, 1)
	for !w.workday(next) {
		next = next.AddDate(0, 0, 1)
	}
	return w.startOf(next)
}

// clamp moves now into the current workday: before the start snaps to the
// start, at or after the end rolls to the next workday.
func (w Window) clamp(now time.Time) time.Time {
	switch {
	case !w.workday(now):
		return w.nextStart(now)
	case now.Before(w.startOf(now)):
		return w.startOf(now)
	case !now.Before(w.endOf(now)):
		return w.nextStart(now)
	}
	return now
}

// SkipReason says why a ranked task was not placed
type SkipReason string

const (
	SkipNoDuration    SkipReason = "no_duration"
	SkipLongerThanDay SkipReason = "longer_than_workday"
	SkipBeyondHorizon SkipReason = "beyond_horizon"
)

// Slot is one placed task
type Slot struct {
	Ranked
	Start time.Time
	End   time.Time
	Day   int // 0 for the first planned workday
}

type Skip struct {
	Ranked
	Reason SkipReason
}

// Plan is the outcome of one scheduling run, in ranked order
type Plan struct {
	Slots   []Slot
	Skipped []Skip
}

// Schedule places ranked tasks greedily, in order, into consecutive workdays
// starting from now. A task may end exactly when the workday ends. A task that
// does not fit in the rest of the day moves the cursor to the next workday;
// once horizonDays workdays are used up every remaining task is skipped.
func Schedule(ranked []Ranked, w Window, horizonDays int, now time.Time) Plan {
	var plan Plan
	cursor := w.clamp(now)
	day := 0
	full := horizonDays < 1

	for _, r := range ranked {
		switch {
		case full:
			plan.Skipped = append(plan.Skipped, Skip{Ranked: r, Reason: SkipBeyondHorizon})
			continue
		case r.Minutes <= 0:
			plan.Skipped = append(plan.Skipped, Skip{Ranked: r, Reason: SkipNoDuration})
			continue
		case r.Minutes > w.Length():
			plan.Skipped = append(plan.Skipped, Skip{Ranked: r, Reason: SkipLongerThanDay})
			continue
		}

		d := time.Duration(r.Minutes) * time.Minute
		end := cursor.Add(d)
		if end.After(w.endOf(cursor)) {
			day++
			if day >= horizonDays {
				full = true
				plan.Skipped = append(plan.Skipped, Skip{Ranked: r, Reason: SkipBeyondHorizon})
				continue
			}
			cursor = w.nextStart(cursor)
			end = cursor.Add(d)
		}

		plan.Slots = append(plan.Slots, Slot{Ranked: r, Start: cursor, End: end, Day: day})
		cursor = end
	}
	return plan
}
