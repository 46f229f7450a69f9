package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

// ReleaseWaits completes every active wait task whose delay has passed by now
// and continues the flow from each. A wait that fails is rolled back and
// reported; the others are kept.
func (e *Engine) ReleaseWaits(now time.Time) (*Report, error) {
	report := &Report{}
	var failures []error
	err := e.db.InTx(func(s *db.Store) error {
		waits, err := s.ListTasksByStatus([]models.TaskStatus{models.StatusActive}, template.KindWait)
		if err != nil {
			return fmt.Errorf("release waits: %w", err)
		}
		for i := range waits {
			w := &waits[i]
			if w.AvailableAt != nil && w.AvailableAt.After(now) {
				continue
			}
			var sub *Report
			err := s.Savepoint(fmt.Sprintf("release_%d", w.ID), func() error {
				// an earlier release in this pass may have completed it
				current, err := getTask(s, "release waits", w.ID)
				if err != nil {
					return err
				}
				if current.Status != models.StatusActive {
					return nil
				}
				sub, err = e.run(s, current, now)
				return err
			})
			if err != nil {
				failures = append(failures, fmt.Errorf("wait %d: %w", w.ID, err))
				e.log.Printf("release wait %d: %v", w.ID, err)
				continue
			}
			if sub != nil {
				report.merge(sub)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, f := range report.Failures {
		failures = append(failures, f)
	}
	return report, errs.Partial("release waits", failures)
}

// RecordFocus logs a focus session on a task. Uninterrupted sessions feed the
// duration estimate of every task made from the same block.
func (e *Engine) RecordFocus(taskID int64, start, end time.Time, interrupted bool) (*models.FocusLog, error) {
	if end.Before(start) {
		return nil, errs.Validation("record focus", "session ends before it starts")
	}
	task, err := getTask(e.db.Store, "record focus", taskID)
	if err != nil {
		return nil, err
	}
	minutes := int(math.Round(end.Sub(start).Minutes()))
	l, err := e.db.CreateFocusLog(models.FocusLog{
		TaskID:         task.ID,
		BlockUID:       task.BlockUID,
		PlannedMinutes: task.ExpectedDuration,
		ActualMinutes:  minutes,
		StartedAt:      start,
		EndedAt:        end,
		Interrupted:    interrupted,
	})
	if err != nil {
		return nil, fmt.Errorf("record focus: %w", err)
	}
	return l, nil
}
