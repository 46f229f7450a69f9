package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

// RenameProject changes a project's title and description
func (e *Engine) RenameProject(id int64, title, description string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errs.Validation("rename", "project title is empty")
	}

	var project *models.Project
	err := e.db.InTx(func(s *db.Store) error {
		if _, err := s.GetProject(id); errors.Is(err, sql.ErrNoRows) {
			return errs.NotFound("rename", "project %d", id)
		} else if err != nil {
			return fmt.Errorf("rename: load project %d: %w", id, err)
		}
		if err := s.UpdateProject(id, title, description); err != nil {
			return fmt.Errorf("rename: update project %d: %w", id, err)
		}
		var err error
		project, err = s.GetProject(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// TaskEdit lists the scheduling inputs to change. Nil fields keep their value.
type TaskEdit struct {
	Priority      *int
	Duration      *int // minutes; 0 falls back to the planner default
	RiskFactor    *float64
	DeadlineType  *models.DeadlineType
	Deadline      *time.Time
	ClearDeadline bool
}

// EditTask updates the scheduling inputs of an open plain task. A planned
// task keeps its slot until the next planning pass.
func (e *Engine) EditTask(id int64, edit TaskEdit) (*models.Task, error) {
	var task *models.Task
	err := e.db.InTx(func(s *db.Store) error {
		var err error
		task, err = getTask(s, "edit", id)
		if err != nil {
			return err
		}
		if task.Kind != template.KindTask {
			return errs.Validation("edit", "task %d is a %s task and is not scheduled", id, task.Kind)
		}
		if task.Status == models.StatusCompleted {
			return errs.Validation("edit", "task %d is already completed", id)
		}

		if p := edit.Priority; p != nil {
			if *p < 1 || *p > 5 {
				return errs.Validation("edit", "priority %d: want 1-5", *p)
			}
			task.Priority = *p
		}
		if d := edit.Duration; d != nil {
			switch {
			case *d < 0:
				return errs.Validation("edit", "negative duration %d", *d)
			case *d == 0:
				task.ExpectedDuration = nil
			default:
				v := *d
				task.ExpectedDuration = &v
			}
		}
		if r := edit.RiskFactor; r != nil {
			if *r < 0 {
				return errs.Validation("edit", "negative risk factor %g", *r)
			}
			task.RiskFactor = *r
		}
		if dt := edit.DeadlineType; dt != nil {
			task.DeadlineType = *dt
		}
		switch {
		case edit.ClearDeadline:
			task.Deadline = nil
		case edit.Deadline != nil:
			d := *edit.Deadline
			task.Deadline = &d
		}

		if err := s.UpdateTaskScheduling(*task); err != nil {
			return fmt.Errorf("edit: update task %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Printf("edited task %d: priority %d, deadline type %s", task.ID, task.Priority, task.DeadlineType)
	return task, nil
}
