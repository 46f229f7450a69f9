package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

// Complete marks a task done and activates the successors its outgoing
// connections select. Popup and end tasks need a recorded answer and filter
// tasks an answered question; otherwise nothing is written. Only active or
// planned tasks can be completed. A start task is completed by Bootstrap.
//
// A partial fan-out failure returns the report together with an
// errs.ErrPartialFailure error.
func (e *Engine) Complete(taskID int64) (*Report, error) {
	var report *Report
	err := e.db.InTx(func(s *db.Store) error {
		task, err := getTask(s, "complete", taskID)
		if err != nil {
			return err
		}
		if task.Status == models.StatusCompleted {
			return errs.Validation("complete", "task %d is already completed", taskID)
		}
		if task.Kind == template.KindStart {
			return errs.Validation("complete", "task %d is a start task; answer it to start the project", taskID)
		}
		if task.Status == models.StatusInactive {
			return errs.Validation("complete", "task %d has not been reached yet", taskID)
		}
		report, err = e.run(s, task, e.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(report.Failures) > 0 {
		e.log.Printf("complete %d: %d successor(s) failed", taskID, len(report.Failures))
	}
	return report, report.Err("complete")
}

// run starts a traversal pass rooted at task
func (e *Engine) run(s *db.Store, task *models.Task, now time.Time) (*Report, error) {
	t := &traversal{
		e:      e,
		s:      s,
		now:    now,
		report: &Report{},
		path:   make(map[int64]bool),
	}
	if err := t.complete(task, true); err != nil {
		return nil, err
	}
	return t.report, nil
}

type traversal struct {
	e      *Engine
	s      *db.Store
	now    time.Time
	report *Report
	path   map[int64]bool // tasks completed on the way to the current one
}

// branch holds what a completed task's edges are selected by
type branch struct {
	kind   template.Kind
	answer string
	result bool
}

// complete requires input before writing anything, so a refusal on the root
// leaves the database untouched.
func (t *traversal) complete(task *models.Task, root bool) error {
	br, err := t.branchInput(task)
	if err != nil {
		return err
	}

	t.path[task.ID] = true
	defer delete(t.path, task.ID)

	if err := t.s.CompleteTask(task.ID, t.now); err != nil {
		return fmt.Errorf("complete task %d: %w", task.ID, err)
	}
	t.report.Completed = append(t.report.Completed, task.ID)

	if task.Kind == template.KindEnd && task.ProjectID != nil {
		if err := t.s.CompleteProject(*task.ProjectID, t.now); err != nil {
			return fmt.Errorf("complete project %d: %w", *task.ProjectID, err)
		}
		t.e.log.Printf("project %d completed by end task %d", *task.ProjectID, task.ID)
	}

	outgoing, err := t.s.ListOutgoing(task.ID)
	if err != nil {
		return fmt.Errorf("outgoing connections of task %d: %w", task.ID, err)
	}
	if len(outgoing) == 0 {
		if root {
			t.report.EndOfFlow = true
		}
		return nil
	}

	for _, c := range br.selectEdges(outgoing) {
		mark := t.report.mark()
		err := t.s.Savepoint(fmt.Sprintf("activate_%d", c.ID), func() error {
			return t.activate(c)
		})
		if err != nil {
			t.report.rewind(mark)
			t.report.Failures = append(t.report.Failures, Failure{Connection: c, Err: err})
			t.e.log.Printf("activate task %d from %d: %v", c.TargetTaskID, c.SourceTaskID, err)
		}
	}
	return nil
}

func (t *traversal) branchInput(task *models.Task) (branch, error) {
	br := branch{kind: task.Kind}
	switch task.Kind {
	case template.KindPopup, template.KindEnd:
		answer, ok, err := t.s.LatestAnswer(task.ID)
		if err != nil {
			return br, fmt.Errorf("answer of task %d: %w", task.ID, err)
		}
		if !ok {
			return br, errs.Validation("complete", "%s task %d has no answer", task.Kind, task.ID)
		}
		br.answer = answer.Value
	case template.KindFilter:
		res, err := evaluate(t.s, task)
		if err != nil {
			return br, err
		}
		if !res.Answered {
			return br, errs.Validation("complete", "filter %d: question %s is not answered", task.ID, res.QuestionUID)
		}
		br.result = res.Result
	}
	return br, nil
}

// selectEdges picks the connections a completed task follows. Popup and end
// tasks follow the edges labelled with the answer, or the unlabelled ones
// when no label matches. Filters follow yes/no labels matching their result
// and unlabelled edges only when the result is true. Every other kind
// follows all edges.
func (br branch) selectEdges(conns []models.Connection) []models.Connection {
	if !br.kind.Branches() {
		return conns
	}
	var picked []models.Connection
	switch br.kind {
	case template.KindPopup, template.KindEnd:
		for _, c := range conns {
			if template.MatchLabel(c.Label, br.answer) {
				picked = append(picked, c)
			}
		}
		if len(picked) == 0 {
			for _, c := range conns {
				if strings.TrimSpace(c.Label) == "" {
					picked = append(picked, c)
				}
			}
		}
	case template.KindFilter:
		for _, c := range conns {
			if v, ok := template.BoolLabel(c.Label); ok {
				if v == br.result {
					picked = append(picked, c)
				}
			} else if strings.TrimSpace(c.Label) == "" && br.result {
				picked = append(picked, c)
			}
		}
	}
	return picked
}

// activate moves the target of c into the flow. Filters whose question is
// already answered are completed right away and the pass continues from them.
func (t *traversal) activate(c models.Connection) error {
	target, err := getTask(t.s, "activate", c.TargetTaskID)
	if err != nil {
		return err
	}
	if t.path[target.ID] {
		return errs.Validation("activate", "cycle: task %d leads back to task %d", c.SourceTaskID, target.ID)
	}
	if target.Status != models.StatusInactive {
		t.report.Joined = append(t.report.Joined, target.ID)
		return nil
	}

	if err := t.s.SetTaskStatus(target.ID, models.StatusActive); err != nil {
		return fmt.Errorf("activate task %d: %w", target.ID, err)
	}
	target.Status = models.StatusActive
	t.report.Activated = append(t.report.Activated, target.ID)

	switch target.Kind {
	case template.KindWait:
		days := 0
		if target.DelayDays != nil {
			days = *target.DelayDays
		}
		if err := t.s.SetAvailableAt(target.ID, t.now.AddDate(0, 0, days)); err != nil {
			return fmt.Errorf("schedule wait %d: %w", target.ID, err)
		}
	case template.KindFilter:
		res, err := evaluate(t.s, target)
		if err != nil {
			return err
		}
		if !res.Answered {
			t.report.Pending = append(t.report.Pending, target.ID)
			return nil
		}
		return t.complete(target, false)
	}
	return nil
}
