package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

// Batch is the result of instantiating a template
type Batch struct {
	ID           string
	TemplateName string
	StartTaskID  int64
	TaskIDs      map[string]int64 // block uid -> task id
	Connections  []models.Connection

	SkippedUnresolved int // connections naming a uid the template does not define
	SkippedDuplicate  int // second and later edges between the same two tasks
}

// Skipped returns the integrity gaps found while wiring connections, or nil
func (b *Batch) Skipped() error {
	if b.SkippedUnresolved == 0 && b.SkippedDuplicate == 0 {
		return nil
	}
	return errs.Integrity("instantiate", "skipped %d unresolved and %d duplicate connections",
		b.SkippedUnresolved, b.SkippedDuplicate)
}

// Instantiate creates one inactive task per block and one connection per
// distinct resolvable edge. Nothing is written if the template is invalid or
// any insert fails.
func (e *Engine) Instantiate(tpl *template.Template) (*Batch, error) {
	var batch *Batch
	err := e.db.InTx(func(s *db.Store) error {
		var err error
		batch, err = e.instantiate(s, tpl)
		return err
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (e *Engine) instantiate(s *db.Store, tpl *template.Template) (*Batch, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	batch := &Batch{
		ID:           uuid.NewString(),
		TemplateName: tpl.Name,
		TaskIDs:      make(map[string]int64, len(tpl.Blocks)),
	}
	if err := s.CreateBatch(batch.ID, tpl.Name); err != nil {
		return nil, fmt.Errorf("instantiate: create batch: %w", err)
	}

	for _, b := range tpl.Blocks {
		uid := b.Header().UID
		if err := s.CreateBlock(batch.ID, b); err != nil {
			return nil, fmt.Errorf("instantiate: store block %s: %w", uid, err)
		}
		task, err := s.CreateTask(taskFor(batch.ID, b))
		if err != nil {
			return nil, fmt.Errorf("instantiate: create task for block %s: %w", uid, err)
		}
		batch.TaskIDs[uid] = task.ID
		if b.Kind() == template.KindStart {
			batch.StartTaskID = task.ID
		}
	}

	for _, c := range tpl.Connections {
		src, okSrc := batch.TaskIDs[c.SourceUID]
		tgt, okTgt := batch.TaskIDs[c.TargetUID]
		if !okSrc || !okTgt {
			batch.SkippedUnresolved++
			e.log.Printf("instantiate %s: skipping connection %s -> %s: unknown block", tpl.Name, c.SourceUID, c.TargetUID)
			continue
		}
		dup, err := s.ConnectionExists(src, tgt)
		if err != nil {
			return nil, fmt.Errorf("instantiate: look up connection %s -> %s: %w", c.SourceUID, c.TargetUID, err)
		}
		if dup {
			batch.SkippedDuplicate++
			e.log.Printf("instantiate %s: skipping duplicate connection %s -> %s", tpl.Name, c.SourceUID, c.TargetUID)
			continue
		}

		conn, err := s.CreateConnection(batch.ID, src, tgt, c.Label)
		if err != nil {
			return nil, fmt.Errorf("instantiate: connect %s -> %s: %w", c.SourceUID, c.TargetUID, err)
		}
		batch.Connections = append(batch.Connections, *conn)
	}

	e.log.Printf("instantiated %q as batch %s: %d tasks, %d connections", tpl.Name, batch.ID, len(batch.TaskIDs), len(batch.Connections))
	return batch, nil
}

// taskFor copies the scheduling inputs a block carries onto its runtime task
func taskFor(batchID string, b template.Block) models.Task {
	m := b.Header()
	t := models.Task{
		BatchID:  batchID,
		BlockUID: m.UID,
		Kind:     b.Kind(),
		Name:     m.Name,
		Status:   models.StatusInactive,
	}
	if t.Name == "" {
		t.Name = m.UID
	}

	switch v := b.(type) {
	case template.TaskBlock:
		t.Priority = v.Priority
		t.Deadline = v.Deadline
		t.DeadlineType = models.ParseDeadlineType(v.DeadlineType)
		t.RiskFactor = v.RiskFactor
		if v.Duration > 0 {
			d := v.Duration
			t.ExpectedDuration = &d
		}
	case template.WaitBlock:
		d := v.DelayDays
		t.DelayDays = &d
	}
	return t
}

// Answer records value as the latest answer of a popup, start or end task
func (e *Engine) Answer(taskID int64, value string) (*models.Answer, error) {
	var answer *models.Answer
	err := e.db.InTx(func(s *db.Store) error {
		var err error
		answer, err = e.answer(s, taskID, value)
		return err
	})
	return answer, err
}

func (e *Engine) answer(s *db.Store, taskID int64, value string) (*models.Answer, error) {
	task, err := getTask(s, "answer", taskID)
	if err != nil {
		return nil, err
	}
	if !task.Kind.Answers() {
		return nil, errs.Validation("answer", "task %d is a %s task and takes no answer", taskID, task.Kind)
	}
	if task.Status == models.StatusCompleted {
		return nil, errs.Validation("answer", "task %d is already completed", taskID)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errs.Validation("answer", "empty answer for task %d", taskID)
	}
	answer, err := s.RecordAnswer(taskID, value, e.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}
	return answer, nil
}

// Bootstrap turns an instantiated batch into a project once its start task
// has been answered. The answer becomes the project title, the batch's tasks
// are attached to the project and the flow runs from the start task.
//
// A partial fan-out failure returns the project and report together with an
// errs.ErrPartialFailure error.
func (e *Engine) Bootstrap(batchID string) (*models.Project, *Report, error) {
	var (
		project *models.Project
		report  *Report
	)
	err := e.db.InTx(func(s *db.Store) error {
		var err error
		project, report, err = e.bootstrap(s, batchID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return project, report, report.Err("bootstrap")
}

func (e *Engine) bootstrap(s *db.Store, batchID string) (*models.Project, *Report, error) {
	start, err := s.FindStartTask(batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, errs.Validation("bootstrap", "batch %s has no start task", batchID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	if start.ProjectID != nil || start.Status == models.StatusCompleted {
		return nil, nil, errs.Validation("bootstrap", "batch %s is already a project", batchID)
	}

	answer, ok, err := s.LatestAnswer(start.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	title := strings.TrimSpace(answer.Value)
	if !ok || title == "" {
		return nil, nil, errs.Validation("bootstrap", "start task %d has no project name yet", start.ID)
	}

	templateName := ""
	if b, err := s.GetBatch(batchID); err == nil {
		templateName = b.TemplateName
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}

	now := e.clock.Now()
	project, err := s.CreateProject(title, templateName, batchID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: create project: %w", err)
	}
	n, err := s.AttachBatch(batchID, project.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: attach tasks: %w", err)
	}
	start.ProjectID = &project.ID
	e.log.Printf("project %d %q created from batch %s with %d tasks", project.ID, title, batchID, n)

	report, err := e.run(s, start, now)
	if err != nil {
		return nil, nil, err
	}
	return project, report, nil
}

// StartProject instantiates tpl, answers its start task with name and
// bootstraps the project, all in one transaction.
func (e *Engine) StartProject(tpl *template.Template, name string) (*models.Project, *Report, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, errs.Validation("start project", "empty project name")
	}
	var (
		project *models.Project
		report  *Report
	)
	err := e.db.InTx(func(s *db.Store) error {
		batch, err := e.instantiate(s, tpl)
		if err != nil {
			return err
		}
		if _, err := e.answer(s, batch.StartTaskID, name); err != nil {
			return err
		}
		project, report, err = e.bootstrap(s, batch.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return project, report, report.Err("start project")
}
