package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

// FilterResult is the outcome of evaluating a filter task
type FilterResult struct {
	QuestionUID string
	Answered    bool   // false while the question has no recorded answer
	Answer      string // latest answer, when Answered
	Result      bool
}

// EvaluateFilter applies a filter's predicate to the latest answer of its
// question without changing anything.
func (e *Engine) EvaluateFilter(taskID int64) (FilterResult, error) {
	task, err := getTask(e.db.Store, "evaluate filter", taskID)
	if err != nil {
		return FilterResult{}, err
	}
	return evaluate(e.db.Store, task)
}

func evaluate(s *db.Store, task *models.Task) (FilterResult, error) {
	if task.Kind != template.KindFilter {
		return FilterResult{}, errs.Validation("evaluate filter", "task %d is a %s task", task.ID, task.Kind)
	}
	block, err := s.GetBlock(task.BatchID, task.BlockUID)
	if errors.Is(err, sql.ErrNoRows) {
		return FilterResult{}, errs.NotFound("evaluate filter", "block %s of task %d", task.BlockUID, task.ID)
	}
	if err != nil {
		return FilterResult{}, fmt.Errorf("evaluate filter %d: %w", task.ID, err)
	}
	f, ok := block.(template.FilterBlock)
	if !ok {
		return FilterResult{}, errs.Validation("evaluate filter", "block %s is a %s block", task.BlockUID, block.Kind())
	}

	res := FilterResult{QuestionUID: f.QuestionUID}
	if f.QuestionUID == "" || strings.TrimSpace(f.Value) == "" {
		return res, errs.Validation("evaluate filter", "filter %d is missing its question or value", task.ID)
	}
	op, ok := template.ParseOperator(string(f.Operator))
	if !ok {
		return res, errs.Validation("evaluate filter", "filter %d has unknown operator %q", task.ID, f.Operator)
	}

	question, err := s.FindTaskByBlock(task.BatchID, f.QuestionUID)
	if errors.Is(err, sql.ErrNoRows) {
		return res, errs.NotFound("evaluate filter", "question %s of filter %d", f.QuestionUID, task.ID)
	}
	if err != nil {
		return res, fmt.Errorf("evaluate filter %d: %w", task.ID, err)
	}
	answer, answered, err := s.LatestAnswer(question.ID)
	if err != nil {
		return res, fmt.Errorf("evaluate filter %d: %w", task.ID, err)
	}
	if !answered {
		return res, nil
	}

	res.Answered = true
	res.Answer = answer.Value
	res.Result = op.Apply(answer.Value, f.Value)
	return res, nil
}
