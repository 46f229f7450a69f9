package db

import (
	"database/sql"
	"time"

	"github.com/tgienger/rooted/internal/models"
)

// RecordAnswer appends an answer to a task's answer log
func (s *Store) RecordAnswer(taskID int64, value string, at time.Time) (*models.Answer, error) {
	result, err := s.q.Exec(`INSERT INTO answers (task_id, answer, answered_at) VALUES (?, ?, ?)`, taskID, value, at)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Answer{ID: id, TaskID: taskID, Value: value, AnsweredAt: at}, nil
}

// LatestAnswer returns the most recently recorded answer for a task. ok is
// false when the task was never answered.
func (s *Store) LatestAnswer(taskID int64) (answer models.Answer, ok bool, err error) {
	err = s.q.QueryRow(`
		SELECT id, task_id, answer, answered_at FROM answers
		WHERE task_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, taskID).Scan(&answer.ID, &answer.TaskID, &answer.Value, &answer.AnsweredAt)
	if err == sql.ErrNoRows {
		return models.Answer{}, false, nil
	}
	if err != nil {
		return models.Answer{}, false, err
	}
	return answer, true, nil
}
