package db

import (
	"database/sql"

	"github.com/tgienger/rooted/internal/models"
)

// CreateFocusLog records one focus session on a task
func (s *Store) CreateFocusLog(l models.FocusLog) (*models.FocusLog, error) {
	result, err := s.q.Exec(`
		INSERT INTO focus_logs (task_id, block_uid, planned_duration, actual_duration, started_at, ended_at, interrupted)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.TaskID, l.BlockUID, l.PlannedMinutes, l.ActualMinutes, l.StartedAt, l.EndedAt, l.Interrupted)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	l.ID = id
	return &l, nil
}

// AverageDuration returns the mean actual duration, in minutes, of every
// uninterrupted focus session on tasks made from the same block uid.
func (s *Store) AverageDuration(blockUID string) (float64, bool, error) {
	var avg sql.NullFloat64
	err := s.q.QueryRow(`
		SELECT AVG(actual_duration) FROM focus_logs
		WHERE block_uid = ? AND interrupted = 0 AND actual_duration > 0
	`, blockUID).Scan(&avg)
	if err != nil {
		return 0, false, err
	}
	return avg.Float64, avg.Valid, nil
}
