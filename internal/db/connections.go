package db

import (
	"github.com/tgienger/rooted/internal/models"
)

const connectionColumns = `id, batch_id, project_id, source_task_id, target_task_id, label`

// CreateConnection stores an edge between two tasks of the same batch
func (s *Store) CreateConnection(batchID string, sourceTaskID, targetTaskID int64, label string) (*models.Connection, error) {
	result, err := s.q.Exec(`
		INSERT INTO connections (batch_id, source_task_id, target_task_id, label) VALUES (?, ?, ?, ?)
	`, batchID, sourceTaskID, targetTaskID, label)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Connection{ID: id, BatchID: batchID, SourceTaskID: sourceTaskID, TargetTaskID: targetTaskID, Label: label}, nil
}

// ConnectionExists reports whether an edge between the two tasks is already stored
func (s *Store) ConnectionExists(sourceTaskID, targetTaskID int64) (bool, error) {
	var n int
	err := s.q.QueryRow(`
		SELECT COUNT(*) FROM connections WHERE source_task_id = ? AND target_task_id = ?
	`, sourceTaskID, targetTaskID).Scan(&n)
	return n > 0, err
}

// ListOutgoing returns the edges leaving a task, in insertion order
func (s *Store) ListOutgoing(taskID int64) ([]models.Connection, error) {
	return s.queryConnections(`SELECT `+connectionColumns+` FROM connections WHERE source_task_id = ? ORDER BY id`, taskID)
}

// ListBatchConnections returns all edges created by one instantiation
func (s *Store) ListBatchConnections(batchID string) ([]models.Connection, error) {
	return s.queryConnections(`SELECT `+connectionColumns+` FROM connections WHERE batch_id = ? ORDER BY id`, batchID)
}

func (s *Store) queryConnections(query string, args ...any) ([]models.Connection, error) {
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []models.Connection
	for rows.Next() {
		var c models.Connection
		if err := rows.Scan(&c.ID, &c.BatchID, &c.ProjectID, &c.SourceTaskID, &c.TargetTaskID, &c.Label); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}
