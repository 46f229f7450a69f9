package db

import (
	"database/sql"
	"time"

	"github.com/tgienger/rooted/internal/models"
)

const projectColumns = `id, title, description, template_name, batch_id, status, start_date, completed_at, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	p := &models.Project{}
	var completed sql.NullTime
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.TemplateName, &p.BatchID, &p.Status,
		&p.StartDate, &completed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CompletedAt = timePtr(completed)
	return p, nil
}

// CreateProject creates a new running project
func (s *Store) CreateProject(title, templateName, batchID string, startDate time.Time) (*models.Project, error) {
	result, err := s.q.Exec(`
		INSERT INTO projects (title, template_name, batch_id, status, start_date) VALUES (?, ?, ?, ?, ?)
	`, title, templateName, batchID, models.ProjectRunning, startDate)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.GetProject(id)
}

// GetProject retrieves a project by ID
func (s *Store) GetProject(id int64) (*models.Project, error) {
	return scanProject(s.q.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
}

// ListProjects returns all projects, most recently updated first
func (s *Store) ListProjects() ([]models.Project, error) {
	rows, err := s.q.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProject updates a project's title and description
func (s *Store) UpdateProject(id int64, title, description string) error {
	_, err := s.q.Exec(`
		UPDATE projects SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, title, description, id)
	return err
}

// CompleteProject marks the project's flow as finished
func (s *Store) CompleteProject(id int64, at time.Time) error {
	_, err := s.q.Exec(`
		UPDATE projects SET status = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, models.ProjectCompleted, at, id)
	return err
}

// DeleteProject deletes a project, its batch and, by cascade, its blocks,
// tasks and connections
func (s *Store) DeleteProject(id int64) error {
	if _, err := s.q.Exec("DELETE FROM batches WHERE id = (SELECT batch_id FROM projects WHERE id = ?)", id); err != nil {
		return err
	}
	_, err := s.q.Exec("DELETE FROM projects WHERE id = ?", id)
	return err
}

// ProjectCount returns the number of projects
func (s *Store) ProjectCount() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}

// AttachBatch assigns every unattached block, task and connection of a batch
// to the project. It returns the number of tasks attached.
func (s *Store) AttachBatch(batchID string, projectID int64) (int64, error) {
	if _, err := s.q.Exec(`UPDATE blocks SET project_id = ? WHERE batch_id = ? AND project_id IS NULL`, projectID, batchID); err != nil {
		return 0, err
	}
	if _, err := s.q.Exec(`UPDATE connections SET project_id = ? WHERE batch_id = ? AND project_id IS NULL`, projectID, batchID); err != nil {
		return 0, err
	}
	result, err := s.q.Exec(`
		UPDATE tasks SET project_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE batch_id = ? AND project_id IS NULL
	`, projectID, batchID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
