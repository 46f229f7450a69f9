package db

import (
	"github.com/tgienger/rooted/internal/models"
)

// CreateBatch registers a new instantiation of a template
func (s *Store) CreateBatch(id, templateName string) error {
	_, err := s.q.Exec(`INSERT INTO batches (id, template_name) VALUES (?, ?)`, id, templateName)
	return err
}

// GetBatch retrieves a batch by ID
func (s *Store) GetBatch(id string) (*models.Batch, error) {
	b := &models.Batch{}
	err := s.q.QueryRow(`SELECT id, template_name, created_at FROM batches WHERE id = ?`, id).
		Scan(&b.ID, &b.TemplateName, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// PendingBatches returns the batches that have not been bootstrapped into a
// project yet, oldest first
func (s *Store) PendingBatches() ([]models.Batch, error) {
	rows, err := s.q.Query(`
		SELECT b.id, b.template_name, b.created_at FROM batches b
		WHERE NOT EXISTS (SELECT 1 FROM projects p WHERE p.batch_id = b.id)
		ORDER BY b.created_at, b.rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []models.Batch
	for rows.Next() {
		var b models.Batch
		if err := rows.Scan(&b.ID, &b.TemplateName, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
