package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

const taskColumns = `id, batch_id, project_id, block_uid, type, name, status, priority, deadline,
	deadline_type, deadline_group, risk_factor, leftover, expected_duration, delay_days, available_at,
	planned_start, planned_end, completed_at, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	t := &models.Task{}
	var (
		projectID                           sql.NullInt64
		duration, delay                     sql.NullInt64
		deadline, availableAt               sql.NullTime
		plannedStart, plannedEnd, completed sql.NullTime
	)
	err := row.Scan(&t.ID, &t.BatchID, &projectID, &t.BlockUID, &t.Kind, &t.Name, &t.Status, &t.Priority,
		&deadline, &t.DeadlineType, &t.DeadlineGroup, &t.RiskFactor, &t.Leftover, &duration, &delay,
		&availableAt, &plannedStart, &plannedEnd, &completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if projectID.Valid {
		id := projectID.Int64
		t.ProjectID = &id
	}
	t.ExpectedDuration = intPtr(duration)
	t.DelayDays = intPtr(delay)
	t.Deadline = timePtr(deadline)
	t.AvailableAt = timePtr(availableAt)
	t.PlannedStart = timePtr(plannedStart)
	t.PlannedEnd = timePtr(plannedEnd)
	t.CompletedAt = timePtr(completed)
	return t, nil
}

func (s *Store) queryTasks(query string, args ...any) ([]models.Task, error) {
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a task row. ID, timestamps and planning fields are assigned
// by the database.
func (s *Store) CreateTask(t models.Task) (*models.Task, error) {
	if t.Status == "" {
		t.Status = models.StatusInactive
	}
	if t.DeadlineType == "" {
		t.DeadlineType = models.DeadlineNone
	}
	result, err := s.q.Exec(`
		INSERT INTO tasks (batch_id, project_id, block_uid, type, name, status, priority, deadline,
			deadline_type, risk_factor, expected_duration, delay_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.BatchID, t.ProjectID, t.BlockUID, t.Kind, t.Name, t.Status, t.Priority, t.Deadline,
		t.DeadlineType, t.RiskFactor, t.ExpectedDuration, t.DelayDays)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.GetTask(id)
}

// GetTask retrieves a task by ID
func (s *Store) GetTask(id int64) (*models.Task, error) {
	return scanTask(s.q.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
}

// FindTaskByBlock returns the task instantiated from block uid in a batch
func (s *Store) FindTaskByBlock(batchID, uid string) (*models.Task, error) {
	return scanTask(s.q.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE batch_id = ? AND block_uid = ?`, batchID, uid))
}

// FindStartTask returns the start task of a batch
func (s *Store) FindStartTask(batchID string) (*models.Task, error) {
	return scanTask(s.q.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE batch_id = ? AND type = ? ORDER BY id LIMIT 1`,
		batchID, template.KindStart))
}

// ListTasks returns all tasks for a project in insertion order
func (s *Store) ListTasks(projectID int64) ([]models.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY id`, projectID)
}

// ListBatchTasks returns all tasks created by one instantiation, in insertion order
func (s *Store) ListBatchTasks(batchID string) ([]models.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE batch_id = ? ORDER BY id`, batchID)
}

// ListTasksByStatus returns tasks in any of the given states, optionally
// restricted to some kinds, in insertion order
func (s *Store) ListTasksByStatus(statuses []models.TaskStatus, kinds ...template.Kind) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status IN (` + placeholders(len(statuses)) + `)`
	args := make([]any, 0, len(statuses)+len(kinds))
	for _, st := range statuses {
		args = append(args, st)
	}
	if len(kinds) > 0 {
		query += ` AND type IN (` + placeholders(len(kinds)) + `)`
		for _, k := range kinds {
			args = append(args, k)
		}
	}
	query += ` ORDER BY id`
	return s.queryTasks(query, args...)
}

// NextActiveTask returns the active task that the interactive planner should
// look at first: highest priority, then earliest deadline (none last).
func (s *Store) NextActiveTask() (*models.Task, error) {
	return scanTask(s.q.QueryRow(`
		SELECT ` + taskColumns + ` FROM tasks
		WHERE status = 'active'
		ORDER BY priority DESC, deadline IS NULL, deadline ASC, id ASC
		LIMIT 1
	`))
}

// SetTaskStatus moves a task to a new status
func (s *Store) SetTaskStatus(id int64, status models.TaskStatus) error {
	return s.execOne(`
		UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
}

// CompleteTask marks a task completed and clears its availability gate
func (s *Store) CompleteTask(id int64, at time.Time) error {
	return s.execOne(`
		UPDATE tasks SET status = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, models.StatusCompleted, at, id)
}

// SetAvailableAt records when a wait task's delay has passed
func (s *Store) SetAvailableAt(id int64, at time.Time) error {
	return s.execOne(`UPDATE tasks SET available_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, at, id)
}

// SetPlan stores a planned window and moves the task to planned
func (s *Store) SetPlan(id int64, start, end time.Time, group string) error {
	return s.execOne(`
		UPDATE tasks SET status = ?, planned_start = ?, planned_end = ?, deadline_group = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, models.StatusPlanned, start, end, group, id)
}

// ClearPlan drops a task's planned window and returns it to active
func (s *Store) ClearPlan(id int64, group string) error {
	return s.execOne(`
		UPDATE tasks SET status = ?, planned_start = NULL, planned_end = NULL, deadline_group = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, models.StatusActive, group, id)
}

// SetLeftover flags a task as carried over from an earlier planning pass
func (s *Store) SetLeftover(id int64, leftover bool) error {
	return s.execOne(`UPDATE tasks SET leftover = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, leftover, id)
}

// UpdateTaskScheduling edits the scoring inputs of a task
func (s *Store) UpdateTaskScheduling(t models.Task) error {
	return s.execOne(`
		UPDATE tasks SET priority = ?, deadline = ?, deadline_type = ?, risk_factor = ?, expected_duration = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, t.Priority, t.Deadline, t.DeadlineType, t.RiskFactor, t.ExpectedDuration, t.ID)
}

// CountTasksByStatus returns how many tasks of a project are in each status
func (s *Store) CountTasksByStatus(projectID int64) (map[models.TaskStatus]int, error) {
	rows, err := s.q.Query(`SELECT status, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY status`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status models.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// execOne runs an update that must touch exactly one row
func (s *Store) execOne(query string, args ...any) error {
	result, err := s.q.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return "NULL"
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
