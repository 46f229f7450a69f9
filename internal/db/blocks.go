package db

import (
	"encoding/json"
	"fmt"

	"github.com/tgienger/rooted/internal/template"
)

const blockColumns = `uid, type, name, question, answer_type, options, duration, delay, priority, deadline,
	deadline_type, risk_factor, category, file_path, filter_uid, filter_value, operator,
	set_field, set_target, set_target_uid, schema_tag, pos_x, pos_y, color`

// CreateBlock stores the definition of one template block for a batch
func (s *Store) CreateBlock(batchID string, b template.Block) error {
	r := template.ToRecord(b)
	options, err := json.Marshal(r.Options)
	if err != nil {
		return err
	}
	if r.Options == nil {
		options = []byte("[]")
	}
	var x, y float64
	if len(r.Pos) == 2 {
		x, y = r.Pos[0], r.Pos[1]
	}
	_, err = s.q.Exec(`
		INSERT INTO blocks (batch_id, `+blockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, batchID, string(r.UID), r.Type, r.Name, r.Question, r.AnswerType, string(options), r.Duration, r.Delay,
		string(r.Priority), r.Deadline, r.DeadlineType, r.RiskFactor, r.Category, r.FilePath,
		string(r.FilterUID), string(r.FilterValue), r.Operator, r.SetField, r.SetTarget, string(r.SetTargetUID),
		r.Schema, x, y, r.Color)
	return err
}

// GetBlock loads the definition behind a task
func (s *Store) GetBlock(batchID, uid string) (template.Block, error) {
	var (
		r       template.Record
		uidText string
		options string
		prio    string
		fuid    string
		fval    string
		target  string
		x, y    float64
	)
	err := s.q.QueryRow(`SELECT `+blockColumns+` FROM blocks WHERE batch_id = ? AND uid = ?`, batchID, uid).Scan(
		&uidText, &r.Type, &r.Name, &r.Question, &r.AnswerType, &options, &r.Duration, &r.Delay, &prio,
		&r.Deadline, &r.DeadlineType, &r.RiskFactor, &r.Category, &r.FilePath, &fuid, &fval, &r.Operator,
		&r.SetField, &r.SetTarget, &target, &r.Schema, &x, &y, &r.Color)
	if err != nil {
		return nil, err
	}
	r.UID = template.Scalar(uidText)
	r.Priority = template.Scalar(prio)
	r.FilterUID = template.Scalar(fuid)
	r.FilterValue = template.Scalar(fval)
	r.SetTargetUID = template.Scalar(target)
	r.Pos = []float64{x, y}
	if err := json.Unmarshal([]byte(options), &r.Options); err != nil {
		return nil, fmt.Errorf("block %s options: %w", uid, err)
	}
	if len(r.Options) == 0 {
		r.Options = nil
	}
	return r.Block()
}
