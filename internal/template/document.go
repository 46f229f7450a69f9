package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tgienger/rooted/internal/errs"
)

const dateLayout = "2006-01-02"

// Scalar decodes any YAML/JSON scalar (string, number, bool) as its text.
type Scalar string

func (s *Scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	if n.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = Scalar(n.Value)
	return nil
}

// Record is the flat, saved form of a block. Field names follow the template
// files written by the editor.
type Record struct {
	UID          Scalar    `yaml:"uid"`
	Type         string    `yaml:"type"`
	Name         string    `yaml:"name,omitempty"`
	Question     string    `yaml:"question,omitempty"`
	AnswerType   string    `yaml:"answer_type,omitempty"`
	Options      []string  `yaml:"options,omitempty"`
	Duration     *int      `yaml:"duration,omitempty"`
	Delay        *int      `yaml:"delay,omitempty"`
	Priority     Scalar    `yaml:"priority,omitempty"`
	Deadline     string    `yaml:"deadline,omitempty"`
	DeadlineType string    `yaml:"deadline_type,omitempty"`
	RiskFactor   float64   `yaml:"risk_factor,omitempty"`
	Category     string    `yaml:"category,omitempty"`
	FilePath     string    `yaml:"file_path,omitempty"`
	FilterUID    Scalar    `yaml:"filter_uid,omitempty"`
	FilterValue  Scalar    `yaml:"filter_waarde,omitempty"`
	Operator     string    `yaml:"operator,omitempty"`
	SetField     string    `yaml:"set_field,omitempty"`
	SetTarget    string    `yaml:"set_target,omitempty"`
	SetTargetUID Scalar    `yaml:"set_target_uid,omitempty"`
	Schema       string    `yaml:"schema,omitempty"`
	Pos          []float64 `yaml:"pos,omitempty"`
	Color        string    `yaml:"color,omitempty"`
}

// ConnectionRecord is the saved form of a connection
type ConnectionRecord struct {
	SourceID Scalar `yaml:"source_id"`
	TargetID Scalar `yaml:"target_id"`
	Label    string `yaml:"label,omitempty"`
}

// Document is a whole template file
type Document struct {
	Name        string             `yaml:"name,omitempty"`
	Blocks      []Record           `yaml:"blocks"`
	Connections []ConnectionRecord `yaml:"connections"`
}

// Load reads and parses a template file. The file name (without extension)
// names the template when the document doesn't.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return t, nil
}

// Parse decodes a template document. JSON documents are valid YAML, so both
// formats go through the same decoder.
func Parse(data []byte) (*Template, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Validation("parse template", "%v", err)
	}
	if len(doc.Blocks) == 0 {
		return nil, errs.Validation("parse template", "document has no blocks")
	}

	t := &Template{Name: doc.Name}
	for i, r := range doc.Blocks {
		b, err := r.Block()
		if err != nil {
			return nil, errs.Validation("parse template", "block %d: %v", i, err)
		}
		t.Blocks = append(t.Blocks, b)
	}
	for _, c := range doc.Connections {
		t.Connections = append(t.Connections, Connection{
			SourceUID: string(c.SourceID),
			TargetUID: string(c.TargetID),
			Label:     c.Label,
		})
	}
	return t, nil
}

// Block converts a record to its variant
func (r Record) Block() (Block, error) {
	kind, ok := ParseKind(r.Type)
	if !ok {
		return nil, fmt.Errorf("unknown block type %q", r.Type)
	}

	m := Meta{
		UID:    strings.TrimSpace(string(r.UID)),
		Name:   r.Name,
		Schema: r.Schema,
		Color:  r.Color,
	}
	if len(r.Pos) == 2 {
		m.X, m.Y = r.Pos[0], r.Pos[1]
	}
	if m.Name == "" {
		m.Name = r.Question
	}
	routing := Routing{SetField: r.SetField, SetTarget: r.SetTarget, SetTargetUID: string(r.SetTargetUID)}

	switch kind {
	case KindTask:
		b := TaskBlock{Meta: m, DeadlineType: r.DeadlineType, RiskFactor: r.RiskFactor, Category: r.Category}
		if r.Duration != nil {
			b.Duration = *r.Duration
		}
		p, err := ParsePriority(string(r.Priority))
		if err != nil {
			return nil, err
		}
		b.Priority = p
		if r.Deadline != "" {
			d, err := time.ParseInLocation(dateLayout, r.Deadline, time.Local)
			if err != nil {
				return nil, fmt.Errorf("deadline %q: %w", r.Deadline, err)
			}
			b.Deadline = &d
		}
		return b, nil
	case KindWait:
		b := WaitBlock{Meta: m, DelayDays: 1}
		if r.Delay != nil {
			b.DelayDays = *r.Delay
		}
		return b, nil
	case KindPopup:
		return PopupBlock{Meta: m, Question: r.Question, AnswerType: r.AnswerType, Options: r.Options, Routing: routing}, nil
	case KindStart:
		return StartBlock{Meta: m, Question: r.Question}, nil
	case KindEnd:
		return EndBlock{Meta: m, Question: r.Question, Options: r.Options}, nil
	case KindSubTemplate:
		return SubTemplateBlock{Meta: m, FilePath: r.FilePath}, nil
	case KindFilter:
		b := FilterBlock{
			Meta:        m,
			QuestionUID: strings.TrimSpace(string(r.FilterUID)),
			Value:       string(r.FilterValue),
			Routing:     routing,
		}
		if r.Operator == "" {
			b.Operator = OpEqual
		} else if op, ok := ParseOperator(r.Operator); ok {
			b.Operator = op
		} else {
			b.Operator = Operator(r.Operator)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unhandled block type %q", kind)
}

// ToRecord flattens a block back to its saved form
func ToRecord(b Block) Record {
	m := b.Header()
	r := Record{
		UID:    Scalar(m.UID),
		Type:   string(b.Kind()),
		Name:   m.Name,
		Schema: m.Schema,
		Pos:    []float64{m.X, m.Y},
		Color:  m.Color,
	}
	switch v := b.(type) {
	case TaskBlock:
		if v.Duration > 0 {
			d := v.Duration
			r.Duration = &d
		}
		if v.Priority > 0 {
			r.Priority = Scalar(strconv.Itoa(v.Priority))
		}
		if v.Deadline != nil {
			r.Deadline = v.Deadline.Format(dateLayout)
		}
		r.DeadlineType = v.DeadlineType
		r.RiskFactor = v.RiskFactor
		r.Category = v.Category
	case WaitBlock:
		d := v.DelayDays
		r.Delay = &d
	case PopupBlock:
		r.Question = v.Question
		r.AnswerType = v.AnswerType
		r.Options = v.Options
		r.SetField, r.SetTarget, r.SetTargetUID = v.Routing.SetField, v.Routing.SetTarget, Scalar(v.Routing.SetTargetUID)
	case StartBlock:
		r.Question = v.Question
	case EndBlock:
		r.Question = v.Question
		r.Options = v.Options
	case SubTemplateBlock:
		r.FilePath = v.FilePath
	case FilterBlock:
		r.FilterUID = Scalar(v.QuestionUID)
		r.Operator = string(v.Operator)
		r.FilterValue = Scalar(v.Value)
		r.SetField, r.SetTarget, r.SetTargetUID = v.Routing.SetField, v.Routing.SetTarget, Scalar(v.Routing.SetTargetUID)
	}
	return r
}

var priorityTiers = map[string]int{
	"zeer hoog": 5,
	"hoog":      4,
	"normaal":   3,
	"laag":      2,
	"geen":      1,
}

// ParsePriority accepts 1-5 or one of the named tiers. Empty means unset (0).
func ParsePriority(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	if p, ok := priorityTiers[s]; ok {
		return p, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 5 {
		return 0, fmt.Errorf("priority %q: want 1-5 or a named tier", s)
	}
	return p, nil
}
