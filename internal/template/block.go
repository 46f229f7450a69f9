// Package template holds the static flow model: blocks, the labeled connections
// between them, and the template documents they are saved in.
package template

import (
	"strings"
	"time"
)

// Kind identifies a block variant
type Kind string

const (
	KindTask        Kind = "task"
	KindWait        Kind = "wait"
	KindPopup       Kind = "popup"
	KindStart       Kind = "start"
	KindEnd         Kind = "end"
	KindSubTemplate Kind = "subtemplate"
	KindFilter      Kind = "filter"
)

// ParseKind maps a saved type tag to a Kind. Saved templates use Dutch tags for
// some blocks, so those are accepted as aliases.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "task", "taak":
		return KindTask, true
	case "wait", "wachttijd":
		return KindWait, true
	case "popup", "question", "vraag":
		return KindPopup, true
	case "start":
		return KindStart, true
	case "end", "endtask", "eindtaak":
		return KindEnd, true
	case "subtemplate", "sub-template":
		return KindSubTemplate, true
	case "filter", "answerfilter", "answer-filter":
		return KindFilter, true
	}
	return "", false
}

// Answers reports whether tasks of this kind collect an answer from the user
func (k Kind) Answers() bool {
	return k == KindPopup || k == KindStart || k == KindEnd
}

// Branches reports whether outgoing connections are selected by label
func (k Kind) Branches() bool {
	return k == KindPopup || k == KindEnd || k == KindFilter
}

// Meta is shared by every block: identity plus the editor layout we round-trip.
type Meta struct {
	UID    string
	Name   string
	Schema string
	X, Y   float64
	Color  string
}

func (m Meta) Header() Meta { return m }
func (Meta) block()         {}

// Block is one node of a template graph. The variants below are the only
// implementations; dispatch on them with a type switch.
type Block interface {
	Kind() Kind
	Header() Meta
	block()
}

// Routing tells the editor which field of which block an answer should fill in.
type Routing struct {
	SetField     string
	SetTarget    string
	SetTargetUID string
}

type TaskBlock struct {
	Meta
	Duration     int // minutes, 0 when unknown
	Priority     int // 1-5, 0 when unset
	Deadline     *time.Time
	DeadlineType string
	RiskFactor   float64
	Category     string
}

type WaitBlock struct {
	Meta
	DelayDays int
}

type PopupBlock struct {
	Meta
	Question   string
	AnswerType string
	Options    []string
	Routing    Routing
}

// StartBlock asks for the project name.
type StartBlock struct {
	Meta
	Question string
}

// EndBlock asks whether the project may be closed.
type EndBlock struct {
	Meta
	Question string
	Options  []string
}

type SubTemplateBlock struct {
	Meta
	FilePath string
}

// FilterBlock forwards the flow depending on an earlier answer.
type FilterBlock struct {
	Meta
	QuestionUID string
	Operator    Operator
	Value       string
	Routing     Routing
}

func (TaskBlock) Kind() Kind        { return KindTask }
func (WaitBlock) Kind() Kind        { return KindWait }
func (PopupBlock) Kind() Kind       { return KindPopup }
func (StartBlock) Kind() Kind       { return KindStart }
func (EndBlock) Kind() Kind         { return KindEnd }
func (SubTemplateBlock) Kind() Kind { return KindSubTemplate }
func (FilterBlock) Kind() Kind      { return KindFilter }

// Connection is a directed edge between two block uids.
type Connection struct {
	SourceUID string
	TargetUID string
	Label     string
}

// Template is a saved flow definition
type Template struct {
	Name        string
	Blocks      []Block
	Connections []Connection
}

// Block returns the block with the given uid
func (t *Template) Block(uid string) (Block, bool) {
	for _, b := range t.Blocks {
		if b.Header().UID == uid {
			return b, true
		}
	}
	return nil, false
}

// Start returns the template's start block
func (t *Template) Start() (StartBlock, bool) {
	for _, b := range t.Blocks {
		if s, ok := b.(StartBlock); ok {
			return s, true
		}
	}
	return StartBlock{}, false
}

// Outgoing returns the connections leaving uid, in document order
func (t *Template) Outgoing(uid string) []Connection {
	var out []Connection
	for _, c := range t.Connections {
		if c.SourceUID == uid {
			out = append(out, c)
		}
	}
	return out
}
