package models

import (
	"strings"
	"time"

	"github.com/tgienger/rooted/internal/template"
)

// TaskStatus is the lifecycle state of a runtime task
type TaskStatus string

const (
	StatusInactive  TaskStatus = "inactive"
	StatusActive    TaskStatus = "active"
	StatusPlanned   TaskStatus = "planned"
	StatusCompleted TaskStatus = "completed"
)

// Open reports whether the task has been reached by the flow and is not done yet
func (s TaskStatus) Open() bool {
	return s == StatusActive || s == StatusPlanned
}

// ProjectStatus tracks whether a project's flow is still running
type ProjectStatus string

const (
	ProjectRunning   ProjectStatus = "running"
	ProjectCompleted ProjectStatus = "completed"
)

// DeadlineType says how strict a deadline is
type DeadlineType string

const (
	DeadlineHard     DeadlineType = "hard"
	DeadlineSoft     DeadlineType = "soft"
	DeadlineAdvisory DeadlineType = "advisory"
	DeadlineNone     DeadlineType = "none"
)

// ParseDeadlineType accepts the English names and the Dutch ones used by saved templates
func ParseDeadlineType(s string) DeadlineType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hard", "harde":
		return DeadlineHard
	case "soft", "zachte":
		return DeadlineSoft
	case "advisory", "advies":
		return DeadlineAdvisory
	default:
		return DeadlineNone
	}
}

// Batch is one instantiation of a template. Its tasks stay unattached until
// the start task is answered and the project is bootstrapped.
type Batch struct {
	ID           string
	TemplateName string
	CreatedAt    time.Time
}

// Project groups the tasks of one template run
type Project struct {
	ID           int64
	Title        string
	Description  string
	TemplateName string
	BatchID      string
	Status       ProjectStatus
	StartDate    time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Task is the runtime instance of one template block
type Task struct {
	ID        int64
	BatchID   string
	ProjectID *int64 // nil until the project is bootstrapped
	BlockUID  string
	Kind      template.Kind
	Name      string
	Status    TaskStatus

	// Scheduling inputs
	Priority         int
	Deadline         *time.Time
	DeadlineType     DeadlineType
	DeadlineGroup    string
	RiskFactor       float64
	Leftover         bool
	ExpectedDuration *int // minutes

	DelayDays   *int
	AvailableAt *time.Time // wait tasks: when the delay has passed

	PlannedStart *time.Time
	PlannedEnd   *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Connection is a directed, labeled edge between two tasks of the same batch
type Connection struct {
	ID           int64
	BatchID      string
	ProjectID    *int64
	SourceTaskID int64
	TargetTaskID int64
	Label        string
}

// Answer is one recorded reply to a popup, start or end task
type Answer struct {
	ID         int64
	TaskID     int64
	Value      string
	AnsweredAt time.Time
}

// FocusLog records how long a task actually took
type FocusLog struct {
	ID             int64
	TaskID         int64
	BlockUID       string
	PlannedMinutes *int
	ActualMinutes  int
	StartedAt      time.Time
	EndedAt        time.Time
	Interrupted    bool
}
