// Package engine turns templates into task graphs and moves the flow forward
// when tasks are completed.
//
// Every public operation runs in one database transaction. Fan-out to
// successors runs each activation inside its own savepoint so one bad edge
// cannot undo its siblings.
package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/tgienger/rooted/internal/clock"
	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
)

type Engine struct {
	db    *db.DB
	log   *log.Logger
	clock clock.Clock
}

// New returns an engine writing to database. A nil logger discards output and
// a nil clock reads the wall clock.
func New(database *db.DB, logger *log.Logger, clk clock.Clock) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Engine{db: database, log: logger, clock: clk}
}

// Failure is one successor that could not be activated. Its writes were
// rolled back; the rest of the pass was kept.
type Failure struct {
	Connection models.Connection
	Err        error
}

func (f Failure) Error() string {
	return fmt.Sprintf("edge %d (task %d -> %d): %v", f.Connection.ID, f.Connection.SourceTaskID, f.Connection.TargetTaskID, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report describes what one completion pass changed.
type Report struct {
	Completed []int64 // in completion order, the triggering task first
	Activated []int64
	Joined    []int64 // successors that were already active, planned or done
	Pending   []int64 // filters waiting for their question to be answered
	EndOfFlow bool    // the triggering task had no outgoing connections
	Failures  []Failure
}

// Err aggregates the report's failures into an errs.PartialFailure error
func (r *Report) Err(op string) error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	failures := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		failures[i] = f
	}
	return errs.Partial(op, failures)
}

func (r *Report) merge(o *Report) {
	r.Completed = append(r.Completed, o.Completed...)
	r.Activated = append(r.Activated, o.Activated...)
	r.Joined = append(r.Joined, o.Joined...)
	r.Pending = append(r.Pending, o.Pending...)
	r.Failures = append(r.Failures, o.Failures...)
}

type reportMark struct{ completed, activated, joined, pending, failures int }

func (r *Report) mark() reportMark {
	return reportMark{len(r.Completed), len(r.Activated), len(r.Joined), len(r.Pending), len(r.Failures)}
}

// rewind drops what was recorded after m; used when a savepoint is rolled back.
func (r *Report) rewind(m reportMark) {
	r.Completed = r.Completed[:m.completed]
	r.Activated = r.Activated[:m.activated]
	r.Joined = r.Joined[:m.joined]
	r.Pending = r.Pending[:m.pending]
	r.Failures = r.Failures[:m.failures]
}

// Store exposes read access for callers that need to inspect the graph
func (e *Engine) Store() *db.Store { return e.db.Store }

func getTask(s *db.Store, op string, id int64) (*models.Task, error) {
	task, err := s.GetTask(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound(op, "task %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: load task %d: %w", op, id, err)
	}
	return task, nil
}
