// Package planner scores open tasks and lays them out over the coming
// workdays.
package planner

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/tgienger/rooted/internal/config"
	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/engine"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

// Options configures a Planner
type Options struct {
	Weights         Weights
	Window          Window
	HorizonDays     int
	DefaultDuration int // minutes assumed without an explicit duration or history; 0 for none
	Logger          *log.Logger
}

// OptionsFromConfig builds planner options from the loaded configuration
func OptionsFromConfig(cfg *config.Config, logger *log.Logger) (Options, error) {
	window, err := WindowFromConfig(cfg.Planner)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Weights:         WeightsFromConfig(cfg.Weights),
		Window:          window,
		HorizonDays:     cfg.Planner.HorizonDays,
		DefaultDuration: cfg.Planner.DefaultDuration,
		Logger:          logger,
	}, nil
}

type Planner struct {
	db              *db.DB
	engine          *engine.Engine
	scorer          *Scorer
	window          Window
	horizon         int
	defaultDuration int
	log             *log.Logger
}

func New(database *db.DB, eng *engine.Engine, opts Options) *Planner {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.HorizonDays < 1 {
		opts.HorizonDays = 1
	}
	return &Planner{
		db:              database,
		engine:          eng,
		scorer:          NewScorer(opts.Weights),
		window:          opts.Window,
		horizon:         opts.HorizonDays,
		defaultDuration: opts.DefaultDuration,
		log:             opts.Logger,
	}
}

func (p *Planner) Scorer() *Scorer { return p.scorer }

// ExpectedDuration returns the minutes a task is expected to take: its own
// duration, else the mean of earlier uninterrupted sessions on the same
// block, else the configured default. 0 means unknown.
func (p *Planner) ExpectedDuration(t models.Task) (int, error) {
	return p.expectedDuration(p.db.Store, t)
}

func (p *Planner) expectedDuration(s *db.Store, t models.Task) (int, error) {
	if t.ExpectedDuration != nil && *t.ExpectedDuration > 0 {
		return *t.ExpectedDuration, nil
	}
	avg, ok, err := s.AverageDuration(t.BlockUID)
	if err != nil {
		return 0, fmt.Errorf("duration history of %s: %w", t.BlockUID, err)
	}
	if ok && avg >= 0.5 {
		return int(math.Round(avg)), nil
	}
	return p.defaultDuration, nil
}

var openStatuses = []models.TaskStatus{models.StatusActive, models.StatusPlanned}

// RankOpen ranks every open task of kind task
func (p *Planner) RankOpen(now time.Time) ([]Ranked, error) {
	tasks, err := p.db.ListTasksByStatus(openStatuses, template.KindTask)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	return p.rank(p.db.Store, tasks, now)
}

func (p *Planner) rank(s *db.Store, tasks []models.Task, now time.Time) ([]Ranked, error) {
	ranked := p.scorer.Rank(tasks, now)
	for i := range ranked {
		minutes, err := p.expectedDuration(s, ranked[i].Task)
		if err != nil {
			return nil, err
		}
		ranked[i].Minutes = minutes
	}
	return ranked, nil
}

// PassResult is what one planning pass decided
type PassResult struct {
	Plan      Plan
	Leftovers []int64 // planned tasks whose window passed unfinished
}

// PlanPass re-plans every open task in one transaction. Planned tasks whose
// window ended before now are flagged leftover first. Tasks that get a slot
// become planned; the rest go back to active without a window.
func (p *Planner) PlanPass(now time.Time) (*PassResult, error) {
	result := &PassResult{}
	err := p.db.InTx(func(s *db.Store) error {
		tasks, err := s.ListTasksByStatus(openStatuses, template.KindTask)
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		for i := range tasks {
			t := &tasks[i]
			if t.Status != models.StatusPlanned || t.Leftover || t.PlannedEnd == nil || !t.PlannedEnd.Before(now) {
				continue
			}
			if err := s.SetLeftover(t.ID, true); err != nil {
				return fmt.Errorf("plan: mark leftover %d: %w", t.ID, err)
			}
			t.Leftover = true
			result.Leftovers = append(result.Leftovers, t.ID)
		}

		ranked, err := p.rank(s, tasks, now)
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		result.Plan = Schedule(ranked, p.window, p.horizon, now)

		for _, slot := range result.Plan.Slots {
			if err := s.SetPlan(slot.Task.ID, slot.Start, slot.End, slot.Group); err != nil {
				return fmt.Errorf("plan: task %d: %w", slot.Task.ID, err)
			}
		}
		for _, skip := range result.Plan.Skipped {
			if err := s.ClearPlan(skip.Task.ID, skip.Group); err != nil {
				return fmt.Errorf("plan: task %d: %w", skip.Task.ID, err)
			}
			p.log.Printf("plan: task %d %q not planned: %s", skip.Task.ID, skip.Task.Name, skip.Reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// NextOutcome says why PlanNext stopped
type NextOutcome string

const (
	NextPlanned    NextOutcome = "planned"     // a task was planned to start now
	NextNeedsInput NextOutcome = "needs_input" // a question, wait or sub-template needs the user
	NextBlocked    NextOutcome = "blocked"     // a filter is unanswered or false
	NextIdle       NextOutcome = "idle"        // nothing is active
)

// NextResult reports one PlanNext call
type NextResult struct {
	Outcome       NextOutcome
	Task          *models.Task
	Start, End    time.Time
	Reason        string
	AutoCompleted []int64 // filters completed on the way
}

// PlanNext picks the single most urgent active task: highest priority, then
// earliest deadline. A task is planned from now for its expected duration.
// Filters that hold are completed and the search continues; anything else
// that needs the user is returned as is.
func (p *Planner) PlanNext(now time.Time) (*NextResult, error) {
	result := &NextResult{}
	if _, err := p.engine.ReleaseWaits(now); err != nil {
		if !errors.Is(err, errs.ErrPartialFailure) {
			return nil, err
		}
		p.log.Printf("plan next: %v", err)
	}

	for {
		t, err := p.db.NextActiveTask()
		if errors.Is(err, sql.ErrNoRows) {
			result.Outcome = NextIdle
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("plan next: %w", err)
		}
		result.Task = t

		switch t.Kind {
		case template.KindTask:
			minutes, err := p.ExpectedDuration(*t)
			if err != nil {
				return nil, fmt.Errorf("plan next: %w", err)
			}
			if minutes <= 0 {
				result.Outcome = NextNeedsInput
				result.Reason = "no expected duration"
				return result, nil
			}
			result.Start = now
			result.End = now.Add(time.Duration(minutes) * time.Minute)
			if err := p.db.SetPlan(t.ID, result.Start, result.End, DeadlineGroup(t.Deadline, now)); err != nil {
				return nil, fmt.Errorf("plan next: task %d: %w", t.ID, err)
			}
			t.Status = models.StatusPlanned
			result.Outcome = NextPlanned
			return result, nil

		case template.KindFilter:
			res, err := p.engine.EvaluateFilter(t.ID)
			if err != nil {
				return nil, err
			}
			if !res.Answered {
				result.Outcome = NextBlocked
				result.Reason = fmt.Sprintf("question %s is not answered", res.QuestionUID)
				return result, nil
			}
			if !res.Result {
				result.Outcome = NextBlocked
				result.Reason = fmt.Sprintf("answer %q does not pass the filter", res.Answer)
				return result, nil
			}
			if _, err := p.engine.Complete(t.ID); err != nil {
				if !errors.Is(err, errs.ErrPartialFailure) {
					return nil, err
				}
				p.log.Printf("plan next: %v", err)
			}
			result.AutoCompleted = append(result.AutoCompleted, t.ID)

		case template.KindWait:
			result.Outcome = NextNeedsInput
			result.Reason = "waiting"
			if t.AvailableAt != nil {
				result.Reason = "waiting until " + t.AvailableAt.Format("2006-01-02 15:04")
			}
			return result, nil

		case template.KindSubTemplate:
			result.Outcome = NextNeedsInput
			result.Reason = "sub-template must be started as its own project"
			return result, nil

		default:
			result.Outcome = NextNeedsInput
			result.Reason = "needs an answer"
			return result, nil
		}
	}
}
