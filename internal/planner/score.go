package planner

import (
	"sort"
	"time"

	"github.com/tgienger/rooted/internal/models"
)

// Scorer scores tasks with a fixed, normalized set of weights
type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w.Normalize()}
}

// Score sums the weighted features of t. A missing feature adds nothing and
// no feature adds a negative amount.
func (s *Scorer) Score(t models.Task, now time.Time) float64 {
	w := s.weights
	score := w.DeadlineType[t.DeadlineType] + w.Priority[t.Priority]
	if t.Deadline != nil {
		days := daysUntil(*t.Deadline, now)
		if days < 0 {
			days = 0
		}
		score += w.bucketWeight(days)
	}
	if t.RiskFactor > 0 {
		score += w.Risk * t.RiskFactor
	}
	if t.Leftover {
		score += w.Leftover
	}
	return score
}

// Ranked is a task with its score, deadline group and expected duration
type Ranked struct {
	Task    models.Task
	Score   float64
	Group   string
	Minutes int // 0 when unknown
}

// Rank orders tasks by score, highest first. Equal scores keep their input order.
func (s *Scorer) Rank(tasks []models.Task, now time.Time) []Ranked {
	ranked := make([]Ranked, len(tasks))
	for i, t := range tasks {
		ranked[i] = Ranked{
			Task:  t,
			Score: s.Score(t, now),
			Group: DeadlineGroup(t.Deadline, now),
		}
		if t.ExpectedDuration != nil {
			ranked[i].Minutes = *t.ExpectedDuration
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}
