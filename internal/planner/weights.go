package planner

import (
	"sort"
	"strconv"
	"time"

	"github.com/tgienger/rooted/internal/config"
	"github.com/tgienger/rooted/internal/models"
)

// Bucket gives Weight to deadlines at most WithinDays calendar days away
type Bucket struct {
	WithinDays int
	Weight     float64
}

// Weights maps each scoring feature to the amount it adds to a task's score
type Weights struct {
	DeadlineType map[models.DeadlineType]float64
	Priority     map[int]float64
	Buckets      []Bucket
	Risk         float64
	Leftover     float64
}

// WeightsFromConfig converts the configured weights; unknown priority keys are ignored
func WeightsFromConfig(c config.WeightsConfig) Weights {
	w := Weights{
		DeadlineType: make(map[models.DeadlineType]float64, len(c.DeadlineType)),
		Priority:     make(map[int]float64, len(c.Priority)),
		Risk:         c.RiskFactor,
		Leftover:     c.Leftover,
	}
	for k, v := range c.DeadlineType {
		w.DeadlineType[models.ParseDeadlineType(k)] = v
	}
	for k, v := range c.Priority {
		if p, err := strconv.Atoi(k); err == nil {
			w.Priority[p] = v
		}
	}
	for _, b := range c.Buckets {
		w.Buckets = append(w.Buckets, Bucket{WithinDays: b.WithinDays, Weight: b.Weight})
	}
	return w
}

// DefaultWeights returns the weights of the default configuration
func DefaultWeights() Weights {
	return WeightsFromConfig(config.DefaultConfig().Weights)
}

// Normalize returns a copy that scores monotonically: negative weights become
// zero, a higher priority never weighs less than a lower one, and a nearer
// deadline bucket never weighs less than a farther one.
func (w Weights) Normalize() Weights {
	out := Weights{
		DeadlineType: make(map[models.DeadlineType]float64, len(w.DeadlineType)),
		Priority:     make(map[int]float64, 5),
		Risk:         nonNegative(w.Risk),
		Leftover:     nonNegative(w.Leftover),
	}
	for k, v := range w.DeadlineType {
		out.DeadlineType[k] = nonNegative(v)
	}

	running := 0.0
	for p := 1; p <= 5; p++ {
		if v := nonNegative(w.Priority[p]); v > running {
			running = v
		}
		out.Priority[p] = running
	}

	out.Buckets = make([]Bucket, 0, len(w.Buckets))
	for _, b := range w.Buckets {
		if b.WithinDays < 0 {
			continue
		}
		out.Buckets = append(out.Buckets, Bucket{WithinDays: b.WithinDays, Weight: nonNegative(b.Weight)})
	}
	sort.SliceStable(out.Buckets, func(i, j int) bool { return out.Buckets[i].WithinDays < out.Buckets[j].WithinDays })
	for i := 1; i < len(out.Buckets); i++ {
		if out.Buckets[i].Weight > out.Buckets[i-1].Weight {
			out.Buckets[i].Weight = out.Buckets[i-1].Weight
		}
	}
	return out
}

// bucketWeight returns the weight of the nearest bucket that covers daysLeft
func (w Weights) bucketWeight(daysLeft int) float64 {
	for _, b := range w.Buckets {
		if daysLeft <= b.WithinDays {
			return b.Weight
		}
	}
	return 0
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Deadline groups, coarsest view of how close a deadline is
const (
	GroupOverdue   = "overdue"
	GroupToday     = "today"
	GroupTomorrow  = "tomorrow"
	GroupWeek      = "week"
	GroupFortnight = "fortnight"
	GroupMonth     = "month"
	GroupLater     = "later"
	GroupNone      = "none"
)

// DeadlineGroup buckets a deadline by calendar days from now
func DeadlineGroup(deadline *time.Time, now time.Time) string {
	if deadline == nil {
		return GroupNone
	}
	switch days := daysUntil(*deadline, now); {
	case days < 0:
		return GroupOverdue
	case days == 0:
		return GroupToday
	case days == 1:
		return GroupTomorrow
	case days <= 7:
		return GroupWeek
	case days <= 14:
		return GroupFortnight
	case days <= 31:
		return GroupMonth
	default:
		return GroupLater
	}
}

// daysUntil counts calendar days between now's date and t's date, in now's location
func daysUntil(t, now time.Time) int {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}
