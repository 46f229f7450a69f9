package planner

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/rooted/internal/clock"
	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/engine"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

// 2026-10-19 is a Monday
var monday = time.Date(2026, 10, 19, 8, 0, 0, 0, time.Local)

func day(d, hour, min int) time.Time {
	return time.Date(2026, 10, d, hour, min, 0, 0, time.Local)
}

func ptr[T any](v T) *T { return &v }

func TestScore_PriorityIsMonotonic(t *testing.T) {
	s := NewScorer(DefaultWeights())
	prev := -1.0
	for p := 1; p <= 5; p++ {
		score := s.Score(models.Task{Priority: p}, monday)
		assert.GreaterOrEqual(t, score, prev, "priority %d", p)
		prev = score
	}
	assert.Zero(t, s.Score(models.Task{}, monday))
}

func TestScore_DeadlineProximityIsMonotonic(t *testing.T) {
	s := NewScorer(DefaultWeights())
	prev := -1.0
	// walk from far away to overdue; the score may only go up
	for days := 60; days >= -3; days-- {
		deadline := monday.AddDate(0, 0, days)
		score := s.Score(models.Task{Priority: 3, Deadline: &deadline, DeadlineType: models.DeadlineSoft}, monday)
		assert.GreaterOrEqual(t, score, prev, "%d days", days)
		prev = score
	}
}

func TestScore_Features(t *testing.T) {
	s := NewScorer(DefaultWeights())
	tomorrow := monday.AddDate(0, 0, 1)

	task := models.Task{
		Priority:     4,
		Deadline:     &tomorrow,
		DeadlineType: models.DeadlineHard,
		RiskFactor:   1.5,
		Leftover:     true,
	}
	// hard 3 + priority 4 + tomorrow bucket 4 + 1*1.5 risk + leftover 2
	assert.InDelta(t, 14.5, s.Score(task, monday), 1e-9)

	task.RiskFactor = -2
	task.Leftover = false
	assert.InDelta(t, 11.0, s.Score(task, monday), 1e-9)
}

func TestWeights_Normalize(t *testing.T) {
	w := Weights{
		DeadlineType: map[models.DeadlineType]float64{models.DeadlineHard: -1},
		Priority:     map[int]float64{1: 2, 2: 1, 3: -4, 4: 5},
		Buckets: []Bucket{
			{WithinDays: 7, Weight: 6},
			{WithinDays: 0, Weight: 3},
			{WithinDays: -1, Weight: 100},
			{WithinDays: 30, Weight: 1},
		},
		Risk:     -1,
		Leftover: 2,
	}.Normalize()

	assert.Zero(t, w.DeadlineType[models.DeadlineHard])
	assert.Equal(t, map[int]float64{1: 2, 2: 2, 3: 2, 4: 5, 5: 5}, w.Priority)
	assert.Equal(t, []Bucket{{0, 3}, {7, 3}, {30, 1}}, w.Buckets)
	assert.Zero(t, w.Risk)
	assert.Equal(t, 2.0, w.Leftover)
}

func TestDeadlineGroup(t *testing.T) {
	now := day(19, 15, 0)
	tests := []struct {
		deadline *time.Time
		want     string
	}{
		{nil, GroupNone},
		{ptr(day(18, 23, 0)), GroupOverdue},
		{ptr(day(19, 0, 0)), GroupToday},
		{ptr(day(20, 0, 0)), GroupTomorrow},
		{ptr(day(26, 0, 0)), GroupWeek},
		{ptr(day(31, 0, 0)), GroupFortnight},
		{ptr(now.AddDate(0, 0, 20)), GroupMonth},
		{ptr(now.AddDate(0, 2, 0)), GroupLater},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeadlineGroup(tt.deadline, now))
	}
}

func TestRank_IsStable(t *testing.T) {
	s := NewScorer(DefaultWeights())
	tasks := []models.Task{
		{ID: 1, Name: "a", Priority: 2},
		{ID: 2, Name: "b", Priority: 4},
		{ID: 3, Name: "c", Priority: 2},
		{ID: 4, Name: "d", Priority: 4},
		{ID: 5, Name: "e", Priority: 2},
	}
	var names []string
	for _, r := range s.Rank(tasks, monday) {
		names = append(names, r.Task.Name)
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, names)
}

func ranked(minutes ...int) []Ranked {
	out := make([]Ranked, len(minutes))
	for i, m := range minutes {
		out[i] = Ranked{Task: models.Task{ID: int64(i + 1)}, Minutes: m}
	}
	return out
}

func TestSchedule_WorkdayExample(t *testing.T) {
	plan := Schedule(ranked(240, 300, 120), DefaultWindow(), 2, monday)

	require.Len(t, plan.Slots, 3)
	assert.Empty(t, plan.Skipped)
	assert.Equal(t, day(19, 8, 0), plan.Slots[0].Start)
	assert.Equal(t, day(19, 12, 0), plan.Slots[0].End)
	// ending exactly at 17:00 fits
	assert.Equal(t, day(19, 12, 0), plan.Slots[1].Start)
	assert.Equal(t, day(19, 17, 0), plan.Slots[1].End)
	assert.Equal(t, day(20, 8, 0), plan.Slots[2].Start)
	assert.Equal(t, day(20, 10, 0), plan.Slots[2].End)
	assert.Equal(t, 1, plan.Slots[2].Day)
}

func TestSchedule_StopsAtHorizon(t *testing.T) {
	plan := Schedule(ranked(240, 300, 120, 30), DefaultWindow(), 1, monday)

	require.Len(t, plan.Slots, 2)
	require.Len(t, plan.Skipped, 2)
	for _, s := range plan.Skipped {
		assert.Equal(t, SkipBeyondHorizon, s.Reason)
	}
}

func TestSchedule_SkipsUnschedulable(t *testing.T) {
	plan := Schedule(ranked(0, 600, 60), DefaultWindow(), 3, monday)

	require.Len(t, plan.Slots, 1)
	assert.EqualValues(t, 3, plan.Slots[0].Task.ID)
	require.Len(t, plan.Skipped, 2)
	assert.Equal(t, SkipNoDuration, plan.Skipped[0].Reason)
	assert.Equal(t, SkipLongerThanDay, plan.Skipped[1].Reason)
}

func TestSchedule_ClampsNow(t *testing.T) {
	w := DefaultWindow()
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before start", day(19, 6, 30), day(19, 8, 0)},
		{"inside", day(19, 10, 15), day(19, 10, 15)},
		{"at end", day(19, 17, 0), day(20, 8, 0)},
		{"after end", day(19, 22, 0), day(20, 8, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Schedule(ranked(30), w, 1, tt.now)
			require.Len(t, plan.Slots, 1)
			assert.Equal(t, tt.want, plan.Slots[0].Start)
		})
	}

	w.SkipWeekends = true
	plan := Schedule(ranked(15, 480), w, 2, day(23, 16, 45)) // Friday
	require.Len(t, plan.Slots, 2)
	assert.Equal(t, day(23, 16, 45), plan.Slots[0].Start)
	assert.Equal(t, day(26, 8, 0), plan.Slots[1].Start, "Monday after the weekend")
}

func TestSchedule_StaysInsideWindowAndHorizon(t *testing.T) {
	w := Window{Start: 9 * time.Hour, End: 13 * time.Hour}
	durations := []int{45, 90, 200, 15, 240, 60, 120, 30, 180, 5, 75, 240}
	for horizon := 1; horizon <= 4; horizon++ {
		plan := Schedule(ranked(durations...), w, horizon, day(19, 11, 20))
		days := map[int]bool{}
		for _, s := range plan.Slots {
			assert.False(t, s.Start.Before(w.startOf(s.Start)), "slot %v", s.Start)
			assert.True(t, s.Start.Before(w.endOf(s.Start)), "slot %v", s.Start)
			assert.False(t, s.End.After(w.endOf(s.Start)), "slot %v-%v", s.Start, s.End)
			assert.Less(t, s.Day, horizon)
			days[s.Day] = true
		}
		assert.LessOrEqual(t, len(days), horizon)
		assert.Equal(t, len(durations), len(plan.Slots)+len(plan.Skipped))
	}
}

func newTestPlanner(t *testing.T, defaultDuration, horizon int) (*Planner, *engine.Engine, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "rooted.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	eng := engine.New(database, nil, clock.NewFake(monday))
	p := New(database, eng, Options{
		Weights:         DefaultWeights(),
		Window:          DefaultWindow(),
		HorizonDays:     horizon,
		DefaultDuration: defaultDuration,
	})
	return p, eng, database
}

func block(uid string, minutes, priority int) template.TaskBlock {
	return template.TaskBlock{Meta: template.Meta{UID: uid, Name: uid}, Duration: minutes, Priority: priority}
}

func startBlock() template.StartBlock {
	return template.StartBlock{Meta: template.Meta{UID: "s"}, Question: "Naam?"}
}

func taskByUID(t *testing.T, database *db.DB, batchID, uid string) *models.Task {
	t.Helper()
	task, err := database.FindTaskByBlock(batchID, uid)
	require.NoError(t, err)
	return task
}

func TestExpectedDuration(t *testing.T) {
	p, eng, _ := newTestPlanner(t, 30, 5)

	got, err := p.ExpectedDuration(models.Task{BlockUID: "x", ExpectedDuration: ptr(50)})
	require.NoError(t, err)
	assert.Equal(t, 50, got)

	got, err = p.ExpectedDuration(models.Task{BlockUID: "x"})
	require.NoError(t, err)
	assert.Equal(t, 30, got, "falls back to the default")

	project, _, err := eng.StartProject(&template.Template{
		Name:        "t",
		Blocks:      []template.Block{startBlock(), block("x", 0, 3)},
		Connections: []template.Connection{{SourceUID: "s", TargetUID: "x"}},
	}, "Keuken")
	require.NoError(t, err)
	x := taskByUID(t, p.db, project.BatchID, "x")
	_, err = eng.RecordFocus(x.ID, monday, monday.Add(20*time.Minute), false)
	require.NoError(t, err)
	_, err = eng.RecordFocus(x.ID, monday, monday.Add(25*time.Minute), false)
	require.NoError(t, err)

	got, err = p.ExpectedDuration(*x)
	require.NoError(t, err)
	assert.Equal(t, 23, got, "mean of 20 and 25, rounded")
}

func TestPlanPass(t *testing.T) {
	p, eng, database := newTestPlanner(t, 30, 1)
	project, _, err := eng.StartProject(&template.Template{
		Name:   "verbouwing",
		Blocks: []template.Block{startBlock(), block("a", 120, 5), block("b", 60, 1), block("c", 0, 3), block("later", 480, 1)},
		Connections: []template.Connection{
			{SourceUID: "s", TargetUID: "a"},
			{SourceUID: "s", TargetUID: "b"},
			{SourceUID: "s", TargetUID: "c"},
			{SourceUID: "s", TargetUID: "later"},
		},
	}, "Keuken")
	require.NoError(t, err)

	now := day(19, 9, 0)
	result, err := p.PlanPass(now)
	require.NoError(t, err)
	assert.Empty(t, result.Leftovers)
	require.Len(t, result.Plan.Slots, 3)
	require.Len(t, result.Plan.Skipped, 1)

	want := map[string][2]time.Time{
		"a": {day(19, 9, 0), day(19, 11, 0)},
		"c": {day(19, 11, 0), day(19, 11, 30)},
		"b": {day(19, 11, 30), day(19, 12, 30)},
	}
	for uid, window := range want {
		task := taskByUID(t, database, project.BatchID, uid)
		assert.Equal(t, models.StatusPlanned, task.Status, uid)
		require.NotNil(t, task.PlannedStart, uid)
		assert.True(t, window[0].Equal(*task.PlannedStart), uid)
		assert.True(t, window[1].Equal(*task.PlannedEnd), uid)
		assert.Equal(t, GroupNone, task.DeadlineGroup)
	}
	later := taskByUID(t, database, project.BatchID, "later")
	assert.Equal(t, models.StatusActive, later.Status)
	assert.Nil(t, later.PlannedStart)

	// a day later nothing was done: every planned task is carried over
	result, err = p.PlanPass(day(20, 9, 0))
	require.NoError(t, err)
	assert.Len(t, result.Leftovers, 3)
	a := taskByUID(t, database, project.BatchID, "a")
	assert.True(t, a.Leftover)
	assert.True(t, day(20, 9, 0).Equal(*a.PlannedStart))
}

func TestPlanPass_NoDefaultDuration(t *testing.T) {
	p, eng, database := newTestPlanner(t, 0, 5)
	project, _, err := eng.StartProject(&template.Template{
		Name:        "t",
		Blocks:      []template.Block{startBlock(), block("c", 0, 3)},
		Connections: []template.Connection{{SourceUID: "s", TargetUID: "c"}},
	}, "Keuken")
	require.NoError(t, err)

	result, err := p.PlanPass(monday)
	require.NoError(t, err)
	require.Len(t, result.Plan.Skipped, 1)
	assert.Equal(t, SkipNoDuration, result.Plan.Skipped[0].Reason)
	assert.Equal(t, models.StatusActive, taskByUID(t, database, project.BatchID, "c").Status)
}

func TestPlanNext(t *testing.T) {
	p, eng, database := newTestPlanner(t, 30, 5)
	question := template.PopupBlock{Meta: template.Meta{UID: "p"}, Question: "Tegels?"}
	f := template.FilterBlock{Meta: template.Meta{UID: "f"}, QuestionUID: "p", Operator: template.OpEqual, Value: "ja"}
	project, report, err := eng.StartProject(&template.Template{
		Name:   "t",
		Blocks: []template.Block{startBlock(), f, question, block("tegelen", 45, 3)},
		Connections: []template.Connection{
			{SourceUID: "s", TargetUID: "p"},
			{SourceUID: "s", TargetUID: "f"},
			{SourceUID: "f", TargetUID: "tegelen", Label: "ja"},
		},
	}, "Badkamer")
	require.NoError(t, err)
	require.Len(t, report.Pending, 1)

	fTask := taskByUID(t, database, project.BatchID, "f")
	pTask := taskByUID(t, database, project.BatchID, "p")

	now := day(19, 10, 0)
	next, err := p.PlanNext(now)
	require.NoError(t, err)
	assert.Equal(t, NextBlocked, next.Outcome)
	assert.Equal(t, fTask.ID, next.Task.ID)

	_, err = eng.Answer(pTask.ID, "ja")
	require.NoError(t, err)

	next, err = p.PlanNext(now)
	require.NoError(t, err)
	assert.Equal(t, NextPlanned, next.Outcome)
	assert.Equal(t, "tegelen", next.Task.BlockUID)
	assert.Equal(t, []int64{fTask.ID}, next.AutoCompleted)
	assert.Equal(t, now, next.Start)
	assert.Equal(t, now.Add(45*time.Minute), next.End)
	assert.Equal(t, models.StatusPlanned, taskByUID(t, database, project.BatchID, "tegelen").Status)

	next, err = p.PlanNext(now)
	require.NoError(t, err)
	assert.Equal(t, NextNeedsInput, next.Outcome)
	assert.Equal(t, pTask.ID, next.Task.ID)

	_, err = eng.Complete(pTask.ID)
	require.NoError(t, err)
	next, err = p.PlanNext(now)
	require.NoError(t, err)
	assert.Equal(t, NextIdle, next.Outcome)
}
