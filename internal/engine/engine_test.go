package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/rooted/internal/clock"
	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

var monday = time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local)

func newTestEngine(t *testing.T) (*Engine, *db.DB, *clock.Fake) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "rooted.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	clk := clock.NewFake(monday)
	return New(database, nil, clk), database, clk
}

func start(uid string) template.StartBlock {
	return template.StartBlock{Meta: template.Meta{UID: uid, Name: "Projectnaam"}, Question: "Hoe heet het project?"}
}

func task(uid string, minutes int) template.TaskBlock {
	return template.TaskBlock{Meta: template.Meta{UID: uid, Name: uid}, Duration: minutes, Priority: 3}
}

func popup(uid string) template.PopupBlock {
	return template.PopupBlock{Meta: template.Meta{UID: uid, Name: uid}, Question: uid + "?", Options: []string{"ja", "nee"}}
}

func filter(uid, question string, op template.Operator, value string) template.FilterBlock {
	return template.FilterBlock{Meta: template.Meta{UID: uid, Name: uid}, QuestionUID: question, Operator: op, Value: value}
}

func edge(src, tgt, label string) template.Connection {
	return template.Connection{SourceUID: src, TargetUID: tgt, Label: label}
}

func flow(blocks []template.Block, conns ...template.Connection) *template.Template {
	return &template.Template{Name: "test", Blocks: blocks, Connections: conns}
}

func statusOf(t *testing.T, database *db.DB, id int64) models.TaskStatus {
	t.Helper()
	got, err := database.GetTask(id)
	require.NoError(t, err)
	return got.Status
}

// startFlow instantiates tpl and bootstraps it as project "Keuken"
func startFlow(t *testing.T, eng *Engine, tpl *template.Template) (*Batch, *models.Project, *Report) {
	t.Helper()
	batch, err := eng.Instantiate(tpl)
	require.NoError(t, err)
	_, err = eng.Answer(batch.StartTaskID, "Keuken")
	require.NoError(t, err)
	project, report, err := eng.Bootstrap(batch.ID)
	require.NoError(t, err)
	return batch, project, report
}

func TestInstantiate_CountsTasksAndSkippedConnections(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	tpl := flow(
		[]template.Block{start("s"), task("t1", 30), task("t2", 60)},
		edge("s", "t1", ""),
		edge("s", "t1", "again"),
		edge("s", "ghost", ""),
		edge("t1", "t2", ""),
	)

	batch, err := eng.Instantiate(tpl)
	require.NoError(t, err)

	assert.Len(t, batch.TaskIDs, 3)
	assert.Len(t, batch.Connections, 2)
	assert.Equal(t, 1, batch.SkippedDuplicate)
	assert.Equal(t, 1, batch.SkippedUnresolved)
	assert.ErrorIs(t, batch.Skipped(), errs.ErrIntegrity)
	assert.Equal(t, batch.TaskIDs["s"], batch.StartTaskID)

	tasks, err := database.ListBatchTasks(batch.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for _, tk := range tasks {
		assert.Equal(t, models.StatusInactive, tk.Status, tk.BlockUID)
		assert.Nil(t, tk.ProjectID)
	}
	require.NotNil(t, tasks[2].ExpectedDuration)
	assert.Equal(t, 60, *tasks[2].ExpectedDuration)

	conns, err := database.ListBatchConnections(batch.ID)
	require.NoError(t, err)
	assert.Len(t, conns, 2)
}

func TestInstantiate_WithoutStartPersistsNothing(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	tpl := flow([]template.Block{task("t1", 30), task("t2", 30)}, edge("t1", "t2", ""))

	_, err := eng.Instantiate(tpl)
	assert.ErrorIs(t, err, errs.ErrValidation)

	all := []models.TaskStatus{models.StatusInactive, models.StatusActive, models.StatusPlanned, models.StatusCompleted}
	tasks, err := database.ListTasksByStatus(all)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	pending, err := database.PendingBatches()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestBootstrap_NeedsProjectName(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, err := eng.Instantiate(flow([]template.Block{start("s"), task("t1", 30)}, edge("s", "t1", "")))
	require.NoError(t, err)

	_, _, err = eng.Bootstrap(batch.ID)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, models.StatusInactive, statusOf(t, database, batch.StartTaskID))
	count, err := database.ProjectCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = eng.Answer(batch.StartTaskID, "  Keuken ")
	require.NoError(t, err)
	project, report, err := eng.Bootstrap(batch.ID)
	require.NoError(t, err)

	assert.Equal(t, "Keuken", project.Title)
	assert.Equal(t, "test", project.TemplateName)
	assert.Equal(t, models.ProjectRunning, project.Status)
	assert.Equal(t, []int64{batch.StartTaskID}, report.Completed)
	assert.Equal(t, []int64{batch.TaskIDs["t1"]}, report.Activated)
	assert.Equal(t, models.StatusActive, statusOf(t, database, batch.TaskIDs["t1"]))

	tasks, err := database.ListTasks(project.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	_, _, err = eng.Bootstrap(batch.ID)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestBootstrap_UnknownBatch(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	_, _, err := eng.Bootstrap("no-such-batch")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestStartProject(t *testing.T) {
	eng, database, _ := newTestEngine(t)

	_, _, err := eng.StartProject(flow([]template.Block{start("s")}), " ")
	assert.ErrorIs(t, err, errs.ErrValidation)

	project, report, err := eng.StartProject(flow([]template.Block{start("s"), task("t1", 30)}, edge("s", "t1", "")), "Badkamer")
	require.NoError(t, err)
	assert.Equal(t, "Badkamer", project.Title)
	require.Len(t, report.Activated, 1)
	assert.Equal(t, models.StatusActive, statusOf(t, database, report.Activated[0]))
}

func TestComplete_ZeroOutgoingIsEndOfFlow(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, _, _ := startFlow(t, eng, flow([]template.Block{start("s"), task("t1", 30)}, edge("s", "t1", "")))

	report, err := eng.Complete(batch.TaskIDs["t1"])
	require.NoError(t, err)
	assert.True(t, report.EndOfFlow)
	assert.Empty(t, report.Activated)
	assert.Equal(t, models.StatusCompleted, statusOf(t, database, batch.TaskIDs["t1"]))

	_, err = eng.Complete(batch.TaskIDs["t1"])
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestComplete_UnknownTask(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	_, err := eng.Complete(404)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestComplete_RefusesTasksTheFlowHasNotReached(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, err := eng.Instantiate(flow(
		[]template.Block{start("s"), task("t1", 30), task("t2", 30)},
		edge("s", "t1", ""),
		edge("t1", "t2", ""),
	))
	require.NoError(t, err)
	t1, t2 := batch.TaskIDs["t1"], batch.TaskIDs["t2"]

	_, err = eng.Complete(t2)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, models.StatusInactive, statusOf(t, database, t2))

	_, err = eng.Complete(batch.StartTaskID)
	assert.ErrorIs(t, err, errs.ErrValidation, "the start task is completed by bootstrapping")
	assert.Equal(t, models.StatusInactive, statusOf(t, database, t1))

	_, err = eng.Answer(batch.StartTaskID, "Keuken")
	require.NoError(t, err)
	project, report, err := eng.Bootstrap(batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keuken", project.Title)
	assert.Equal(t, []int64{t1}, report.Activated)

	_, err = eng.Complete(batch.StartTaskID)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = eng.Complete(t2)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = eng.Complete(t1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, statusOf(t, database, t2))
}

func TestComplete_PlainTaskIgnoresLabels(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, _, _ := startFlow(t, eng, flow(
		[]template.Block{start("s"), task("t1", 30), task("a", 30), task("b", 30)},
		edge("s", "t1", ""),
		edge("t1", "a", "ja"),
		edge("t1", "b", "nee"),
	))

	report, err := eng.Complete(batch.TaskIDs["t1"])
	require.NoError(t, err)
	assert.Equal(t, []int64{batch.TaskIDs["a"], batch.TaskIDs["b"]}, report.Activated)
	assert.Equal(t, models.StatusActive, statusOf(t, database, batch.TaskIDs["b"]))
}

func TestComplete_PopupFollowsMatchingLabel(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, _, _ := startFlow(t, eng, flow(
		[]template.Block{start("s"), popup("p"), task("T1", 30), task("T2", 30)},
		edge("s", "p", ""),
		edge("p", "T1", "ja"),
		edge("p", "T2", "nee"),
	))
	p := batch.TaskIDs["p"]

	_, err := eng.Complete(p)
	assert.ErrorIs(t, err, errs.ErrValidation, "a popup cannot complete without an answer")
	assert.Equal(t, models.StatusActive, statusOf(t, database, p))

	_, err = eng.Answer(p, "nee")
	require.NoError(t, err)
	_, err = eng.Answer(p, "Ja")
	require.NoError(t, err)

	report, err := eng.Complete(p)
	require.NoError(t, err)
	assert.Equal(t, []int64{batch.TaskIDs["T1"]}, report.Activated)
	assert.Equal(t, models.StatusActive, statusOf(t, database, batch.TaskIDs["T1"]))
	assert.Equal(t, models.StatusInactive, statusOf(t, database, batch.TaskIDs["T2"]))
}

func TestComplete_PopupFallsBackToUnlabelled(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, _, _ := startFlow(t, eng, flow(
		[]template.Block{start("s"), popup("p"), task("kleur", 30), task("verder", 30)},
		edge("s", "p", ""),
		edge("p", "kleur", "rood"),
		edge("p", "verder", ""),
	))
	p := batch.TaskIDs["p"]

	_, err := eng.Answer(p, "blauw")
	require.NoError(t, err)
	_, err = eng.Complete(p)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInactive, statusOf(t, database, batch.TaskIDs["kleur"]))
	assert.Equal(t, models.StatusActive, statusOf(t, database, batch.TaskIDs["verder"]))
}

func TestComplete_FilterEvaluatesInline(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"above", "1500", "duur"},
		{"below", "800", "goedkoop"},
		{"decimal comma", "1000,5", "duur"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, database, _ := newTestEngine(t)
			batch, _, _ := startFlow(t, eng, flow(
				[]template.Block{start("s"), popup("budget"), filter("f", "budget", template.OpGreater, "1000"),
					task("duur", 30), task("goedkoop", 30)},
				edge("s", "budget", ""),
				edge("budget", "f", ""),
				edge("f", "duur", "ja"),
				edge("f", "goedkoop", "nee"),
			))

			_, err := eng.Answer(batch.TaskIDs["budget"], tt.answer)
			require.NoError(t, err)
			report, err := eng.Complete(batch.TaskIDs["budget"])
			require.NoError(t, err)

			assert.Equal(t, []int64{batch.TaskIDs["budget"], batch.TaskIDs["f"]}, report.Completed)
			assert.Equal(t, models.StatusCompleted, statusOf(t, database, batch.TaskIDs["f"]))
			for _, uid := range []string{"duur", "goedkoop"} {
				want := models.StatusInactive
				if uid == tt.want {
					want = models.StatusActive
				}
				assert.Equal(t, want, statusOf(t, database, batch.TaskIDs[uid]), uid)
			}
		})
	}
}

func TestComplete_FilterWaitsForAnswer(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, _, report := startFlow(t, eng, flow(
		[]template.Block{start("s"), popup("p"), filter("f", "p", template.OpEqual, "ja"), task("t1", 30)},
		edge("s", "p", ""),
		edge("s", "f", ""),
		edge("f", "t1", ""),
	))
	f := batch.TaskIDs["f"]

	assert.Equal(t, []int64{f}, report.Pending)
	assert.Equal(t, models.StatusActive, statusOf(t, database, f))

	res, err := eng.EvaluateFilter(f)
	require.NoError(t, err)
	assert.False(t, res.Answered)

	_, err = eng.Complete(f)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = eng.Answer(batch.TaskIDs["p"], "ja")
	require.NoError(t, err)
	res, err = eng.EvaluateFilter(f)
	require.NoError(t, err)
	assert.True(t, res.Answered)
	assert.True(t, res.Result)

	_, err = eng.Complete(f)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, statusOf(t, database, batch.TaskIDs["t1"]))

	_, err = eng.EvaluateFilter(batch.TaskIDs["t1"])
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestComplete_FalseFilterSkipsUnlabelled(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, _, _ := startFlow(t, eng, flow(
		[]template.Block{start("s"), popup("p"), filter("f", "p", template.OpEqual, "ja"), task("t1", 30)},
		edge("s", "p", ""),
		edge("p", "f", ""),
		edge("f", "t1", ""),
	))

	_, err := eng.Answer(batch.TaskIDs["p"], "nee")
	require.NoError(t, err)
	report, err := eng.Complete(batch.TaskIDs["p"])
	require.NoError(t, err)

	assert.Contains(t, report.Completed, batch.TaskIDs["f"])
	assert.Equal(t, models.StatusInactive, statusOf(t, database, batch.TaskIDs["t1"]))
}

func TestComplete_CycleTerminates(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	tpl := flow(
		[]template.Block{start("s"), filter("f1", "s", template.OpEqual, "Keuken"), filter("f2", "s", template.OpEqual, "Keuken")},
		edge("s", "f1", ""),
		edge("f1", "f2", ""),
		edge("f2", "f1", ""),
	)
	batch, err := eng.Instantiate(tpl)
	require.NoError(t, err)
	_, err = eng.Answer(batch.StartTaskID, "Keuken")
	require.NoError(t, err)

	project, report, err := eng.Bootstrap(batch.ID)
	assert.ErrorIs(t, err, errs.ErrPartialFailure)
	assert.ErrorIs(t, err, errs.ErrValidation)
	require.NotNil(t, project)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, batch.TaskIDs["f1"], report.Failures[0].Connection.TargetTaskID)
	assert.Equal(t, []int64{batch.StartTaskID, batch.TaskIDs["f1"], batch.TaskIDs["f2"]}, report.Completed)
	assert.Equal(t, models.StatusCompleted, statusOf(t, database, batch.TaskIDs["f2"]))
}

func TestComplete_FailedSuccessorKeepsSiblings(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, err := eng.Instantiate(flow(
		[]template.Block{start("s"), filter("f", "s", template.OpEqual, "x"), task("t1", 30)},
		edge("s", "f", ""),
		edge("s", "t1", ""),
	))
	require.NoError(t, err)
	_, err = eng.Answer(batch.StartTaskID, "Keuken")
	require.NoError(t, err)

	// losing the filter's definition makes its activation fail
	_, err = database.Exec(`DELETE FROM blocks WHERE batch_id = ? AND uid = 'f'`, batch.ID)
	require.NoError(t, err)

	_, report, err := eng.Bootstrap(batch.ID)
	assert.ErrorIs(t, err, errs.ErrPartialFailure)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, []int64{batch.TaskIDs["t1"]}, report.Activated)

	assert.Equal(t, models.StatusInactive, statusOf(t, database, batch.TaskIDs["f"]), "failed activation is rolled back")
	assert.Equal(t, models.StatusActive, statusOf(t, database, batch.TaskIDs["t1"]))
	assert.Equal(t, models.StatusCompleted, statusOf(t, database, batch.StartTaskID))
}

func TestComplete_EndTaskClosesProject(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	end := template.EndBlock{Meta: template.Meta{UID: "e", Name: "Afronden"}, Question: "Project afsluiten?"}
	batch, project, _ := startFlow(t, eng, flow([]template.Block{start("s"), end}, edge("s", "e", "")))

	_, err := eng.Answer(batch.TaskIDs["e"], "ja")
	require.NoError(t, err)
	report, err := eng.Complete(batch.TaskIDs["e"])
	require.NoError(t, err)
	assert.True(t, report.EndOfFlow)

	got, err := database.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestAnswer_Validation(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	batch, err := eng.Instantiate(flow([]template.Block{start("s"), task("t1", 30)}))
	require.NoError(t, err)

	_, err = eng.Answer(batch.TaskIDs["t1"], "ja")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = eng.Answer(batch.StartTaskID, "   ")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = eng.Answer(999, "ja")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestReleaseWaits(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	wait := template.WaitBlock{Meta: template.Meta{UID: "w", Name: "Verf laten drogen"}, DelayDays: 2}
	batch, _, _ := startFlow(t, eng, flow(
		[]template.Block{start("s"), wait, task("t1", 30)},
		edge("s", "w", ""),
		edge("w", "t1", ""),
	))
	w := batch.TaskIDs["w"]

	got, err := database.GetTask(w)
	require.NoError(t, err)
	require.NotNil(t, got.AvailableAt)
	assert.True(t, monday.AddDate(0, 0, 2).Equal(*got.AvailableAt))

	report, err := eng.ReleaseWaits(monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, report.Completed)
	assert.Equal(t, models.StatusActive, statusOf(t, database, w))

	report, err = eng.ReleaseWaits(monday.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{w}, report.Completed)
	assert.Equal(t, models.StatusActive, statusOf(t, database, batch.TaskIDs["t1"]))
}

func TestRecordFocus(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, err := eng.Instantiate(flow([]template.Block{start("s"), task("t1", 45)}))
	require.NoError(t, err)
	id := batch.TaskIDs["t1"]

	_, err = eng.RecordFocus(id, monday, monday.Add(-time.Minute), false)
	assert.ErrorIs(t, err, errs.ErrValidation)

	l, err := eng.RecordFocus(id, monday, monday.Add(50*time.Minute), false)
	require.NoError(t, err)
	assert.Equal(t, 50, l.ActualMinutes)
	require.NotNil(t, l.PlannedMinutes)
	assert.Equal(t, 45, *l.PlannedMinutes)

	avg, ok, err := database.AverageDuration("t1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 50.0, avg, 0.001)
}

// Completing every open task in turn must leave nothing active behind.
func TestRoundTrip_FlowDrains(t *testing.T) {
	eng, database, clk := newTestEngine(t)
	wait := template.WaitBlock{Meta: template.Meta{UID: "w"}, DelayDays: 1}
	end := template.EndBlock{Meta: template.Meta{UID: "e"}, Question: "Afsluiten?"}
	_, project, _ := startFlow(t, eng, flow(
		[]template.Block{start("s"), task("slopen", 120), popup("vloer"), filter("f", "vloer", template.OpEqual, "ja"),
			task("tegels", 240), task("laminaat", 180), wait, task("opruimen", 60), end},
		edge("s", "slopen", ""),
		edge("s", "vloer", ""),
		edge("vloer", "f", ""),
		edge("f", "tegels", "ja"),
		edge("f", "laminaat", "nee"),
		edge("slopen", "w", ""),
		edge("tegels", "opruimen", ""),
		edge("laminaat", "opruimen", ""),
		edge("w", "opruimen", ""),
		edge("opruimen", "e", ""),
	))

	open := []models.TaskStatus{models.StatusActive, models.StatusPlanned}
	for i := 0; i < 20; i++ {
		active, err := database.ListTasksByStatus(open)
		require.NoError(t, err)
		if len(active) == 0 {
			break
		}
		next := active[0]
		switch next.Kind {
		case template.KindWait:
			clk.Advance(48 * time.Hour)
			_, err := eng.ReleaseWaits(clk.Now())
			require.NoError(t, err)
			continue
		case template.KindPopup, template.KindEnd:
			_, err := eng.Answer(next.ID, "ja")
			require.NoError(t, err)
		}
		_, err = eng.Complete(next.ID)
		require.NoError(t, err, next.BlockUID)
	}

	active, err := database.ListTasksByStatus(open)
	require.NoError(t, err)
	assert.Empty(t, active)

	got, err := database.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCompleted, got.Status)

	laminaat, err := database.FindTaskByBlock(got.BatchID, "laminaat")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, laminaat.Status, "the branch not taken stays inactive")
}

func TestRenameProject(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	_, project, _ := startFlow(t, eng, flow([]template.Block{start("s"), task("t1", 30)}, edge("s", "t1", "")))

	_, err := eng.RenameProject(project.ID, "  ", "")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = eng.RenameProject(999, "Badkamer", "")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	got, err := eng.RenameProject(project.ID, " Keuken Jansen ", "tweede verdieping")
	require.NoError(t, err)
	assert.Equal(t, "Keuken Jansen", got.Title)
	assert.Equal(t, "tweede verdieping", got.Description)
}

func TestEditTask(t *testing.T) {
	eng, database, _ := newTestEngine(t)
	batch, _, _ := startFlow(t, eng, flow(
		[]template.Block{start("s"), task("t1", 30), popup("p")},
		edge("s", "t1", ""),
		edge("s", "p", ""),
	))
	id := batch.TaskIDs["t1"]

	priority, duration, risk := 5, 90, 0.5
	hard := models.DeadlineHard
	deadline := monday.AddDate(0, 0, 3)
	got, err := eng.EditTask(id, TaskEdit{Priority: &priority, Duration: &duration, RiskFactor: &risk, DeadlineType: &hard, Deadline: &deadline})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Priority)

	stored, err := database.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Priority)
	require.NotNil(t, stored.ExpectedDuration)
	assert.Equal(t, 90, *stored.ExpectedDuration)
	assert.InDelta(t, 0.5, stored.RiskFactor, 0.001)
	assert.Equal(t, models.DeadlineHard, stored.DeadlineType)
	require.NotNil(t, stored.Deadline)
	assert.True(t, deadline.Equal(*stored.Deadline))

	zero := 0
	_, err = eng.EditTask(id, TaskEdit{Duration: &zero, ClearDeadline: true})
	require.NoError(t, err)
	stored, err = database.GetTask(id)
	require.NoError(t, err)
	assert.Nil(t, stored.ExpectedDuration)
	assert.Nil(t, stored.Deadline)
	assert.Equal(t, 5, stored.Priority, "fields left nil are kept")

	bad := 7
	_, err = eng.EditTask(id, TaskEdit{Priority: &bad})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = eng.EditTask(batch.TaskIDs["p"], TaskEdit{Priority: &priority})
	assert.ErrorIs(t, err, errs.ErrValidation, "only plain tasks are scheduled")
	_, err = eng.EditTask(404, TaskEdit{})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = eng.Complete(id)
	require.NoError(t, err)
	_, err = eng.EditTask(id, TaskEdit{Priority: &priority})
	assert.ErrorIs(t, err, errs.ErrValidation)
}
