package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/rooted/internal/engine"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/planner"
	"github.com/tgienger/rooted/internal/template"
	"github.com/tgienger/rooted/internal/ui/keys"
	"github.com/tgienger/rooted/internal/ui/styles"
)

// TaskListView shows the reached tasks of a project and drives its flow
type TaskListView struct {
	backend Backend
	project models.Project
	tasks   []models.Task
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	cursor  int
	scrollY int
	focusID int64 // task to select once tasks are reloaded

	// Answer input for popup, start and end tasks
	answering   bool
	answerInput textinput.Model

	// Read-only detail view
	viewingTask bool
	detail      taskDetail

	showingCompleted bool

	// Outcome of the last action
	status    string
	statusErr bool

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

type taskDetail struct {
	question string
	answer   string
}

// NewTaskListView creates a new task list view
func NewTaskListView(backend Backend, project models.Project) *TaskListView {
	answer := textinput.New()
	answer.Placeholder = "Answer"
	answer.CharLimit = 200

	return &TaskListView{
		backend:     backend,
		project:     project,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		answerInput: answer,
	}
}

// BackToProjects signals to go back to project list
type BackToProjects struct{}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks
}

type tasksLoadedMsg struct {
	tasks []models.Task
}

// actionDoneMsg carries the outcome of a flow or planning action
type actionDoneMsg struct {
	status string
	err    error
	focus  int64 // task to move the cursor to, 0 to stay
}

type detailLoadedMsg struct {
	detail taskDetail
}

func (v *TaskListView) loadTasks() tea.Msg {
	all, err := v.backend.DB.ListTasks(v.project.ID)
	if err != nil {
		return err
	}
	var tasks []models.Task
	for _, t := range all {
		if v.showingCompleted == (t.Status == models.StatusCompleted) && t.Status != models.StatusInactive {
			tasks = append(tasks, t)
		}
	}
	return tasksLoadedMsg{tasks: tasks}
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.answerInput.Width = clamp(contentWidth-10, 20, 50)
		return v, nil

	case tasksLoadedMsg:
		v.tasks = msg.tasks
		if v.focusID != 0 {
			for i, t := range v.tasks {
				if t.ID == v.focusID {
					v.cursor = i
				}
			}
			v.focusID = 0
		}
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		v.ensureVisible()
		return v, nil

	case actionDoneMsg:
		v.status = msg.status
		v.statusErr = msg.err != nil
		if msg.err != nil {
			v.status = msg.err.Error()
		}
		v.focusID = msg.focus
		return v, v.loadTasks

	case detailLoadedMsg:
		v.detail = msg.detail
		return v, nil

	case error:
		v.status = msg.Error()
		v.statusErr = true
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.answering {
			return v.updateAnswering(msg)
		}

		if v.viewingTask {
			return v.updateViewingTask(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) selected() (models.Task, bool) {
	if len(v.tasks) == 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if task, ok := v.selected(); ok {
			v.viewingTask = true
			v.detail = taskDetail{}
			return v, v.loadDetail(task)
		}
		return v, nil

	case key.Matches(msg, v.keys.Complete):
		if task, ok := v.selected(); ok && task.Status != models.StatusCompleted {
			return v, v.complete(task)
		}
		return v, nil

	case key.Matches(msg, v.keys.Answer):
		if task, ok := v.selected(); ok && task.Kind.Answers() && task.Status != models.StatusCompleted {
			v.startAnswer()
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Plan):
		return v, v.planPass

	case key.Matches(msg, v.keys.Next):
		return v, v.planNext

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.ShowCompleted):
		v.showingCompleted = !v.showingCompleted
		v.cursor = 0
		v.scrollY = 0
		return v, v.loadTasks
	}

	return v, nil
}

func (v *TaskListView) updateAnswering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.answering = false
		v.answerInput.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		task, ok := v.selected()
		value := strings.TrimSpace(v.answerInput.Value())
		if !ok || value == "" {
			return v, nil
		}
		v.answering = false
		v.answerInput.Blur()
		return v, v.answer(task, value)
	}

	var cmd tea.Cmd
	v.answerInput, cmd = v.answerInput.Update(msg)
	return v, cmd
}

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
		return v, nil
	case key.Matches(msg, v.keys.Complete):
		v.viewingTask = false
		if task, ok := v.selected(); ok && task.Status != models.StatusCompleted {
			return v, v.complete(task)
		}
		return v, nil
	case key.Matches(msg, v.keys.Answer):
		if task, ok := v.selected(); ok && task.Kind.Answers() && task.Status != models.StatusCompleted {
			v.viewingTask = false
			v.startAnswer()
			return v, textinput.Blink
		}
		return v, nil
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *TaskListView) startAnswer() {
	v.answering = true
	v.answerInput.Reset()
	v.answerInput.Focus()
}

func (v *TaskListView) ensureVisible() {
	// Each task item is 2 lines + 1 margin = 3 lines
	visibleItems := max((v.height-12)/3, 1)

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

func (v *TaskListView) loadDetail(task models.Task) tea.Cmd {
	return func() tea.Msg {
		var d taskDetail
		if block, err := v.backend.DB.GetBlock(task.BatchID, task.BlockUID); err == nil {
			switch b := block.(type) {
			case template.PopupBlock:
				d.question = b.Question
			case template.StartBlock:
				d.question = b.Question
			case template.EndBlock:
				d.question = b.Question
			}
		}
		if a, ok, err := v.backend.DB.LatestAnswer(task.ID); err == nil && ok {
			d.answer = a.Value
		}
		return detailLoadedMsg{detail: d}
	}
}

// flowStatus summarizes a flow report for the status line. A partial failure
// is reported as an error but the activated tasks are still listed.
func flowStatus(verb string, task models.Task, r *engine.Report, err error) actionDoneMsg {
	if err != nil && !errors.Is(err, errs.ErrPartialFailure) {
		return actionDoneMsg{err: err}
	}
	status := fmt.Sprintf("%s %q", verb, task.Name)
	if r != nil {
		status += fmt.Sprintf(": %d activated", len(r.Activated))
		if len(r.Pending) > 0 {
			status += fmt.Sprintf(", %d waiting for an answer", len(r.Pending))
		}
		if r.EndOfFlow {
			status += ", end of branch"
		}
	}
	return actionDoneMsg{status: status, err: err}
}

func (v *TaskListView) complete(task models.Task) tea.Cmd {
	return func() tea.Msg {
		report, err := v.backend.Engine.Complete(task.ID)
		return flowStatus("Completed", task, report, err)
	}
}

// answer records the answer and completes the task, following the branch the
// answer selects
func (v *TaskListView) answer(task models.Task, value string) tea.Cmd {
	return func() tea.Msg {
		if _, err := v.backend.Engine.Answer(task.ID, value); err != nil {
			return actionDoneMsg{err: err}
		}
		report, err := v.backend.Engine.Complete(task.ID)
		return flowStatus("Answered", task, report, err)
	}
}

func (v *TaskListView) planPass() tea.Msg {
	now := v.backend.Clock.Now()
	if _, err := v.backend.Engine.ReleaseWaits(now); err != nil && !errors.Is(err, errs.ErrPartialFailure) {
		return actionDoneMsg{err: err}
	}
	result, err := v.backend.Planner.PlanPass(now)
	if err != nil {
		return actionDoneMsg{err: err}
	}
	status := fmt.Sprintf("Planned %d task(s)", len(result.Plan.Slots))
	if n := len(result.Plan.Skipped); n > 0 {
		status += fmt.Sprintf(", %d not planned", n)
	}
	return actionDoneMsg{status: status}
}

func (v *TaskListView) planNext() tea.Msg {
	next, err := v.backend.Planner.PlanNext(v.backend.Clock.Now())
	if err != nil {
		return actionDoneMsg{err: err}
	}
	switch next.Outcome {
	case planner.NextIdle:
		return actionDoneMsg{status: "Nothing is active"}
	case planner.NextPlanned:
		return actionDoneMsg{
			status: fmt.Sprintf("Next: %s, %s-%s", next.Task.Name, next.Start.Format("15:04"), next.End.Format("15:04")),
			focus:  next.Task.ID,
		}
	default:
		return actionDoneMsg{
			status: fmt.Sprintf("Next: %s (%s)", next.Task.Name, next.Reason),
			focus:  next.Task.ID,
		}
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.viewingTask {
		return v.renderTaskView()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(v.renderTaskList())

	if v.answering {
		b.WriteString("\n")
		b.WriteString(v.renderAnswerInput())
	}

	if v.status != "" {
		style := v.styles.StatusBar
		if v.statusErr {
			style = style.Foreground(styles.Current.Error)
		}
		b.WriteString("\n")
		b.WriteString(style.Width(styles.ContentWidth(v.width)).Render(v.status))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles

	titleText := v.project.Title
	if v.showingCompleted {
		titleText += " (Completed)"
	}
	sub := v.project.TemplateName
	if v.project.Status == models.ProjectCompleted {
		sub += " • finished"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(titleText),
		s.TitleMuted.Render(sub),
	)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		if v.showingCompleted {
			return s.TitleMuted.Render("Nothing completed yet.")
		}
		return s.TitleMuted.Render("No open tasks.")
	}

	visibleItems := max((v.height-12)/3, 1)

	var items []string
	endIdx := min(v.scrollY+visibleItems, len(v.tasks))

	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func statusMark(t models.Task) string {
	switch t.Status {
	case models.StatusCompleted:
		return "✓"
	case models.StatusPlanned:
		return "◷"
	}
	return "•"
}

// schedule describes when the task is planned, due or available
func schedule(t models.Task) string {
	var parts []string
	switch {
	case t.PlannedStart != nil && t.PlannedEnd != nil:
		parts = append(parts, t.PlannedStart.Format("Mon 02 Jan 15:04")+"-"+t.PlannedEnd.Format("15:04"))
	case t.Kind == template.KindWait && t.AvailableAt != nil:
		parts = append(parts, "until "+t.AvailableAt.Format("Mon 02 Jan"))
	}
	if t.Deadline != nil {
		parts = append(parts, "due "+t.Deadline.Format("02 Jan"))
	}
	if t.Leftover {
		parts = append(parts, "leftover")
	}
	return strings.Join(parts, " • ")
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	priorityStr := ""
	if task.Priority > 0 {
		priorityStr = fmt.Sprintf("[%d] ", task.Priority)
	}
	mark := statusMark(task)
	if style, ok := s.StatusMark[task.Status]; ok && !selected {
		mark = style.Render(mark)
	}
	titleLine := mark + " " + priorityStr + task.Name

	infoLine := string(task.Kind)
	if sched := schedule(task); sched != "" {
		infoLine += " • " + sched
	}

	var titleStyle, infoStyle lipgloss.Style
	if selected {
		titleStyle = s.ListSelected.Width(width)
		infoStyle = s.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = s.ListItem.Width(width)
		infoStyle = s.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(titleLine),
		infoStyle.Render(infoLine),
	) + "\n"
}

func (v *TaskListView) renderAnswerInput() string {
	s := v.styles
	label := "Answer:"
	if v.detail.question != "" {
		label = v.detail.question
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		s.TitleMuted.Render(label),
		s.InputFocused.Render(v.answerInput.View()),
	)
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	if v.answering {
		return v.styles.Help.Render(
			fmt.Sprintf("%s submit • %s cancel",
				v.styles.HelpKey.Render("↵"),
				v.styles.HelpKey.Render("esc"),
			),
		)
	}

	completedLabel := "done"
	if v.showingCompleted {
		completedLabel = "open"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s view • %s done • %s answer • %s plan • %s next • %s %s • %s back • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("x"),
			v.styles.HelpKey.Render("a"),
			v.styles.HelpKey.Render("p"),
			v.styles.HelpKey.Render("N"),
			v.styles.HelpKey.Render("c"),
			completedLabel,
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	completedLabel := "show completed"
	if v.showingCompleted {
		completedLabel = "show open"
	}

	helpItems := []string{
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("x") + "      complete task",
		s.HelpKey.Render("a") + "      answer question",
		s.HelpKey.Render("p") + "      plan open tasks",
		s.HelpKey.Render("N") + "      plan next task",
		s.HelpKey.Render("c") + "      " + completedLabel,
		s.HelpKey.Render("esc") + "    back",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderTaskView() string {
	task, ok := v.selected()
	if !ok {
		return ""
	}

	s := v.styles
	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 70)
	labelStyle := s.TitleMuted
	none := s.TitleMuted.Render("None")

	priorityText := none
	if task.Priority > 0 {
		priorityText = s.TaskPriority.Render(fmt.Sprintf("%d", task.Priority))
	}
	deadlineText := none
	if task.Deadline != nil {
		deadlineText = task.Deadline.Format("Mon 02 Jan 2006")
		if task.DeadlineType != "" && task.DeadlineType != models.DeadlineNone {
			deadlineText += " (" + string(task.DeadlineType) + ")"
		}
	}
	durationText := none
	if task.ExpectedDuration != nil {
		durationText = fmt.Sprintf("%d min", *task.ExpectedDuration)
	}
	scheduleText := schedule(task)
	if scheduleText == "" {
		scheduleText = none
	}

	rows := []string{
		s.Title.MarginBottom(1).Render(task.Name),
		labelStyle.Render("Kind / Status"),
		fmt.Sprintf("%s / %s", task.Kind, task.Status),
		"",
		labelStyle.Render("Priority"),
		priorityText,
		"",
		labelStyle.Render("Deadline"),
		deadlineText,
		"",
		labelStyle.Render("Expected duration"),
		durationText,
		"",
		labelStyle.Render("Schedule"),
		scheduleText,
	}
	if v.detail.question != "" {
		answer := v.detail.answer
		if answer == "" {
			answer = s.TitleMuted.Render("Not answered")
		}
		rows = append(rows,
			"",
			labelStyle.Render("Question"),
			lipgloss.NewStyle().Width(textWidth).Render(v.detail.question),
			"",
			labelStyle.Render("Answer"),
			answer,
		)
	}
	rows = append(rows, "", s.Help.Render(
		fmt.Sprintf("%s done • %s answer • %s back",
			s.HelpKey.Render("x"),
			s.HelpKey.Render("a"),
			s.HelpKey.Render("esc"),
		),
	))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	// Padded, not centered vertically, but horizontally centered if wide
	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}
