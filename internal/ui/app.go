package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/ui/styles"
	"github.com/tgienger/rooted/internal/ui/views"
)

// Screen is the view the dashboard currently shows
type Screen int

const (
	ScreenProjects Screen = iota
	ScreenTasks
)

const lastProjectKey = "last_project_id"

// App routes messages to the project or task screen and keeps a status line
// below it for waits released at startup and templates still waiting for a
// project name.
type App struct {
	backend  views.Backend
	screen   Screen
	projects *views.ProjectListView
	tasks    *views.TaskListView
	styles   *styles.Styles

	status    string
	statusErr bool

	width  int
	height int
}

func NewApp(backend views.Backend) *App {
	return &App{
		backend:  backend,
		screen:   ScreenProjects,
		projects: views.NewProjectListView(backend),
		styles:   styles.NewStyles(),
	}
}

// startupMsg is what the dashboard found before the first screen settles
type startupMsg struct {
	released int
	pending  int
	resume   *models.Project
	err      error
}

// pendingMsg is the number of batches waiting for a project name
type pendingMsg int

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.projects.Init(), a.startup)
}

// startup releases due wait tasks, counts unnamed batches and looks up the
// project to reopen
func (a *App) startup() tea.Msg {
	var m startupMsg
	report, err := a.backend.Engine.ReleaseWaits(a.backend.Clock.Now())
	if err != nil && !errors.Is(err, errs.ErrPartialFailure) {
		return startupMsg{err: err}
	}
	m.err = err
	if report != nil {
		m.released = len(report.Completed)
	}

	batches, err := a.backend.DB.PendingBatches()
	if err != nil {
		return startupMsg{err: err}
	}
	m.pending = len(batches)
	m.resume = a.lastProject()
	return m
}

// lastProject returns the project open when the dashboard last closed, if it
// is still running
func (a *App) lastProject() *models.Project {
	value, err := a.backend.DB.GetSetting(lastProjectKey)
	if err != nil || value == "" {
		return nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	project, err := a.backend.DB.GetProject(id)
	if err != nil || project.Status != models.ProjectRunning {
		return nil
	}
	return project
}

func (a *App) countPending() tea.Msg {
	batches, err := a.backend.DB.PendingBatches()
	if err != nil {
		return err
	}
	return pendingMsg(len(batches))
}

func (a *App) remember(projectID int64) {
	value := ""
	if projectID > 0 {
		value = strconv.FormatInt(projectID, 10)
	}
	if err := a.backend.DB.SetSetting(lastProjectKey, value); err != nil {
		a.setError(err)
	}
}

// innerSize is the window minus the status line
func (a *App) innerSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: a.width, Height: max(a.height-1, 0)}
}

func (a *App) openProject(project models.Project) tea.Cmd {
	a.screen = ScreenTasks
	a.tasks = views.NewTaskListView(a.backend, project)
	a.tasks.Update(a.innerSize())
	a.remember(project.ID)
	return a.tasks.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		inner := a.innerSize()
		a.projects.Update(inner)
		if a.tasks != nil {
			a.tasks.Update(inner)
		}
		return a, nil

	case startupMsg:
		if msg.err != nil {
			a.setError(msg.err)
		} else {
			a.status, a.statusErr = startupStatus(msg.released, msg.pending), false
		}
		if msg.resume != nil && a.screen == ScreenProjects {
			return a, a.openProject(*msg.resume)
		}
		return a, nil

	case pendingMsg:
		if !a.statusErr {
			a.status = startupStatus(0, int(msg))
		}
		return a, nil

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		a.screen = ScreenProjects
		a.remember(0)
		return a, tea.Batch(a.projects.Init(), a.countPending)
	}

	var cmd tea.Cmd
	switch a.screen {
	case ScreenProjects:
		_, cmd = a.projects.Update(msg)
	case ScreenTasks:
		_, cmd = a.tasks.Update(msg)
	}
	return a, cmd
}

func (a *App) setError(err error) {
	a.status = "Error: " + err.Error()
	a.statusErr = true
}

// startupStatus summarises released waits and unnamed batches; empty when
// there is nothing to say
func startupStatus(released, pending int) string {
	var parts []string
	if released > 0 {
		parts = append(parts, fmt.Sprintf("%d task(s) completed by released waits", released))
	}
	if pending > 0 {
		parts = append(parts, fmt.Sprintf("%d template(s) waiting for a project name", pending))
	}
	return strings.Join(parts, " · ")
}

func (a *App) View() string {
	var screen string
	if a.screen == ScreenTasks && a.tasks != nil {
		screen = a.tasks.View()
	} else {
		screen = a.projects.View()
	}

	style := a.styles.StatusBar
	if a.statusErr {
		style = style.Foreground(styles.Current.Error)
	}
	return screen + "\n" + style.Width(styles.ContentWidth(a.width)).Render(a.status)
}
