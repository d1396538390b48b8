package views

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/models"
	"github.com/tgienger/pmdash/internal/resource"
	"github.com/tgienger/pmdash/internal/ui/keys"
	"github.com/tgienger/pmdash/internal/ui/styles"
)

// DashboardView shows stats, the task board, recent projects and upcoming events
type DashboardView struct {
	ctx      context.Context
	projects *resource.Hook[models.Project]
	tasks    *resource.Hook[models.Task]
	events   *resource.Hook[models.Event]
	styles   *styles.Styles
	keys     keys.KeyMap
	now      func() time.Time

	width  int
	height int
	cursor int

	taskDialog *TaskDialog

	// Delete confirmation
	confirmingDelete bool
	deleteTarget     models.Task

	// Help popup (shown with ?)
	showHelpPopup bool
}

func NewDashboardView(ctx context.Context, projects *resource.Hook[models.Project], tasks *resource.Hook[models.Task], events *resource.Hook[models.Event], assignee string, s *styles.Styles) *DashboardView {
	return &DashboardView{
		ctx:        ctx,
		projects:   projects,
		tasks:      tasks,
		events:     events,
		styles:     s,
		keys:       keys.DefaultKeyMap(),
		now:        time.Now,
		taskDialog: NewTaskDialog(ctx, tasks, projects, assignee, s),
	}
}

// Init loads whatever is stale
func (v *DashboardView) Init() tea.Cmd {
	return tea.Batch(
		v.ensure(func(ctx context.Context) { v.projects.EnsureLoaded(ctx) }),
		v.ensure(func(ctx context.Context) { v.tasks.EnsureLoaded(ctx) }),
		v.ensure(func(ctx context.Context) { v.events.EnsureLoaded(ctx) }),
	)
}

func (v *DashboardView) ensure(load func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		load(v.ctx)
		return DataChangedMsg{}
	}
}

func (v *DashboardView) refresh() tea.Cmd {
	v.projects.Invalidate()
	v.tasks.Invalidate()
	v.events.Invalidate()
	return v.Init()
}

// Capturing reports whether the view wants every key press
func (v *DashboardView) Capturing() bool {
	return v.taskDialog.IsOpen() || v.confirmingDelete || v.showHelpPopup
}

func (v *DashboardView) selectedTask() (models.Task, bool) {
	items := v.tasks.Items()
	if v.cursor < 0 || v.cursor >= len(items) {
		return models.Task{}, false
	}
	return items[v.cursor], true
}

func (v *DashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case DataChangedMsg:
		if n := len(v.tasks.Items()); v.cursor >= n {
			v.cursor = max(0, n-1)
		}
		return v, nil

	case taskResultMsg:
		return v, v.taskDialog.Update(msg)

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.taskDialog.IsOpen() {
			return v, v.taskDialog.Update(msg)
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *DashboardView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks.Items())-1 {
			v.cursor++
		}
	case key.Matches(msg, v.keys.New):
		return v, v.taskDialog.Open(nil)
	case key.Matches(msg, v.keys.Edit), key.Matches(msg, v.keys.Enter):
		if t, ok := v.selectedTask(); ok {
			return v, v.taskDialog.Open(&t)
		}
	case key.Matches(msg, v.keys.Status):
		if t, ok := v.selectedTask(); ok {
			return v, v.changeStatus(t)
		}
	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.selectedTask(); ok {
			v.confirmingDelete = true
			v.deleteTarget = t
		}
	case key.Matches(msg, v.keys.Refresh):
		return v, v.refresh()
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}
	return v, nil
}

// changeStatus advances a task todo -> in progress -> done -> todo
func (v *DashboardView) changeStatus(t models.Task) tea.Cmd {
	next := t.Status.Next()
	return func() tea.Msg {
		if v.tasks.Update(v.ctx, t.ID, backend.Row{"status": string(next)}) == nil {
			return ToastMsg{Text: "Failed to update task: " + v.tasks.Err(), Error: true}
		}
		return DataChangedMsg{}
	}
}

func (v *DashboardView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		target := v.deleteTarget
		return v, func() tea.Msg {
			if !v.tasks.Delete(v.ctx, target.ID) {
				return ToastMsg{Text: "Failed to delete task: " + v.tasks.Err(), Error: true}
			}
			return ToastMsg{Text: "Task deleted"}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *DashboardView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.taskDialog.IsOpen() {
		return v.taskDialog.View(v.width, v.height)
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	s := v.styles
	now := v.now()
	projects := v.projects.Items()
	tasks := v.tasks.Items()
	events := v.events.Items()

	stats := renderStats(s, ComputeStats(projects, tasks, events), v.width)

	// Tasks take whatever height the other widgets leave
	rows := max(v.height-26, 3)
	board := renderTaskBoard(s, tasks, v.cursor, true, v.tasks.Loading(), v.tasks.Err(), now, v.width, rows)

	half := v.width / 2
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		renderRecentProjects(s, projects, v.projects.Loading(), half),
		renderUpcomingEvents(s, events, v.events.Loading(), v.width-half),
	)

	return lipgloss.JoinVertical(lipgloss.Left, stats, board, bottom, v.renderHelp())
}

func (v *DashboardView) renderHelp() string {
	s := v.styles
	if v.width > 0 && v.width < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return s.Help.Render(
		fmt.Sprintf("%s status • %s new • %s edit • %s del • %s refresh",
			s.HelpKey.Render("s"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("e"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("r"),
		),
	)
}

func (v *DashboardView) renderHelpPopup() string {
	s := v.styles

	helpItems := []string{
		s.HelpKey.Render("↑/↓") + "    select task",
		s.HelpKey.Render("s") + "      change status",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("r") + "      refresh",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	return lipgloss.Place(v.width, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
}

func (v *DashboardView) renderDeleteConfirm() string {
	s := v.styles

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("Are you sure you want to delete %q?", v.deleteTarget.Title)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return lipgloss.Place(v.width, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}
