package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/pmdash/internal/models"
	"github.com/tgienger/pmdash/internal/resource"
	"github.com/tgienger/pmdash/internal/ui/keys"
	"github.com/tgienger/pmdash/internal/ui/styles"
)

type projectItem struct {
	project models.Project
}

func (i projectItem) Title() string       { return i.project.Name }
func (i projectItem) Description() string { return models.Deref(i.project.Description) }
func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 7 }
func (d projectDelegate) Spacing() int                              { return 0 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderProjectCard(d.styles, p.project, index == m.Index(), max(d.width-2, 24)))
}

// ProjectDeletedMsg reports a deleted project; its tasks went with it
type ProjectDeletedMsg struct {
	Name string
}

// ProjectsView is the projects page: one card per owned project
type ProjectsView struct {
	ctx      context.Context
	projects *resource.Hook[models.Project]
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int

	dialog *ProjectDialog

	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	// Help popup (shown with ?)
	showHelpPopup bool
}

func NewProjectsView(ctx context.Context, projects *resource.Hook[models.Project], ownerID string, s *styles.Styles) *ProjectsView {
	// Setup custom delegate
	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectsView{
		ctx:      ctx,
		projects: projects,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		dialog:   NewProjectDialog(ctx, projects, ownerID, s),
	}
}

func (v *ProjectsView) Init() tea.Cmd {
	return func() tea.Msg {
		v.projects.EnsureLoaded(v.ctx)
		return DataChangedMsg{}
	}
}

// Capturing reports whether the view wants every key press
func (v *ProjectsView) Capturing() bool {
	return v.dialog.IsOpen() || v.confirmingDelete || v.showHelpPopup || v.list.SettingFilter()
}

func (v *ProjectsView) syncItems() tea.Cmd {
	projects := v.projects.Items()
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{project: p}
	}
	return v.list.SetItems(items)
}

func (v *ProjectsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.delegate.width = msg.Width
		v.list.SetSize(msg.Width, max(msg.Height-4, 7))
		return v, nil

	case DataChangedMsg:
		return v, v.syncItems()

	case projectResultMsg:
		return v, v.dialog.Update(msg)

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.dialog.IsOpen() {
			return v, v.dialog.Update(msg)
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.list.SettingFilter() {
			break
		}

		switch {
		case key.Matches(msg, v.keys.New):
			return v, v.dialog.Open(nil)
		case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Edit):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				p := item.project
				return v, v.dialog.Open(&p)
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.confirmingDelete = true
				v.deleteTargetID = item.project.ID
				v.deleteTargetName = item.project.Name
				return v, nil
			}
		case key.Matches(msg, v.keys.Refresh):
			v.projects.Invalidate()
			return v, v.Init()
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectsView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id, name := v.deleteTargetID, v.deleteTargetName
		return v, func() tea.Msg {
			if !v.projects.Delete(v.ctx, id) {
				return ToastMsg{Text: "Failed to delete project: " + v.projects.Err(), Error: true}
			}
			return ProjectDeletedMsg{Name: name}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

// View renders the view
func (v *ProjectsView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.dialog.IsOpen() {
		return v.dialog.View(v.width, v.height)
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if msg := v.projects.Err(); msg != "" && len(v.list.Items()) == 0 {
		return v.renderError(msg)
	}

	if v.projects.Loading() {
		return v.renderLoading()
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	return v.list.View() + "\n" + v.renderHelp()
}

func (v *ProjectsView) renderError(msg string) string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Error.Render("Error Loading Projects"),
		"",
		s.TitleMuted.Render(msg),
		"",
		s.TitleMuted.Render("Press 'r' to retry"),
	)
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, content)
}

// renderLoading draws placeholder cards while the first list is in flight
func (v *ProjectsView) renderLoading() string {
	s := v.styles
	inner := max(v.width-6, 20)
	skeleton := s.Card.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left,
		s.TitleMuted.Render(strings.Repeat("░", max(inner*3/4, 0))),
		s.TitleMuted.Render(strings.Repeat("░", max(inner-2, 0))),
		s.TitleMuted.Render(strings.Repeat("░", max(inner-2, 0))),
	))
	return lipgloss.JoinVertical(lipgloss.Left, skeleton, skeleton, skeleton)
}

func (v *ProjectsView) renderEmpty() string {
	s := v.styles

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	)
	return lipgloss.Place(v.width, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

func (v *ProjectsView) renderHelp() string {
	// At narrow widths, show hint to press ? for help
	if v.width > 0 && v.width < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s new • %s edit • %s del • %s filter • %s refresh",
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("r"),
		),
	)
}

func (v *ProjectsView) renderHelpPopup() string {
	s := v.styles

	helpItems := []string{
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("e/↵") + "    edit project",
		s.HelpKey.Render("d") + "      delete project",
		s.HelpKey.Render("/") + "      filter",
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

func (v *ProjectsView) renderDeleteConfirm() string {
	s := v.styles

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("Are you sure you want to delete %q?", v.deleteTargetName)),
		s.TitleMuted.Render("This will also delete all tasks in this project."),
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
