package ui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/prefs"
	"github.com/tgienger/pmdash/internal/session"
	"github.com/tgienger/pmdash/internal/ui/keys"
	"github.com/tgienger/pmdash/internal/ui/styles"
	"github.com/tgienger/pmdash/internal/ui/views"
)

// sessionChangedMsg is sent whenever the session context notifies
type sessionChangedMsg struct{}

// page is a screen that can ask for exclusive key handling
type page interface {
	tea.Model
	Capturing() bool
}

type App struct {
	ctx       context.Context
	client    backend.Client
	session   *session.Context
	logger    *log.Logger
	prefs     prefs.Prefs
	prefsPath string
	now       func() time.Time

	styles *styles.Styles
	keys   keys.KeyMap

	current  views.Page
	hooks    *Hooks
	dash     *views.DashboardView
	projects *views.ProjectsView
	settings *views.SettingsView
	auth     *views.AuthDialog
	toasts   views.Toasts

	width  int
	height int
}

// NewApp creates the root model. The session context must not be started
// yet; Init starts it.
func NewApp(ctx context.Context, client backend.Client, sess *session.Context, p prefs.Prefs, prefsPath string, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	styles.Use(p.Theme)
	s := styles.NewStyles()
	a := &App{
		ctx:       ctx,
		client:    client,
		session:   sess,
		logger:    logger,
		prefs:     p,
		prefsPath: prefsPath,
		now:       time.Now,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
		current:   views.PageDashboard,
		auth:      views.NewAuthDialog(ctx, client, s),
	}
	a.settings = views.NewSettingsView(sess, func() string { return a.prefs.Theme }, s)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			a.session.Start(a.ctx)
			return nil
		},
		a.waitForSession(),
	)
}

func (a *App) waitForSession() tea.Cmd {
	changes := a.session.Changes()
	return func() tea.Msg {
		select {
		case <-changes:
			return sessionChangedMsg{}
		case <-a.ctx.Done():
			return nil
		}
	}
}

// Close releases the hooks and the session subscription
func (a *App) Close() {
	a.hooks.Close()
	a.session.Close()
}

// syncIdentity rebuilds the data views when the signed-in user changes
func (a *App) syncIdentity() tea.Cmd {
	uid := ""
	if u := a.session.User(); u != nil {
		uid = u.ID
	}
	if a.hooks != nil && a.hooks.UserID == uid {
		return nil
	}
	if a.hooks == nil && uid == "" {
		return nil
	}

	a.hooks.Close()
	a.hooks, a.dash, a.projects = nil, nil, nil
	if uid == "" {
		a.logger.Printf("signed out; dropped cached data")
		return nil
	}

	a.logger.Printf("signed in as %s", uid)
	a.hooks = newHooks(a.client, uid, a.now, a.logger)
	a.dash = views.NewDashboardView(a.ctx, a.hooks.Projects, a.hooks.Tasks, a.hooks.Events, uid, a.styles)
	a.projects = views.NewProjectsView(a.ctx, a.hooks.Projects, uid, a.styles)
	a.resize()
	return tea.Batch(a.dash.Init(), a.projects.Init())
}

func (a *App) contentSize() (int, int) {
	w := styles.ContentWidth(a.width) - styles.SidebarWidth - 2
	h := a.height - 3
	return max(w, 20), max(h, 5)
}

func (a *App) resize() {
	w, h := a.contentSize()
	msg := tea.WindowSizeMsg{Width: w, Height: h}
	for _, v := range a.pages() {
		v.Update(msg)
	}
}

// pages returns every live view
func (a *App) pages() []page {
	out := []page{a.settings}
	if a.dash != nil {
		out = append(out, a.dash, a.projects)
	}
	return out
}

// active returns the current page's view, or nil when it needs a user
func (a *App) active() page {
	switch a.current {
	case views.PageSettings:
		return a.settings
	case views.PageProjects:
		if a.projects != nil {
			return a.projects
		}
	case views.PageDashboard:
		if a.dash != nil {
			return a.dash
		}
	}
	return nil
}

func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, v := range a.pages() {
		_, cmd := v.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.toasts.Update(msg) {
		return a, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case sessionChangedMsg:
		return a, tea.Batch(a.syncIdentity(), a.waitForSession())

	case views.ToastMsg:
		return a, a.toasts.Push(msg)

	case views.ProjectDeletedMsg:
		// Tasks of the project were removed server side
		cmds := []tea.Cmd{a.toasts.Push(views.ToastMsg{Text: `Deleted "` + msg.Name + `"`})}
		if a.hooks != nil {
			tasks := a.hooks.Tasks
			tasks.Invalidate()
			cmds = append(cmds, a.broadcast(views.DataChangedMsg{}), func() tea.Msg {
				tasks.EnsureLoaded(a.ctx)
				return views.DataChangedMsg{}
			})
		}
		return a, tea.Batch(cmds...)

	case views.ThemeToggledMsg:
		a.prefs = a.prefs.ToggleTheme()
		styles.Use(a.prefs.Theme)
		*a.styles = *styles.NewStyles()
		if err := prefs.Save(a.prefsPath, a.prefs); err != nil {
			a.logger.Printf("save prefs: %v", err)
			return a, a.toasts.Push(views.ToastMsg{Text: "Could not save theme preference", Error: true})
		}
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	// Async results go to whichever component owns them
	return a, tea.Batch(a.auth.Update(msg), a.broadcast(msg))
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if a.auth.IsOpen() {
		return a.auth.Update(msg)
	}

	v := a.active()
	if v != nil && v.Capturing() {
		_, cmd := v.Update(msg)
		return cmd
	}

	signedIn := a.session.State() == session.Authenticated
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Dashboard):
		return a.switchTo(views.PageDashboard)
	case key.Matches(msg, a.keys.Projects):
		return a.switchTo(views.PageProjects)
	case key.Matches(msg, a.keys.Settings):
		return a.switchTo(views.PageSettings)
	case key.Matches(msg, a.keys.SignIn) && a.session.State() == session.Unauthenticated:
		return a.auth.Open()
	case key.Matches(msg, a.keys.SignOut) && signedIn:
		return a.signOut()
	}

	if v == nil {
		return nil
	}
	_, cmd := v.Update(msg)
	return cmd
}

func (a *App) switchTo(p views.Page) tea.Cmd {
	if a.current == p {
		return nil
	}
	a.current = p
	if v := a.active(); v != nil {
		return v.Init()
	}
	return nil
}

func (a *App) signOut() tea.Cmd {
	return func() tea.Msg {
		if err := a.session.SignOut(a.ctx); err != nil {
			return views.ToastMsg{Text: "Error signing out", Error: true}
		}
		return views.ToastMsg{Text: "Signed out successfully"}
	}
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	s := a.styles
	w, h := a.contentSize()

	email := ""
	if u := a.session.User(); u != nil {
		email = u.Email
	}
	sidebar := views.RenderSidebar(s, a.current, email, a.height)

	header := s.PageTitle.Render(a.current.Title())
	if a.session.State() == session.Unauthenticated {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, "  ", s.StatusBar.Render("i: Sign In"))
	}

	body := lipgloss.NewStyle().Width(w).Height(h).MaxHeight(h).Render(a.renderBody(w, h))
	main := lipgloss.JoinVertical(lipgloss.Left, header, body)
	if t := a.toasts.View(s, w); t != "" {
		main = lipgloss.JoinVertical(lipgloss.Right, main, t)
	}

	screen := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", main)
	return styles.CenterView(screen, a.width, a.height)
}

func (a *App) renderBody(w, h int) string {
	s := a.styles
	if a.auth.IsOpen() {
		return a.auth.View(w, h)
	}
	if a.session.State() == session.Authenticating {
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, s.TitleMuted.Render("Checking session..."))
	}
	if v := a.active(); v != nil {
		return v.View()
	}

	what := "your dashboard"
	if a.current == views.PageProjects {
		what = "your projects"
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("Sign in to see "+what),
		"",
		s.TitleMuted.Render("Press 'i' to sign in or create an account"),
	)
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, content)
}
