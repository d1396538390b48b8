package views

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/dialogs"
	"github.com/tgienger/pmdash/internal/models"
	"github.com/tgienger/pmdash/internal/resource"
	"github.com/tgienger/pmdash/internal/ui/keys"
	"github.com/tgienger/pmdash/internal/ui/styles"
)

type authResultMsg struct{ outcome dialogs.Outcome }

type projectResultMsg struct{ outcome dialogs.Outcome }

type taskResultMsg struct{ outcome dialogs.Outcome }

// AuthDialog is the two-mode sign in / sign up form
type AuthDialog struct {
	ctx  context.Context
	auth backend.Auth
	form *Form
	keys keys.KeyMap
	mode dialogs.AuthMode
	open bool
}

func NewAuthDialog(ctx context.Context, auth backend.Auth, s *styles.Styles) *AuthDialog {
	form := newForm(s, dialogs.SignInMode.String(), dialogs.SignInMode.String()).
		addInput("email", "Email", "you@example.com", 254).
		addPassword("password", "Password")
	return &AuthDialog{ctx: ctx, auth: auth, form: form, keys: keys.DefaultKeyMap()}
}

func (d *AuthDialog) IsOpen() bool { return d.open }

func (d *AuthDialog) Open() tea.Cmd {
	d.open = true
	d.setMode(dialogs.SignInMode)
	return d.form.Reset()
}

func (d *AuthDialog) setMode(mode dialogs.AuthMode) {
	d.mode = mode
	d.form.SetTitle(mode.String(), mode.String())
}

func (d *AuthDialog) values() dialogs.AuthValues {
	return dialogs.AuthValues{Email: d.form.Value("email"), Password: d.form.Value("password")}
}

func (d *AuthDialog) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case authResultMsg:
		d.form.SetBusy(false)
		d.form.SetErrors(msg.outcome.Fields)
		if msg.outcome.Close {
			d.open = false
			d.form.Reset()
		}
		return outcomeToast(msg.outcome)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, d.keys.Back):
			d.open = false
			return nil
		case key.Matches(msg, d.keys.ToggleMode):
			d.setMode(d.mode.Toggle())
			d.form.SetErrors(nil)
			return nil
		}

		submitted, cmd := d.form.Update(msg)
		if !submitted {
			return cmd
		}
		values := d.values()
		if errs := values.Validate(); errs != nil {
			d.form.SetErrors(errs)
			return nil
		}
		d.form.SetErrors(nil)
		d.form.SetBusy(true)
		mode := d.mode
		return func() tea.Msg {
			return authResultMsg{outcome: dialogs.SubmitAuth(d.ctx, d.auth, mode, values)}
		}
	}
	return nil
}

func (d *AuthDialog) View(width, height int) string {
	return d.form.View(width, height)
}

func projectStatusOptions() (options, labels []string) {
	for _, st := range models.ProjectStatuses {
		options = append(options, string(st))
		labels = append(labels, models.Title(st.Label()))
	}
	return options, labels
}

func taskStatusOptions() (options, labels []string) {
	for _, st := range models.TaskStatuses {
		options = append(options, string(st))
		labels = append(labels, models.Title(st.Label()))
	}
	return options, labels
}

// ProjectDialog creates a project, or edits one when opened with it
type ProjectDialog struct {
	ctx      context.Context
	projects *resource.Hook[models.Project]
	ownerID  string
	form     *Form
	keys     keys.KeyMap
	existing *models.Project
	open     bool
}

func NewProjectDialog(ctx context.Context, projects *resource.Hook[models.Project], ownerID string, s *styles.Styles) *ProjectDialog {
	options, labels := projectStatusOptions()
	form := newForm(s, "New Project", "Create").
		addInput("name", "Name", "Project name", 100).
		addInput("description", "Description", "Description (optional)", 500).
		addChoice("status", "Status", options, labels).
		addInput("start_date", "Start date", "YYYY-MM-DD", 10).
		addInput("end_date", "End date", "YYYY-MM-DD", 10)
	return &ProjectDialog{ctx: ctx, projects: projects, ownerID: ownerID, form: form, keys: keys.DefaultKeyMap()}
}

func (d *ProjectDialog) IsOpen() bool { return d.open }

// Open shows the dialog for existing, or for a new project when nil
func (d *ProjectDialog) Open(existing *models.Project) tea.Cmd {
	d.open = true
	d.existing = existing
	cmd := d.form.Reset()

	if existing == nil {
		d.form.SetTitle("New Project", "Create")
	} else {
		d.form.SetTitle("Edit Project", "Save")
	}
	v := dialogs.ProjectValuesFrom(existing)
	d.form.SetValue("name", v.Name)
	d.form.SetValue("description", v.Description)
	d.form.SetValue("status", string(v.Status))
	d.form.SetValue("start_date", v.StartDate)
	d.form.SetValue("end_date", v.EndDate)
	return cmd
}

func (d *ProjectDialog) values() dialogs.ProjectValues {
	return dialogs.ProjectValues{
		Name:        d.form.Value("name"),
		Description: d.form.Value("description"),
		Status:      models.ProjectStatus(d.form.Value("status")),
		StartDate:   d.form.Value("start_date"),
		EndDate:     d.form.Value("end_date"),
	}
}

func (d *ProjectDialog) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case projectResultMsg:
		d.form.SetBusy(false)
		d.form.SetErrors(msg.outcome.Fields)
		if msg.outcome.Close {
			d.open = false
			d.existing = nil
			d.form.Reset()
		}
		return tea.Batch(outcomeToast(msg.outcome), dataChanged)

	case tea.KeyMsg:
		if key.Matches(msg, d.keys.Back) {
			d.open = false
			return nil
		}

		submitted, cmd := d.form.Update(msg)
		if !submitted {
			return cmd
		}
		values := d.values()
		if errs := values.Validate(); errs != nil {
			d.form.SetErrors(errs)
			return nil
		}
		d.form.SetErrors(nil)
		d.form.SetBusy(true)
		existing := d.existing
		return func() tea.Msg {
			return projectResultMsg{outcome: dialogs.SubmitProject(d.ctx, d.projects, existing, d.ownerID, values)}
		}
	}
	return nil
}

func (d *ProjectDialog) View(width, height int) string {
	return d.form.View(width, height)
}

// TaskDialog creates or edits a task on the board
type TaskDialog struct {
	ctx      context.Context
	tasks    *resource.Hook[models.Task]
	projects *resource.Hook[models.Project]
	assignee string
	form     *Form
	keys     keys.KeyMap
	existing *models.Task
	open     bool
}

func NewTaskDialog(ctx context.Context, tasks *resource.Hook[models.Task], projects *resource.Hook[models.Project], assignee string, s *styles.Styles) *TaskDialog {
	options, labels := taskStatusOptions()
	form := newForm(s, "New Task", "Create").
		addInput("title", "Title", "Task title", 200).
		addInput("description", "Description", "Description (optional)", 1000).
		addChoice("status", "Status", options, labels).
		addInput("due_date", "Due date", "YYYY-MM-DD", 10).
		addChoice("project_id", "Project", []string{""}, []string{"None"})
	return &TaskDialog{ctx: ctx, tasks: tasks, projects: projects, assignee: assignee, form: form, keys: keys.DefaultKeyMap()}
}

func (d *TaskDialog) IsOpen() bool { return d.open }

func (d *TaskDialog) Open(existing *models.Task) tea.Cmd {
	d.open = true
	d.existing = existing
	cmd := d.form.Reset()

	options, labels := []string{""}, []string{"None"}
	for _, p := range d.projects.Items() {
		options = append(options, p.ID)
		labels = append(labels, p.Name)
	}
	d.form.SetOptions("project_id", options, labels)

	if existing == nil {
		d.form.SetTitle("New Task", "Create")
	} else {
		d.form.SetTitle("Edit Task", "Save")
	}
	v := dialogs.TaskValuesFrom(existing)
	d.form.SetValue("title", v.Title)
	d.form.SetValue("description", v.Description)
	d.form.SetValue("status", string(v.Status))
	d.form.SetValue("due_date", v.DueDate)
	d.form.SetValue("project_id", v.ProjectID)
	return cmd
}

func (d *TaskDialog) values() dialogs.TaskValues {
	return dialogs.TaskValues{
		Title:       d.form.Value("title"),
		Description: d.form.Value("description"),
		Status:      models.TaskStatus(d.form.Value("status")),
		DueDate:     d.form.Value("due_date"),
		ProjectID:   d.form.Value("project_id"),
	}
}

func (d *TaskDialog) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case taskResultMsg:
		d.form.SetBusy(false)
		d.form.SetErrors(msg.outcome.Fields)
		if msg.outcome.Close {
			d.open = false
			d.existing = nil
			d.form.Reset()
		}
		return tea.Batch(outcomeToast(msg.outcome), dataChanged)

	case tea.KeyMsg:
		if key.Matches(msg, d.keys.Back) {
			d.open = false
			return nil
		}

		submitted, cmd := d.form.Update(msg)
		if !submitted {
			return cmd
		}
		values := d.values()
		if errs := values.Validate(); errs != nil {
			d.form.SetErrors(errs)
			return nil
		}
		d.form.SetErrors(nil)
		d.form.SetBusy(true)
		existing := d.existing
		return func() tea.Msg {
			return taskResultMsg{outcome: dialogs.SubmitTask(d.ctx, d.tasks, existing, d.assignee, values)}
		}
	}
	return nil
}

func (d *TaskDialog) View(width, height int) string {
	return d.form.View(width, height)
}
