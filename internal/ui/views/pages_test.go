package views

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/pmdash/internal/backend/embedded"
	"github.com/tgienger/pmdash/internal/models"
	"github.com/tgienger/pmdash/internal/resource"
	"github.com/tgienger/pmdash/internal/ui/styles"
)

type pageFixture struct {
	uid      string
	projects *resource.Hook[models.Project]
	tasks    *resource.Hook[models.Task]
	events   *resource.Hook[models.Event]
	project  *models.Project
	task     *models.Task
}

// newPageFixture signs a user in and seeds one project holding one task
func newPageFixture(t *testing.T) *pageFixture {
	t.Helper()
	ctx := context.Background()

	db, err := embedded.Open(filepath.Join(t.TempDir(), "views.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := embedded.NewTokens("views-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	client := embedded.NewClient(db, tokens, nil)
	if _, err := client.SignUp(ctx, "u@example.com", "secret1", nil); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	s, err := client.SignInWithPassword(ctx, "u@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	f := &pageFixture{
		uid:      s.User.ID,
		projects: resource.NewProjects(client, s.User.ID),
		tasks:    resource.NewTasks(client, ""),
		events:   resource.NewUpcomingEvents(client, s.User.ID, time.Now, 5),
	}
	t.Cleanup(func() {
		f.projects.Close()
		f.tasks.Close()
		f.events.Close()
	})

	f.project = f.projects.Create(ctx, models.NewProject{Name: "Launch", OwnerID: f.uid})
	if f.project == nil {
		t.Fatalf("create project: %s", f.projects.Err())
	}
	f.task = f.tasks.Create(ctx, models.NewTask{
		Title:      "Ship",
		AssignedTo: models.String(f.uid),
		ProjectID:  &f.project.ID,
	})
	if f.task == nil {
		t.Fatalf("create task: %s", f.tasks.Err())
	}
	return f
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestProjectsDeleteConfirmation(t *testing.T) {
	f := newPageFixture(t)
	v := NewProjectsView(context.Background(), f.projects, f.uid, styles.NewStyles())
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	v.Update(DataChangedMsg{})

	v.Update(keyPress("d"))
	if !v.Capturing() {
		t.Fatal("d should ask for confirmation")
	}
	if _, cmd := v.Update(keyPress("n")); cmd != nil {
		t.Fatal("n should not delete")
	}
	if v.Capturing() {
		t.Fatal("n should close the confirmation")
	}
	if n := len(f.projects.Items()); n != 1 {
		t.Fatalf("projects = %d after cancel, want 1", n)
	}

	v.Update(keyPress("d"))
	_, cmd := v.Update(keyPress("y"))
	if cmd == nil {
		t.Fatal("y returned no command")
	}
	msg, ok := cmd().(ProjectDeletedMsg)
	if !ok || msg.Name != "Launch" {
		t.Fatalf("msg = %#v, want ProjectDeletedMsg for Launch", msg)
	}
	if n := len(f.projects.Items()); n != 0 {
		t.Fatalf("projects = %d after delete, want 0", n)
	}

	// The project's tasks are gone server side
	f.tasks.Refresh(context.Background())
	if n := len(f.tasks.Items()); n != 0 {
		t.Fatalf("tasks = %d after project delete, want 0", n)
	}
}

func TestDashboardStatusCycle(t *testing.T) {
	f := newPageFixture(t)
	v := NewDashboardView(context.Background(), f.projects, f.tasks, f.events, f.uid, styles.NewStyles())
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	want := []models.TaskStatus{models.TaskInProgress, models.TaskDone, models.TaskTodo}
	for _, status := range want {
		_, cmd := v.Update(keyPress("s"))
		if cmd == nil {
			t.Fatal("s returned no command")
		}
		if _, ok := cmd().(DataChangedMsg); !ok {
			t.Fatalf("status change failed: %s", f.tasks.Err())
		}
		if got := f.tasks.Items()[0].Status; got != status {
			t.Fatalf("status = %s, want %s", got, status)
		}
	}
}

func TestDashboardDeleteConfirmation(t *testing.T) {
	f := newPageFixture(t)
	v := NewDashboardView(context.Background(), f.projects, f.tasks, f.events, f.uid, styles.NewStyles())
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	v.Update(keyPress("d"))
	if !v.Capturing() {
		t.Fatal("d should ask for confirmation")
	}
	// Page keys must not leak through while confirming
	if _, cmd := v.Update(keyPress("s")); cmd != nil {
		t.Fatal("s acted during confirmation")
	}
	v.Update(keyPress("n"))
	if v.Capturing() || len(f.tasks.Items()) != 1 {
		t.Fatalf("n should cancel; capturing=%v tasks=%d", v.Capturing(), len(f.tasks.Items()))
	}

	v.Update(keyPress("d"))
	_, cmd := v.Update(keyPress("y"))
	if cmd == nil {
		t.Fatal("y returned no command")
	}
	toast, ok := cmd().(ToastMsg)
	if !ok || toast.Text != "Task deleted" || toast.Error {
		t.Fatalf("msg = %#v, want the deleted toast", toast)
	}
	if n := len(f.tasks.Items()); n != 0 {
		t.Fatalf("tasks = %d after delete, want 0", n)
	}
}
