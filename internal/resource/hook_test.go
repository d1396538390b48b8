package resource

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/backend/embedded"
	"github.com/tgienger/pmdash/internal/models"
)

func testClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// newSignedInClient returns an embedded client with a signed-in user
func newSignedInClient(t *testing.T) (*embedded.Client, string) {
	t.Helper()
	ctx := context.Background()

	db, err := embedded.Open(filepath.Join(t.TempDir(), "hooks.db"), embedded.WithClock(testClock()))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := embedded.NewTokens("hook-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	client := embedded.NewClient(db, tokens, nil)

	if _, err := client.SignUp(ctx, "u@example.com", "secret1", nil); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	session, err := client.SignInWithPassword(ctx, "u@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	return client, session.User.ID
}

// fakeStore fails every call with err and, when gate is set, blocks each
// call until gate is closed regardless of the request context
type fakeStore struct {
	mu      sync.Mutex
	rows    []backend.Row
	err     error
	gate    chan struct{}
	started chan context.Context
	selects int
}

func (f *fakeStore) wait(ctx context.Context) {
	if f.started != nil {
		f.started <- ctx
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeStore) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects++
	return f.rows, f.err
}

func (f *fakeStore) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	f.wait(ctx)
	if f.err != nil {
		return nil, f.err
	}
	row["id"] = "new"
	return row, nil
}

func (f *fakeStore) Update(ctx context.Context, table string, patch backend.Row, filters ...backend.Filter) (backend.Row, error) {
	f.wait(ctx)
	return patch, f.err
}

func (f *fakeStore) Delete(ctx context.Context, table string, filters ...backend.Filter) error {
	f.wait(ctx)
	return f.err
}

func TestCreatePrependsCanonicalRowOnce(t *testing.T) {
	client, uid := newSignedInClient(t)
	ctx := context.Background()

	h := NewProjects(client, uid)
	defer h.Close()
	h.List(ctx)
	if h.Loading() {
		t.Fatal("loading should be cleared after List")
	}

	first := h.Create(ctx, models.NewProject{Name: "Alpha", Status: models.ProjectActive, OwnerID: uid})
	if first == nil {
		t.Fatalf("create failed: %s", h.Err())
	}

	launch := h.Create(ctx, models.NewProject{Name: "Launch", OwnerID: uid})
	if launch == nil {
		t.Fatalf("create failed: %s", h.Err())
	}
	if launch.ID == "" || launch.OwnerID != uid || launch.Status != models.ProjectActive {
		t.Fatalf("created project = %+v", launch)
	}

	items := h.Items()
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != launch.ID || items[0].Name != "Launch" {
		t.Fatalf("first item = %+v, want Launch", items[0])
	}
	if items[1].ID != first.ID {
		t.Fatalf("second item = %+v, want Alpha", items[1])
	}
	if h.Err() != "" {
		t.Fatalf("unexpected error %q", h.Err())
	}
}

func TestListIsIdempotent(t *testing.T) {
	client, uid := newSignedInClient(t)
	ctx := context.Background()

	h := NewProjects(client, uid)
	defer h.Close()
	for _, name := range []string{"One", "Two", "Three"} {
		if h.Create(ctx, models.NewProject{Name: name, OwnerID: uid}) == nil {
			t.Fatalf("create %s: %s", name, h.Err())
		}
	}

	h.List(ctx)
	once := h.Items()
	h.Refresh(ctx)
	twice := h.Items()

	if len(once) != 3 || len(twice) != 3 {
		t.Fatalf("lengths = %d, %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID || !once[i].UpdatedAt.Equal(twice[i].UpdatedAt) {
			t.Fatalf("item %d differs: %+v vs %+v", i, once[i], twice[i])
		}
	}
	if once[0].Name != "Three" || once[2].Name != "One" {
		t.Fatalf("order = %s, %s, %s; want newest first", once[0].Name, once[1].Name, once[2].Name)
	}
}

func TestUpdateMergesOnlyMatchingEntry(t *testing.T) {
	client, uid := newSignedInClient(t)
	ctx := context.Background()

	h := NewTasks(client, "")
	defer h.Close()
	a := h.Create(ctx, models.NewTask{Title: "Write", Status: models.TaskTodo, AssignedTo: &uid})
	b := h.Create(ctx, models.NewTask{Title: "Review", Status: models.TaskTodo, AssignedTo: &uid, Description: models.String("carefully")})
	if a == nil || b == nil {
		t.Fatalf("create failed: %s", h.Err())
	}

	got := h.Update(ctx, b.ID, backend.Row{"status": string(models.TaskDone)})
	if got == nil {
		t.Fatalf("update failed: %s", h.Err())
	}
	if got.Status != models.TaskDone || got.Title != "Review" || models.Deref(got.Description) != "carefully" {
		t.Fatalf("updated task = %+v", got)
	}

	for _, item := range h.Items() {
		switch item.ID {
		case b.ID:
			if item.Status != models.TaskDone || item.Title != "Review" {
				t.Fatalf("local entry not merged: %+v", item)
			}
		case a.ID:
			if item.Status != models.TaskTodo || !item.UpdatedAt.Equal(a.UpdatedAt) {
				t.Fatalf("unrelated entry changed: %+v", item)
			}
		default:
			t.Fatalf("unexpected item %+v", item)
		}
	}
}

func TestDeleteRemovesOnlyTarget(t *testing.T) {
	client, uid := newSignedInClient(t)
	ctx := context.Background()

	h := NewProjects(client, uid)
	defer h.Close()
	keep := h.Create(ctx, models.NewProject{Name: "Keep", OwnerID: uid})
	drop := h.Create(ctx, models.NewProject{Name: "Drop", OwnerID: uid})

	if !h.Delete(ctx, drop.ID) {
		t.Fatalf("delete failed: %s", h.Err())
	}
	items := h.Items()
	if len(items) != 1 || items[0].ID != keep.ID {
		t.Fatalf("items after delete = %+v", items)
	}

	h.List(ctx)
	if items := h.Items(); len(items) != 1 || items[0].ID != keep.ID {
		t.Fatalf("server rows after delete = %+v", items)
	}
}

func TestTasksScopedToProject(t *testing.T) {
	client, uid := newSignedInClient(t)
	ctx := context.Background()

	projects := NewProjects(client, uid)
	defer projects.Close()
	p := projects.Create(ctx, models.NewProject{Name: "Scoped", OwnerID: uid})
	if p == nil {
		t.Fatalf("create project: %s", projects.Err())
	}

	all := NewTasks(client, "")
	defer all.Close()
	all.Create(ctx, models.NewTask{Title: "Loose", AssignedTo: &uid})
	all.Create(ctx, models.NewTask{Title: "Inside", ProjectID: &p.ID})

	scoped := NewTasks(client, p.ID)
	defer scoped.Close()
	scoped.List(ctx)
	items := scoped.Items()
	if len(items) != 1 || items[0].Title != "Inside" {
		t.Fatalf("project tasks = %+v", items)
	}

	all.List(ctx)
	if n := len(all.Items()); n != 2 {
		t.Fatalf("visible tasks = %d, want 2", n)
	}
}

func TestUpcomingEvents(t *testing.T) {
	client, uid := newSignedInClient(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	events := NewEvents(client, uid)
	defer events.Close()
	for i, offset := range []time.Duration{-48 * time.Hour, 72 * time.Hour, 2 * time.Hour, 24 * time.Hour} {
		start := now.Add(offset)
		ev := events.Create(ctx, models.NewEvent{
			Title:     []string{"past", "third", "first", "second"}[i],
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			OwnerID:   uid,
		})
		if ev == nil {
			t.Fatalf("create event: %s", events.Err())
		}
	}

	upcoming := NewUpcomingEvents(client, uid, func() time.Time { return now }, 2)
	defer upcoming.Close()
	upcoming.List(ctx)

	items := upcoming.Items()
	if len(items) != 2 {
		t.Fatalf("got %d upcoming events, want 2", len(items))
	}
	if items[0].Title != "first" || items[1].Title != "second" {
		t.Fatalf("upcoming = %s, %s", items[0].Title, items[1].Title)
	}
}

func TestUpcomingEventsBoundMovesOnRefresh(t *testing.T) {
	client, uid := newSignedInClient(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	events := NewEvents(client, uid)
	defer events.Close()
	start := now.Add(2 * time.Hour)
	if events.Create(ctx, models.NewEvent{Title: "standup", StartTime: start, EndTime: start.Add(time.Hour), OwnerID: uid}) == nil {
		t.Fatalf("create event: %s", events.Err())
	}

	upcoming := NewUpcomingEvents(client, uid, clock, 5)
	defer upcoming.Close()
	upcoming.List(ctx)
	if n := len(upcoming.Items()); n != 1 {
		t.Fatalf("got %d upcoming events, want 1", n)
	}

	// Three hours later the standup has started
	now = now.Add(3 * time.Hour)
	upcoming.Refresh(ctx)
	if items := upcoming.Items(); len(items) != 0 {
		t.Fatalf("refresh still lists %q starting %v (now %v)", items[0].Title, items[0].StartTime, now)
	}
}

func TestFailuresRecordErrorWithoutReturningOne(t *testing.T) {
	store := &fakeStore{err: backend.NewError(backend.CodeInternal, "network down")}
	ctx := context.Background()

	h := New[models.Project](store, models.TableProjects)
	defer h.Close()

	h.List(ctx)
	if h.Loading() {
		t.Fatal("loading must be cleared on failure")
	}
	if h.Err() != "network down" {
		t.Fatalf("list error = %q", h.Err())
	}

	h.ClearErr()
	if got := h.Create(ctx, models.NewProject{Name: "X"}); got != nil {
		t.Fatalf("create returned %+v on failure", got)
	}
	if h.Err() == "" {
		t.Fatal("create failure not recorded")
	}

	h.ClearErr()
	if got := h.Update(ctx, "p1", backend.Row{"name": "Y"}); got != nil {
		t.Fatalf("update returned %+v on failure", got)
	}
	if h.Err() == "" {
		t.Fatal("update failure not recorded")
	}

	h.ClearErr()
	if h.Delete(ctx, "p1") {
		t.Fatal("delete reported success on failure")
	}
	if h.Err() == "" {
		t.Fatal("delete failure not recorded")
	}
	if len(h.Items()) != 0 {
		t.Fatalf("items changed on failure: %+v", h.Items())
	}
}

func TestFailedCreateLeavesListUntouched(t *testing.T) {
	client, uid := newSignedInClient(t)
	ctx := context.Background()

	h := NewProjects(client, uid)
	defer h.Close()
	h.Create(ctx, models.NewProject{Name: "Valid", OwnerID: uid})

	if got := h.Create(ctx, models.NewProject{Name: "Bad", Status: "archived", OwnerID: uid}); got != nil {
		t.Fatalf("invalid status accepted: %+v", got)
	}
	if h.Err() == "" {
		t.Fatal("error not recorded")
	}
	if items := h.Items(); len(items) != 1 || items[0].Name != "Valid" {
		t.Fatalf("items = %+v", items)
	}
}

func TestEnsureLoadedRefetchesOnlyWhenStale(t *testing.T) {
	store := &fakeStore{rows: []backend.Row{{"id": "p1", "name": "One"}}}
	ctx := context.Background()

	h := New[models.Project](store, models.TableProjects)
	defer h.Close()

	if !h.Stale() {
		t.Fatal("new hook should be stale")
	}
	h.EnsureLoaded(ctx)
	h.EnsureLoaded(ctx)
	if store.selects != 1 {
		t.Fatalf("selects = %d, want 1", store.selects)
	}

	h.Invalidate()
	h.EnsureLoaded(ctx)
	if store.selects != 2 {
		t.Fatalf("selects after invalidate = %d, want 2", store.selects)
	}
	if items := h.Items(); len(items) != 1 || items[0].Name != "One" {
		t.Fatalf("items = %+v", items)
	}
}

func TestCloseDiscardsLateResults(t *testing.T) {
	store := &fakeStore{
		rows:    []backend.Row{{"id": "p1", "name": "Late"}},
		gate:    make(chan struct{}),
		started: make(chan context.Context, 1),
	}

	h := New[models.Project](store, models.TableProjects)
	done := make(chan struct{})
	go func() {
		h.List(context.Background())
		close(done)
	}()

	reqCtx := <-store.started
	h.Close()

	select {
	case <-reqCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel the in-flight request")
	}
	if !errors.Is(reqCtx.Err(), context.Canceled) {
		t.Fatalf("request context error = %v", reqCtx.Err())
	}

	close(store.gate)
	<-done

	if items := h.Items(); len(items) != 0 {
		t.Fatalf("late result applied after Close: %+v", items)
	}
	if !h.Loading() {
		t.Fatal("late result should not touch loading state")
	}
}
