package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Table names on the backend
const (
	TableProfiles = "profiles"
	TableProjects = "projects"
	TableTasks    = "tasks"
	TableEvents   = "events"
)

// DateLayout is the calendar date format used when editing dates
const DateLayout = "2006-01-02"

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

// ProjectStatuses lists every valid project status in display order
var ProjectStatuses = []ProjectStatus{ProjectActive, ProjectCompleted, ProjectOnHold}

// Valid reports whether s is one of the enumerated project statuses
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// Label returns the status as shown on badges ("on hold")
func (s ProjectStatus) Label() string { return statusLabel(string(s)) }

// TaskStatus is the board column a task sits in
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// TaskStatuses lists every valid task status in board order
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskDone}

// Valid reports whether s is one of the enumerated task statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// Next cycles todo -> in_progress -> done -> todo
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case TaskTodo:
		return TaskInProgress
	case TaskInProgress:
		return TaskDone
	}
	return TaskTodo
}

// Label returns the status as shown on badges ("in progress")
func (s TaskStatus) Label() string { return statusLabel(string(s)) }

func statusLabel(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

// Title upper-cases the first letter of each word ("on hold" -> "On Hold")
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// Profile extends an authenticated identity
type Profile struct {
	ID        string    `json:"id"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Profile) Key() string { return p.ID }

// NewProfile is the insert payload for a profile; the id is the identity's id
type NewProfile struct {
	ID        string  `json:"id"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// Project represents a project owned by a single user
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Status      ProjectStatus `json:"status"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
	OwnerID     string        `json:"owner_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (p Project) Key() string { return p.ID }

// NewProject is a project minus the server-assigned fields.
// An empty Status lets the server default it to active.
type NewProject struct {
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Status      ProjectStatus `json:"status,omitempty"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
	OwnerID     string        `json:"owner_id"`
}

// Task represents a single task, optionally inside a project
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
	ProjectID   *string    `json:"project_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t Task) Key() string { return t.ID }

// NewTask is a task minus the server-assigned fields.
// An empty Status lets the server default it to todo.
type NewTask struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status,omitempty"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
	ProjectID   *string    `json:"project_id"`
}

// Event is a calendar entry
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	AllDay      bool      `json:"all_day"`
	OwnerID     string    `json:"owner_id"`
	ProjectID   *string   `json:"project_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e Event) Key() string { return e.ID }

// NewEvent is an event minus the server-assigned fields
type NewEvent struct {
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	AllDay      bool      `json:"all_day"`
	OwnerID     string    `json:"owner_id"`
	ProjectID   *string   `json:"project_id"`
}

// String returns a pointer to s, or nil when s is blank
func String(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
