package dialogs

import (
	"context"
	"strings"

	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/models"
	"github.com/tgienger/pmdash/internal/resource"
)

// TaskValues is the editable form of a task
type TaskValues struct {
	Title       string
	Description string
	Status      models.TaskStatus
	DueDate     string
	ProjectID   string
}

func NewTaskValues() TaskValues {
	return TaskValues{Status: models.TaskTodo}
}

// TaskValuesFrom fills the form from t, or returns the create form when t is nil
func TaskValuesFrom(t *models.Task) TaskValues {
	if t == nil {
		return NewTaskValues()
	}
	return TaskValues{
		Title:       t.Title,
		Description: models.Deref(t.Description),
		Status:      t.Status,
		DueDate:     formatDate(t.DueDate),
		ProjectID:   models.Deref(t.ProjectID),
	}
}

func (v TaskValues) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(v.Title) == "" {
		errs["title"] = MsgTaskTitleMissing
	}
	if v.Status != "" && !v.Status.Valid() {
		errs["status"] = MsgInvalidStatus
	}
	if _, err := parseDate(v.DueDate); err != nil {
		errs["due_date"] = MsgInvalidDate
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (v TaskValues) status() models.TaskStatus {
	if v.Status == "" {
		return models.TaskTodo
	}
	return v.Status
}

// Insert converts the form into a create payload assigned to assignee
func (v TaskValues) Insert(assignee string) (models.NewTask, error) {
	due, err := parseDate(v.DueDate)
	if err != nil {
		return models.NewTask{}, err
	}
	return models.NewTask{
		Title:       strings.TrimSpace(v.Title),
		Description: models.String(v.Description),
		Status:      v.status(),
		DueDate:     due,
		AssignedTo:  models.String(assignee),
		ProjectID:   models.String(v.ProjectID),
	}, nil
}

func (v TaskValues) Patch() (backend.Row, error) {
	due, err := parseDate(v.DueDate)
	if err != nil {
		return nil, err
	}
	return backend.Row{
		"title":       strings.TrimSpace(v.Title),
		"description": nullable(models.String(v.Description)),
		"status":      string(v.status()),
		"due_date":    nullableTime(due),
		"project_id":  nullable(models.String(v.ProjectID)),
	}, nil
}

// SubmitTask creates a task assigned to assignee, or updates existing
func SubmitTask(ctx context.Context, tasks *resource.Hook[models.Task], existing *models.Task, assignee string, v TaskValues) Outcome {
	if errs := v.Validate(); errs != nil {
		return Outcome{Fields: errs}
	}

	if existing == nil {
		payload, err := v.Insert(assignee)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		if tasks.Create(ctx, payload) == nil {
			return Outcome{Err: tasks.Err()}
		}
		return Outcome{Toast: "Task created successfully", Close: true}
	}

	patch, err := v.Patch()
	if err != nil {
		return Outcome{Err: err.Error()}
	}
	if tasks.Update(ctx, existing.ID, patch) == nil {
		return Outcome{Err: tasks.Err()}
	}
	return Outcome{Toast: "Task updated successfully", Close: true}
}
