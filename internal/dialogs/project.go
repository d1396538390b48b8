package dialogs

import (
	"context"
	"strings"
	"time"

	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/models"
	"github.com/tgienger/pmdash/internal/resource"
)

// ProjectValues is the editable form of a project. Dates are plain
// calendar dates (YYYY-MM-DD) or empty.
type ProjectValues struct {
	Name        string
	Description string
	Status      models.ProjectStatus
	StartDate   string
	EndDate     string
}

// NewProjectValues returns the empty create form
func NewProjectValues() ProjectValues {
	return ProjectValues{Status: models.ProjectActive}
}

// ProjectValuesFrom fills the form from p, or returns the create form when p is nil
func ProjectValuesFrom(p *models.Project) ProjectValues {
	if p == nil {
		return NewProjectValues()
	}
	return ProjectValues{
		Name:        p.Name,
		Description: models.Deref(p.Description),
		Status:      p.Status,
		StartDate:   formatDate(p.StartDate),
		EndDate:     formatDate(p.EndDate),
	}
}

func (v ProjectValues) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(v.Name) == "" {
		errs["name"] = MsgProjectNameMissing
	}
	if v.Status != "" && !v.Status.Valid() {
		errs["status"] = MsgInvalidStatus
	}
	if _, err := parseDate(v.StartDate); err != nil {
		errs["start_date"] = MsgInvalidDate
	}
	if _, err := parseDate(v.EndDate); err != nil {
		errs["end_date"] = MsgInvalidDate
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (v ProjectValues) status() models.ProjectStatus {
	if v.Status == "" {
		return models.ProjectActive
	}
	return v.Status
}

// Insert converts the form into a create payload owned by ownerID
func (v ProjectValues) Insert(ownerID string) (models.NewProject, error) {
	start, err := parseDate(v.StartDate)
	if err != nil {
		return models.NewProject{}, err
	}
	end, err := parseDate(v.EndDate)
	if err != nil {
		return models.NewProject{}, err
	}
	return models.NewProject{
		Name:        strings.TrimSpace(v.Name),
		Description: models.String(v.Description),
		Status:      v.status(),
		StartDate:   start,
		EndDate:     end,
		OwnerID:     ownerID,
	}, nil
}

// Patch converts the form into an update covering every editable field
func (v ProjectValues) Patch() (backend.Row, error) {
	start, err := parseDate(v.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(v.EndDate)
	if err != nil {
		return nil, err
	}
	return backend.Row{
		"name":        strings.TrimSpace(v.Name),
		"description": nullable(models.String(v.Description)),
		"status":      string(v.status()),
		"start_date":  nullableTime(start),
		"end_date":    nullableTime(end),
	}, nil
}

// SubmitProject creates a project, or updates existing when it is non-nil.
// A failure keeps the dialog open and reports the hook's error once.
func SubmitProject(ctx context.Context, projects *resource.Hook[models.Project], existing *models.Project, ownerID string, v ProjectValues) Outcome {
	if errs := v.Validate(); errs != nil {
		return Outcome{Fields: errs}
	}

	if existing == nil {
		payload, err := v.Insert(ownerID)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		if projects.Create(ctx, payload) == nil {
			return Outcome{Err: projects.Err()}
		}
		return Outcome{Toast: "Project created successfully", Close: true}
	}

	patch, err := v.Patch()
	if err != nil {
		return Outcome{Err: err.Error()}
	}
	if projects.Update(ctx, existing.ID, patch) == nil {
		return Outcome{Err: projects.Err()}
	}
	return Outcome{Toast: "Project updated successfully", Close: true}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(models.DateLayout)
}

// parseDate reads a calendar date as UTC midnight; blank means no date
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(models.DateLayout, s, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
