package resource

import (
	"time"

	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/models"
)

// NewProjects lists the projects owned by ownerID, newest first
func NewProjects(store backend.DataStore, ownerID string, opts ...Option) *Hook[models.Project] {
	opts = append([]Option{WithFilter(backend.Eq("owner_id", ownerID))}, opts...)
	return New[models.Project](store, models.TableProjects, opts...)
}

// NewTasks lists the tasks of one project, or every visible task when
// projectID is empty
func NewTasks(store backend.DataStore, projectID string, opts ...Option) *Hook[models.Task] {
	if projectID != "" {
		opts = append([]Option{WithFilter(backend.Eq("project_id", projectID))}, opts...)
	}
	return New[models.Task](store, models.TableTasks, opts...)
}

// NewEvents lists the events owned by ownerID, newest first
func NewEvents(store backend.DataStore, ownerID string, opts ...Option) *Hook[models.Event] {
	opts = append([]Option{WithFilter(backend.Eq("owner_id", ownerID))}, opts...)
	return New[models.Event](store, models.TableEvents, opts...)
}

// NewUpcomingEvents lists at most limit events starting at or after the
// time of each load, soonest first
func NewUpcomingEvents(store backend.DataStore, ownerID string, now func() time.Time, limit int, opts ...Option) *Hook[models.Event] {
	base := []Option{
		WithFilter(backend.Eq("owner_id", ownerID)),
		WithFilterFunc(func() backend.Filter { return backend.Gte("start_time", now().UTC()) }),
		WithOrder("start_time", true),
		WithLimit(limit),
	}
	return New[models.Event](store, models.TableEvents, append(base, opts...)...)
}
