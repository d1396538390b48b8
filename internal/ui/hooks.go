package ui

import (
	"log"
	"time"

	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/models"
	"github.com/tgienger/pmdash/internal/resource"
)

// upcomingLimit is how many future events the dashboard shows
const upcomingLimit = 5

// Hooks are the resource hooks for one signed-in user. They are discarded
// as a whole when the identity changes so no data leaks across accounts.
type Hooks struct {
	UserID   string
	Projects *resource.Hook[models.Project]
	Tasks    *resource.Hook[models.Task]
	Events   *resource.Hook[models.Event]
}

func newHooks(store backend.DataStore, uid string, now func() time.Time, logger *log.Logger) *Hooks {
	opt := resource.WithLogger(logger)
	return &Hooks{
		UserID:   uid,
		Projects: resource.NewProjects(store, uid, opt),
		Tasks:    resource.NewTasks(store, "", opt),
		Events:   resource.NewUpcomingEvents(store, uid, now, upcomingLimit, opt),
	}
}

// Close cancels in-flight requests; late results are dropped
func (h *Hooks) Close() {
	if h == nil {
		return
	}
	h.Projects.Close()
	h.Tasks.Close()
	h.Events.Close()
}
