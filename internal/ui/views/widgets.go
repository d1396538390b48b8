package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/pmdash/internal/models"
	"github.com/tgienger/pmdash/internal/ui/styles"
)

const (
	recentProjectsLimit = 5
	upcomingEventsLimit = 5
)

// FormatDueDate renders a due date relative to now. Due dates are calendar
// dates, so only their UTC year, month and day are compared.
func FormatDueDate(due *time.Time, now time.Time) string {
	if due == nil {
		return "No due date"
	}
	y, m, d := due.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	ty, tm, td := now.Date()
	today := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, 1)):
		return "Tomorrow"
	}
	return day.Format("Jan 2")
}

// formatDate renders a calendar date the way cards show it ("Jun 1, 2026")
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006")
}

func taskBadge(s *styles.Styles, status models.TaskStatus) string {
	return s.StatusBadge(status.Label(), styles.TaskStatusColor(status))
}

func projectBadge(s *styles.Styles, status models.ProjectStatus) string {
	return s.StatusBadge(status.Label(), styles.ProjectStatusColor(status))
}

// Stats summarises the dashboard counters
type Stats struct {
	Projects       int
	ActiveProjects int
	OpenTasks      int
	DoneTasks      int
	UpcomingEvents int
}

func ComputeStats(projects []models.Project, tasks []models.Task, events []models.Event) Stats {
	st := Stats{Projects: len(projects), UpcomingEvents: len(events)}
	for _, p := range projects {
		if p.Status == models.ProjectActive {
			st.ActiveProjects++
		}
	}
	for _, t := range tasks {
		if t.Status == models.TaskDone {
			st.DoneTasks++
		} else {
			st.OpenTasks++
		}
	}
	return st
}

func renderStats(s *styles.Styles, st Stats, width int) string {
	cards := []struct {
		label string
		value int
	}{
		{"Total Projects", st.Projects},
		{"Active Projects", st.ActiveProjects},
		{"Open Tasks", st.OpenTasks},
		{"Upcoming Events", st.UpcomingEvents},
	}

	cardWidth := max(width/len(cards)-4, 14)
	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = s.Card.Width(cardWidth).Render(
			s.TitleMuted.Render(c.label) + "\n" + s.Title.Render(fmt.Sprint(c.value)),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderTaskBoard lists tasks with their status badge and due date
func renderTaskBoard(s *styles.Styles, tasks []models.Task, cursor int, focused bool, loading bool, errMsg string, now time.Time, width, maxRows int) string {
	header := s.Title.Render("Tasks") + "  " + s.TitleMuted.Render("n: new task")
	cardStyle := s.Card
	if focused {
		cardStyle = s.CardSelected
	}
	inner := max(width-4, 20)

	var body string
	switch {
	case loading:
		body = s.TitleMuted.Render("Loading tasks...")
	case errMsg != "":
		body = s.Error.Render("Error loading tasks: " + errMsg)
	case len(tasks) == 0:
		body = s.TitleMuted.Render("No tasks yet. Press 'n' to create one.")
	default:
		start := 0
		if maxRows > 0 && cursor >= maxRows {
			start = cursor - maxRows + 1
		}
		end := len(tasks)
		if maxRows > 0 {
			end = min(start+maxRows, len(tasks))
		}

		rows := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			t := tasks[i]
			due := s.TitleMuted.Render("◷ " + FormatDueDate(t.DueDate, now))
			badge := taskBadge(s, t.Status)
			titleWidth := max(inner-lipgloss.Width(badge)-lipgloss.Width(due)-6, 8)

			rowStyle := s.ListItem
			if focused && i == cursor {
				rowStyle = s.ListSelected
			}
			title := rowStyle.Width(titleWidth).Render(truncate(t.Title, titleWidth-4))
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center, badge, " ", title, " ", due))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	return cardStyle.Width(inner).Render(header + "\n\n" + body)
}

// renderRecentProjects lists the newest projects
func renderRecentProjects(s *styles.Styles, projects []models.Project, loading bool, width int) string {
	inner := max(width-4, 20)

	var body string
	switch {
	case loading:
		body = s.TitleMuted.Render("Loading projects...")
	case len(projects) == 0:
		body = s.TitleMuted.Render("No projects found")
	default:
		if len(projects) > recentProjectsLimit {
			projects = projects[:recentProjectsLimit]
		}
		rows := make([]string, 0, len(projects))
		for _, p := range projects {
			lines := []string{lipgloss.JoinHorizontal(lipgloss.Center,
				s.ItemTitle.Render(truncate(p.Name, inner-16)), " ", projectBadge(s, p.Status))}
			if p.Description != nil {
				lines = append(lines, s.TitleMuted.Render(truncate(*p.Description, inner-2)))
			}
			if p.StartDate != nil {
				lines = append(lines, s.TitleMuted.Render("Started: "+formatDate(p.StartDate)))
			}
			rows = append(rows, strings.Join(lines, "\n"))
		}
		body = strings.Join(rows, "\n\n")
	}

	return s.Card.Width(inner).Render(s.Title.Render("Recent Projects") + "\n\n" + body)
}

// renderUpcomingEvents lists the next events, soonest first
func renderUpcomingEvents(s *styles.Styles, events []models.Event, loading bool, width int) string {
	inner := max(width-4, 20)

	var body string
	switch {
	case loading:
		body = s.TitleMuted.Render("Loading events...")
	case len(events) == 0:
		body = s.TitleMuted.Render("No upcoming events")
	default:
		if len(events) > upcomingEventsLimit {
			events = events[:upcomingEventsLimit]
		}
		rows := make([]string, 0, len(events))
		for _, e := range events {
			lines := []string{s.ItemTitle.Render("▣ " + truncate(e.Title, inner-4))}
			if e.Description != nil {
				lines = append(lines, s.TitleMuted.Render(truncate(*e.Description, inner-2)))
			}
			when := e.StartTime.Local().Format("Jan 2, 2006 3:04 PM")
			if e.AllDay {
				when = e.StartTime.UTC().Format("Jan 2, 2006") + " (all day)"
			}
			lines = append(lines, s.TitleMuted.Render(when))
			rows = append(rows, strings.Join(lines, "\n"))
		}
		body = strings.Join(rows, "\n\n")
	}

	return s.Card.Width(inner).Render(s.Title.Render("Upcoming Events") + "\n\n" + body)
}

// renderProjectCard draws one card on the projects page. Task progress is
// not tracked yet, so the bar always sits at zero.
func renderProjectCard(s *styles.Styles, p models.Project, selected bool, width int) string {
	inner := max(width-4, 20)
	cardStyle := s.Card
	if selected {
		cardStyle = s.CardSelected
	}

	bar := progress.New(
		progress.WithSolidFill(string(styles.Current.Primary)),
		progress.WithoutPercentage(),
		progress.WithWidth(inner-2),
	)

	lines := []string{
		s.ItemTitle.Render(truncate(p.Name, inner-2)),
		projectBadge(s, p.Status),
	}
	if p.Description != nil {
		lines = append(lines, s.TitleMuted.Render(truncate(*p.Description, inner-2)))
	}
	lines = append(lines, bar.ViewAs(0))

	var dates []string
	if p.StartDate != nil {
		dates = append(dates, "Started "+formatDate(p.StartDate))
	}
	if p.EndDate != nil {
		dates = append(dates, "Due "+formatDate(p.EndDate))
	}
	if len(dates) > 0 {
		lines = append(lines, s.TitleMuted.Render(strings.Join(dates, " • ")))
	}

	return cardStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

// truncate shortens s to at most n cells, ending with an ellipsis
func truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r)) > n-1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
