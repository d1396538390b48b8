package views

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/pmdash/internal/ui/styles"
)

// RenderSidebar draws the navigation column. email is empty when signed out.
func RenderSidebar(s *styles.Styles, active Page, email string, height int) string {
	inner := styles.SidebarWidth - 4

	item := func(p Page, n int) string {
		label := fmt.Sprintf("%d %s", n, p.Title())
		if p == active {
			return s.SidebarActive.Width(inner).Render(label)
		}
		return s.SidebarItem.Width(inner).Render(label)
	}

	top := []string{
		s.SidebarHeading.Render("Workspace"),
		item(PageDashboard, 1),
		item(PageProjects, 2),
		"",
		s.SidebarHeading.Render("Settings"),
		item(PageSettings, 3),
	}

	var bottom []string
	if email != "" {
		bottom = []string{
			s.SidebarItem.Width(inner).Render("◉ " + truncate(email, inner-4)),
			s.SidebarDanger.Render("o Sign Out"),
		}
	}

	topBlock := lipgloss.JoinVertical(lipgloss.Left, top...)
	bottomBlock := lipgloss.JoinVertical(lipgloss.Left, bottom...)
	gap := max(height-lipgloss.Height(topBlock)-lipgloss.Height(bottomBlock)-2, 1)

	content := topBlock + lipgloss.NewStyle().Height(gap).Render("") + "\n" + bottomBlock
	return s.Sidebar.Height(max(height-2, 0)).Render(content)
}
