package views

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/pmdash/internal/dialogs"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// Page is one of the screens reachable from the sidebar
type Page int

const (
	PageDashboard Page = iota
	PageProjects
	PageSettings
)

// Pages lists the sidebar entries in display order
var Pages = []Page{PageDashboard, PageProjects, PageSettings}

func (p Page) Title() string {
	switch p {
	case PageProjects:
		return "Projects"
	case PageSettings:
		return "Settings"
	}
	return "Dashboard"
}

// ToastMsg asks the app root to show a transient notification
type ToastMsg struct {
	Text  string
	Error bool
}

func toastCmd(text string, isErr bool) tea.Cmd {
	if text == "" {
		return nil
	}
	return func() tea.Msg {
		return ToastMsg{Text: text, Error: isErr}
	}
}

// outcomeToast turns a dialog outcome into its notification, if any
func outcomeToast(out dialogs.Outcome) tea.Cmd {
	if out.Err != "" {
		return toastCmd(out.Err, true)
	}
	return toastCmd(out.Toast, false)
}

// DataChangedMsg reports that some hook's local state changed
type DataChangedMsg struct{}

func dataChanged() tea.Msg {
	return DataChangedMsg{}
}

// ThemeToggledMsg asks the app root to switch and persist the theme
type ThemeToggledMsg struct{}
