package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/pmdash/internal/models"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
	Cursor      lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
	Cursor:      lipgloss.Color("#c0caf5"),
}

// TokyoNightDay is the light variant
var TokyoNightDay = Theme{
	Name: "Tokyo Night Day",

	Background:    lipgloss.Color("#e1e2e7"),
	Foreground:    lipgloss.Color("#3760bf"),
	ForegroundDim: lipgloss.Color("#848cb5"),

	Primary:   lipgloss.Color("#2e7de9"),
	Secondary: lipgloss.Color("#9854f1"),
	Accent:    lipgloss.Color("#007197"),

	Success: lipgloss.Color("#587539"),
	Warning: lipgloss.Color("#8c6c3e"),
	Error:   lipgloss.Color("#f52a65"),
	Info:    lipgloss.Color("#2e7de9"),

	Border:      lipgloss.Color("#a8aecb"),
	BorderFocus: lipgloss.Color("#2e7de9"),
	Selection:   lipgloss.Color("#b7c1e3"),
	Cursor:      lipgloss.Color("#3760bf"),
}

// Current holds the active theme
var Current = TokyoNight

// Use switches the active theme by preference name ("dark" or "light").
// Styles built before the switch keep the old colors.
func Use(name string) {
	if name == "light" {
		Current = TokyoNightDay
		return
	}
	Current = TokyoNight
}

// ProjectStatusColor maps a project status to its badge color
func ProjectStatusColor(status models.ProjectStatus) lipgloss.Color {
	switch status {
	case models.ProjectActive:
		return Current.Success
	case models.ProjectCompleted:
		return Current.Info
	case models.ProjectOnHold:
		return Current.Warning
	}
	return Current.ForegroundDim
}

// TaskStatusColor maps a task status to its badge color
func TaskStatusColor(status models.TaskStatus) lipgloss.Color {
	switch status {
	case models.TaskInProgress:
		return Current.Info
	case models.TaskDone:
		return Current.Success
	}
	return Current.ForegroundDim
}

// MaxWidth is the maximum content width for the app, sidebar included
const MaxWidth = 120

// SidebarWidth is the fixed width of the navigation sidebar
const SidebarWidth = 24

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	// App container
	App lipgloss.Style

	// Title bar
	TitleBar   lipgloss.Style
	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	PageTitle  lipgloss.Style

	// Sidebar
	Sidebar        lipgloss.Style
	SidebarHeading lipgloss.Style
	SidebarItem    lipgloss.Style
	SidebarActive  lipgloss.Style
	SidebarDanger  lipgloss.Style

	// Lists
	List         lipgloss.Style
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	ItemTitle    lipgloss.Style

	// Cards and popups
	Card         lipgloss.Style
	CardSelected lipgloss.Style
	Popup        lipgloss.Style

	// Buttons
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	// Status badges
	Badge lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style
	FieldError   lipgloss.Style

	// Help text
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Notifications
	Toast      lipgloss.Style
	ToastError lipgloss.Style
	Error      lipgloss.Style

	// Status bar
	StatusBar lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		App: lipgloss.NewStyle().
			Background(t.Background).
			Foreground(t.Foreground),

		TitleBar: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Background).
			Padding(0, 1).
			Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		PageTitle: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true).
			Padding(0, 1),

		Sidebar: lipgloss.NewStyle().
			Width(SidebarWidth).
			Padding(1, 1).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(t.Border),

		SidebarHeading: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Bold(true).
			Padding(0, 1),

		SidebarItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		SidebarActive: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 1).
			Bold(true),

		SidebarDanger: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1),

		List: lipgloss.NewStyle().
			Padding(1, 2),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		ItemTitle: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true),

		Card: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		CardSelected: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus),

		Popup: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Foreground(t.Background).
			Padding(0, 1),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		FieldError: lipgloss.NewStyle().
			Foreground(t.Error),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Toast: lipgloss.NewStyle().
			Foreground(t.Success).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Success).
			Padding(0, 1),

		ToastError: lipgloss.NewStyle().
			Foreground(t.Error).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Error).
			Padding(0, 1),

		Error: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),
	}
}

// StatusBadge renders label on a background of color
func (s *Styles) StatusBadge(label string, color lipgloss.Color) string {
	return s.Badge.Background(color).Render(label)
}
