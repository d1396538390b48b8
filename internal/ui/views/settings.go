package views

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/models"
	"github.com/tgienger/pmdash/internal/prefs"
	"github.com/tgienger/pmdash/internal/ui/keys"
	"github.com/tgienger/pmdash/internal/ui/styles"
)

// Account is the identity shown on the settings page
type Account interface {
	User() *backend.User
	Profile() *models.Profile
}

// SettingsView shows the theme toggle and the profile summary
type SettingsView struct {
	account Account
	theme   func() string
	styles  *styles.Styles
	keys    keys.KeyMap
	width   int
	height  int
}

func NewSettingsView(account Account, theme func() string, s *styles.Styles) *SettingsView {
	return &SettingsView{account: account, theme: theme, styles: s, keys: keys.DefaultKeyMap()}
}

func (v *SettingsView) Init() tea.Cmd { return nil }

func (v *SettingsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	case tea.KeyMsg:
		if key.Matches(msg, v.keys.Theme) || key.Matches(msg, v.keys.Enter) {
			return v, func() tea.Msg { return ThemeToggledMsg{} }
		}
	}
	return v, nil
}

func (v *SettingsView) View() string {
	s := v.styles
	inner := max(v.width-4, 30)

	dark, light := s.Button, s.Button
	if v.theme() == prefs.ThemeLight {
		light = s.ButtonFocused
	} else {
		dark = s.ButtonFocused
	}
	appearance := s.Card.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Appearance"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center, dark.Render("Dark"), " ", light.Render("Light")),
		s.TitleMuted.Render("t: toggle theme"),
	))

	var profile []string
	if u := v.account.User(); u == nil {
		profile = append(profile, s.TitleMuted.Render("Not signed in. Press 'i' to sign in."))
	} else {
		name := "Not set"
		since := u.CreatedAt
		if p := v.account.Profile(); p != nil {
			if p.FullName != nil {
				name = *p.FullName
			}
			since = p.CreatedAt
		}
		profile = append(profile,
			s.TitleMuted.Render("Email:   ")+u.Email,
			s.TitleMuted.Render("Name:    ")+name,
			s.TitleMuted.Render("Member since ")+since.Local().Format("Jan 2, 2006"),
		)
	}
	account := s.Card.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Profile"), ""}, profile...)...,
	))

	return lipgloss.JoinVertical(lipgloss.Left, appearance, account)
}

// Capturing is always false; the settings page has no text input
func (v *SettingsView) Capturing() bool { return false }
