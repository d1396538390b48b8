package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the views react to
type KeyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Enter    key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Save     key.Binding

	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Status  key.Binding
	Refresh key.Binding
	Help    key.Binding

	Dashboard key.Binding
	Projects  key.Binding
	Settings  key.Binding

	SignIn     key.Binding
	SignOut    key.Binding
	Theme      key.Binding
	ToggleMode key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "select"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous option"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next option"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Status: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "change status"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "dashboard"),
		),
		Projects: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "projects"),
		),
		Settings: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "settings"),
		),
		SignIn: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "sign in"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sign out"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle theme"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "sign in / sign up"),
		),
	}
}
