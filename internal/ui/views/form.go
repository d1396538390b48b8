package views

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/pmdash/internal/dialogs"
	"github.com/tgienger/pmdash/internal/ui/keys"
	"github.com/tgienger/pmdash/internal/ui/styles"
)

// formField is a text input, or a choice cycled with left/right when
// options is non-empty
type formField struct {
	key     string
	label   string
	input   textinput.Model
	options []string
	labels  []string
	choice  int
}

// Form is a vertical list of fields followed by a submit button
type Form struct {
	title  string
	submit string
	fields []formField
	focus  int // len(fields) is the submit button
	errs   dialogs.FieldErrors
	busy   bool
	styles *styles.Styles
	keys   keys.KeyMap
}

func newForm(s *styles.Styles, title, submit string) *Form {
	return &Form{title: title, submit: submit, styles: s, keys: keys.DefaultKeyMap()}
}

func (f *Form) addInput(key, label, placeholder string, limit int) *Form {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	f.fields = append(f.fields, formField{key: key, label: label, input: in})
	return f
}

func (f *Form) addPassword(key, label string) *Form {
	f.addInput(key, label, "••••••", 72)
	in := &f.fields[len(f.fields)-1].input
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	return f
}

func (f *Form) addChoice(key, label string, options, labels []string) *Form {
	f.fields = append(f.fields, formField{key: key, label: label, options: options, labels: labels})
	return f
}

func (f *Form) field(key string) *formField {
	for i := range f.fields {
		if f.fields[i].key == key {
			return &f.fields[i]
		}
	}
	return nil
}

// Value returns the raw input, or the selected option for a choice field
func (f *Form) Value(key string) string {
	fd := f.field(key)
	if fd == nil {
		return ""
	}
	if len(fd.options) > 0 {
		return fd.options[fd.choice]
	}
	return fd.input.Value()
}

func (f *Form) SetValue(key, value string) {
	fd := f.field(key)
	if fd == nil {
		return
	}
	if len(fd.options) > 0 {
		fd.choice = max(slices.Index(fd.options, value), 0)
		return
	}
	fd.input.SetValue(value)
}

// SetOptions replaces a choice field's options, keeping the selection when possible
func (f *Form) SetOptions(key string, options, labels []string) {
	fd := f.field(key)
	if fd == nil {
		return
	}
	current := ""
	if len(fd.options) > 0 {
		current = fd.options[fd.choice]
	}
	fd.options, fd.labels = options, labels
	fd.choice = max(slices.Index(options, current), 0)
}

func (f *Form) SetTitle(title, submit string) {
	f.title, f.submit = title, submit
}

func (f *Form) SetErrors(errs dialogs.FieldErrors) {
	f.errs = errs
}

func (f *Form) SetBusy(busy bool) {
	f.busy = busy
}

// Reset clears every field and focuses the first one
func (f *Form) Reset() tea.Cmd {
	for i := range f.fields {
		f.fields[i].input.Reset()
		f.fields[i].choice = 0
	}
	f.errs = nil
	f.busy = false
	f.focus = 0
	return f.updateFocus()
}

func (f *Form) updateFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.fields {
		f.fields[i].input.Blur()
		if i == f.focus && len(f.fields[i].options) == 0 {
			cmd = f.fields[i].input.Focus()
		}
	}
	return cmd
}

func (f *Form) cycleFocus(dir int) tea.Cmd {
	n := len(f.fields) + 1
	f.focus = (f.focus + dir + n) % n
	return f.updateFocus()
}

// Update handles a key press and reports whether the form was submitted
func (f *Form) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	if f.busy {
		return false, nil
	}

	switch {
	case key.Matches(msg, f.keys.Save):
		return true, nil

	case key.Matches(msg, f.keys.ShiftTab):
		return false, f.cycleFocus(-1)

	case key.Matches(msg, f.keys.Tab):
		return false, f.cycleFocus(1)

	case key.Matches(msg, f.keys.Enter):
		if f.focus == len(f.fields) {
			return true, nil
		}
		return false, f.cycleFocus(1)
	}

	if f.focus >= len(f.fields) {
		return false, nil
	}
	fd := &f.fields[f.focus]

	if len(fd.options) > 0 {
		switch {
		case key.Matches(msg, f.keys.Left):
			fd.choice = (fd.choice + len(fd.options) - 1) % len(fd.options)
		case key.Matches(msg, f.keys.Right), msg.String() == " ":
			fd.choice = (fd.choice + 1) % len(fd.options)
		}
		return false, nil
	}

	var cmd tea.Cmd
	fd.input, cmd = fd.input.Update(msg)
	return false, cmd
}

// View renders the form centered in a width x height box
func (f *Form) View(width, height int) string {
	s := f.styles
	inputWidth := clamp(width-10, 20, 50)

	lines := []string{s.Title.Render(f.title), ""}
	for i, fd := range f.fields {
		style := s.Input
		if i == f.focus {
			style = s.InputFocused
		}

		lines = append(lines, fd.label+":")
		if len(fd.options) > 0 {
			label := fd.options[fd.choice]
			if fd.choice < len(fd.labels) {
				label = fd.labels[fd.choice]
			}
			lines = append(lines, style.Width(inputWidth).Render("◀ "+label+" ▶"))
		} else {
			lines = append(lines, style.Width(inputWidth).Render(fd.input.View()))
		}
		if msg := f.errs[fd.key]; msg != "" {
			lines = append(lines, s.FieldError.Render(msg))
		}
	}

	btnStyle := s.Button
	if f.focus == len(f.fields) {
		btnStyle = s.ButtonFocused
	}
	label := " " + f.submit + " "
	if f.busy {
		label = " Working... "
	}
	lines = append(lines, "", btnStyle.Render(label), "",
		s.TitleMuted.Render(strings.Join([]string{"Tab: next", "Ctrl+S: save", "Esc: cancel"}, " • ")))

	return lipgloss.Place(width, height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}
