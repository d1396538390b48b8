package views

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/pmdash/internal/ui/styles"
)

// ToastDuration is how long a notification stays on screen
const ToastDuration = 4 * time.Second

type toastExpiredMsg struct{ id int }

type toast struct {
	id    int
	text  string
	isErr bool
}

// Toasts is the stack of transient notifications
type Toasts struct {
	items  []toast
	nextID int
}

// Push adds a notification and schedules its removal
func (t *Toasts) Push(msg ToastMsg) tea.Cmd {
	t.nextID++
	id := t.nextID
	t.items = append(t.items, toast{id: id, text: msg.Text, isErr: msg.Error})
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// Update drops expired notifications; it reports whether msg was handled
func (t *Toasts) Update(msg tea.Msg) bool {
	expired, ok := msg.(toastExpiredMsg)
	if !ok {
		return false
	}
	for i, item := range t.items {
		if item.id == expired.id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			break
		}
	}
	return true
}

func (t *Toasts) Len() int { return len(t.items) }

func (t *Toasts) View(s *styles.Styles, width int) string {
	if len(t.items) == 0 {
		return ""
	}
	rendered := make([]string, len(t.items))
	for i, item := range t.items {
		style := s.Toast
		if item.isErr {
			style = s.ToastError
		}
		rendered[i] = style.Render(truncate(item.text, max(width-4, 10)))
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}
