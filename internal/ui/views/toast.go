package views

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskdeck/internal/mutation"
	"github.com/tgienger/taskdeck/internal/ui/styles"
)

// maxToasts bounds how many notices are stacked at once
const maxToasts = 3

// NoticeMsg wraps a notice received from the bus
type NoticeMsg struct {
	Notice mutation.Notice
}

type toastExpired struct {
	opID string
	seq  int
}

type toast struct {
	notice mutation.Notice
	seq    int
}

// Toasts shows mutation notices until their TTL runs out
type Toasts struct {
	items  []toast
	seq    int
	styles *styles.Styles

	// inFlightTTL dismisses an in-flight notice whose outcome never arrives
	inFlightTTL time.Duration
}

// NewToasts creates an empty toast stack
func NewToasts() *Toasts {
	return &Toasts{
		styles:      styles.NewStyles(),
		inFlightTTL: mutation.DefaultTimeout + mutation.DefaultNoticeTTL,
	}
}

// SetInFlightTTL sets how long an in-flight notice may stay without an
// outcome. It should outlast the mutation timeout.
func (t *Toasts) SetInFlightTTL(d time.Duration) {
	if d > 0 {
		t.inFlightTTL = d
	}
}

// Restyle picks up the current theme
func (t *Toasts) Restyle() {
	t.styles = styles.NewStyles()
}

// WaitForNotice reads the next notice from ch. It returns nil once ch is closed.
func WaitForNotice(ch <-chan mutation.Notice) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NoticeMsg{Notice: n}
	}
}

// Push shows a notice. A notice for an operation already on screen replaces
// it. Finished notices are dismissed after their TTL; in-flight ones after
// the in-flight TTL in case their outcome was dropped.
func (t *Toasts) Push(n mutation.Notice) tea.Cmd {
	t.seq++
	item := toast{notice: n, seq: t.seq}

	replaced := false
	for i := range t.items {
		if t.items[i].notice.OpID == n.OpID {
			t.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		t.items = append(t.items, item)
		if len(t.items) > maxToasts {
			t.items = t.items[len(t.items)-maxToasts:]
		}
	}

	ttl := n.TTL
	switch {
	case n.Phase == mutation.PhaseInFlight:
		ttl = t.inFlightTTL
	case ttl <= 0:
		ttl = mutation.DefaultNoticeTTL
	}
	opID, seq := n.OpID, item.seq
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return toastExpired{opID: opID, seq: seq}
	})
}

// Update handles expiry messages
func (t *Toasts) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(toastExpired); ok {
		t.expire(msg.opID, msg.seq)
	}
	return nil
}

func (t *Toasts) expire(opID string, seq int) {
	for i, item := range t.items {
		// a newer notice for the same operation keeps its own timer
		if item.notice.OpID == opID && item.seq == seq {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return
		}
	}
}

// Len returns the number of visible toasts
func (t *Toasts) Len() int {
	return len(t.items)
}

// Messages returns the visible messages, oldest first
func (t *Toasts) Messages() []string {
	out := make([]string, 0, len(t.items))
	for _, item := range t.items {
		out = append(out, text(item.notice))
	}
	return out
}

func text(n mutation.Notice) string {
	if n.Message != "" {
		return n.Message
	}
	return "Saving..."
}

// View renders the stack, or an empty string when there is nothing to show
func (t *Toasts) View() string {
	if len(t.items) == 0 {
		return ""
	}
	var rows []string
	for _, item := range t.items {
		style := t.styles.ToastInfo
		switch item.notice.Phase {
		case mutation.PhaseSucceeded:
			style = t.styles.ToastSuccess
		case mutation.PhaseFailed:
			style = t.styles.ToastError
		}
		rows = append(rows, style.Render(text(item.notice)))
	}
	return lipgloss.JoinVertical(lipgloss.Right, rows...)
}
