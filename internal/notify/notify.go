// Package notify shows short status messages to the user: the terminal
// stand-in for a browser toast.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type Severity int

const (
	Info Severity = iota
	Success
	Error
	Warning
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Notification is one toast. Duration is how long a graphical host would keep
// it on screen; LinkURL, when set, is where clicking it leads.
type Notification struct {
	Message  string
	Severity Severity
	Duration time.Duration
	LinkURL  string
}

var (
	colors = map[Severity]lipgloss.Color{
		Info:    lipgloss.Color("#323232"),
		Success: lipgloss.Color("#2e7d32"),
		Error:   lipgloss.Color("#c62828"),
		Warning: lipgloss.Color("#f57c00"),
	}
	icons = map[Severity]string{
		Info:    "ℹ",
		Success: "✔",
		Error:   "✖",
		Warning: "!",
	}
)

// Terminal writes notifications as single lines to W. With Color the icon is
// styled as a badge in the severity's colour.
type Terminal struct {
	W     io.Writer
	Color bool

	mu sync.Mutex
}

func (t *Terminal) Notify(n Notification) {
	if t == nil || t.W == nil {
		return
	}
	icon := icons[n.Severity]
	msg := n.Message
	if t.Color {
		badge := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(colors[n.Severity]).
			Padding(0, 1).
			Bold(true)
		icon = badge.Render(icon)
		if n.Severity == Error {
			msg = lipgloss.NewStyle().Foreground(colors[Error]).Render(msg)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.W, "%s %s\n", icon, msg)
	if n.LinkURL != "" {
		link := n.LinkURL
		if t.Color {
			link = lipgloss.NewStyle().Underline(true).Render(link)
		}
		fmt.Fprintf(t.W, "  → %s\n", link)
	}
}

// Discard drops every notification. Used for --quiet.
type Discard struct{}

func (Discard) Notify(Notification) {}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification, or false if there is none.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
