package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salescast/internal/tui/theme"
)

// StatusKind colors the status bar message.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusOK
	StatusError
)

// Status is what the bottom bar shows.
type Status struct {
	User     string
	Message  string
	Kind     StatusKind
	Loading  bool
	LoadTime time.Duration
	Hints    string
}

// RenderStatusBar renders the bottom bar: key hints and the message on the
// left, the signed-in user and load time on the right.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active
	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	msgColor := t.TextPrimary
	switch st.Kind {
	case StatusOK:
		msgColor = t.Good
	case StatusError:
		msgColor = t.Bad
	}
	msg := lipgloss.NewStyle().Foreground(msgColor).Background(t.Surface).Bold(st.Kind != StatusInfo)

	hints := st.Hints
	if hints == "" {
		hints = "[?]help  [q]uit"
	}
	left := dim.Render(" " + hints)
	if st.Message != "" {
		left += base.Render("  ") + msg.Render(st.Message)
	}

	var right []string
	if st.Loading {
		right = append(right, "loading…")
	} else if st.LoadTime > 0 {
		right = append(right, fmt.Sprintf("refit %.0fms", float64(st.LoadTime.Microseconds())/1000))
	}
	if st.User != "" {
		right = append(right, st.User)
	}
	rightStr := base.Render(strings.Join(right, " · ") + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if gap < 0 {
		return lipgloss.NewStyle().Background(t.Surface).Width(width).MaxWidth(width).Render(left)
	}
	return left + base.Render(strings.Repeat(" ", gap)) + rightStr
}
