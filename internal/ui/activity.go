package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/librarian/internal/logtail"
)

// activityState holds the activity log view state.
type activityState struct {
	lines  []string
	follow bool
	err    error

	// Skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
}

type activityMsg struct {
	lines []string
	err   error
}

func readActivityCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, ActivityLineLimit)
		return activityMsg{lines: lines, err: err}
	}
}

func (m *Model) handleActivity(msg activityMsg) {
	m.activity.err = msg.err
	if msg.err == nil && !slices.Equal(msg.lines, m.activity.lines) {
		m.activity.lines = msg.lines
		m.activity.contentVersion++
	}
	m.updateActivityViewport()
}

// updateActivityViewport sizes the viewport and refreshes its content.
func (m *Model) updateActivityViewport() {
	if m.activityViewport.Width == 0 {
		m.activityViewport = viewport.New(m.width-4, m.height-5)
	}
	// Box height = m.height - 3 (header, cmdbar, status bar below)
	m.activityViewport.Width = max(m.width-4, 1)
	m.activityViewport.Height = max(m.height-5, 1)
	m.activityViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.activity.lastRendered == 0 || m.activity.contentVersion != m.activity.lastRendered {
		m.activityViewport.SetContent(m.renderActivityContent())
		m.activity.lastRendered = max(m.activity.contentVersion, 1)
	}
	if m.activity.follow {
		m.activityViewport.GotoBottom()
	}
}

// renderActivity renders the activity log view.
func (m Model) renderActivity() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	title := fmt.Sprintf("Activity (%d)", len(m.activity.lines))
	box := m.renderTitledBox(title, m.activityViewport.View(), m.width, m.height-3, true)

	var parts []string
	if m.activity.follow {
		parts = append(parts, bg.Render("FOLLOW", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("PAUSED", styles.WarningText.Bold(true)))
	}
	if m.logFile == "" {
		parts = append(parts, bg.Render("logging disabled", styles.MutedText))
	} else {
		parts = append(parts, bg.Render(truncate(m.logFile, 60), styles.FaintText))
	}
	if m.activity.err != nil {
		parts = append(parts, bg.Render(truncate(m.activity.err.Error(), 60), styles.DangerText))
	}
	status := styles.Footer.Width(m.width).Render(bg.Join(parts, "  "))
	return box + "\n" + status
}

func (m *Model) renderActivityContent() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	if len(m.activity.lines) == 0 {
		return bg.Render("No activity yet", styles.MutedText)
	}
	out := make([]string, 0, len(m.activity.lines))
	for _, line := range m.activity.lines {
		out = append(out, m.formatActivityLine(line, styles, bg))
	}
	return strings.Join(out, "\n")
}

// formatActivityLine colors one slog text line: time, level, message and
// then the attributes as key=value.
func (m *Model) formatActivityLine(line string, styles Styles, bg BgStyle) string {
	entry := logtail.ParseLine(line)
	if entry.Level == "" {
		return bg.Render(entry.Raw, styles.Text)
	}

	var b strings.Builder
	if !entry.Time.IsZero() {
		b.WriteString(bg.Render(entry.Time.In(time.Local).Format("2006-01-02 15:04:05"), styles.FaintText))
		b.WriteString(bg.Space())
	}
	level := strings.ToUpper(entry.Level)
	b.WriteString(bg.Render(padRight(level, 5), levelStyle(level, styles).Bold(true)))
	b.WriteString(bg.Space())
	b.WriteString(bg.Render(entry.Message, styles.Text))
	for _, attr := range entry.Attrs {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(attr.Key+"=", styles.MutedText))
		valueStyle := styles.AccentText
		if attr.Key == "error" {
			valueStyle = styles.DangerText
		}
		b.WriteString(bg.Render(attr.Value, valueStyle))
	}
	return b.String()
}

// levelStyle returns the style for a log level.
func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERROR":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// handleActivityKey processes keyboard input for the activity view.
func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Activity):
		m.currentView = viewLists
	case msg.String() == " ":
		m.activity.follow = !m.activity.follow
		if m.activity.follow {
			m.activityViewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Top):
		m.activityViewport.GotoTop()
		m.activity.follow = false
	case key.Matches(msg, m.keys.Bottom):
		m.activityViewport.GotoBottom()
		m.activity.follow = true
	case key.Matches(msg, m.keys.Down):
		m.activityViewport.ScrollDown(1)
		m.activity.follow = false
	case key.Matches(msg, m.keys.Up):
		m.activityViewport.ScrollUp(1)
		m.activity.follow = false
	case key.Matches(msg, m.keys.NextPage):
		m.activityViewport.PageDown()
		m.activity.follow = false
	case key.Matches(msg, m.keys.PrevPage):
		m.activityViewport.PageUp()
		m.activity.follow = false
	}
	return m, nil
}
