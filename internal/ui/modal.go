package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/librarian/internal/listsync"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// placeModal centers a bordered dialog on the screen.
func placeModal(theme Theme, width, height, modalWidth int, border string, content string) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(modalWidth)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)))
}

// confirmModal asks before a delete. The confirmation is answered exactly
// once, either way.
type confirmModal struct {
	ctx     context.Context
	confirm *listsync.Confirmation
	running bool
}

type deleteDoneMsg struct {
	id  string
	err error
}

func newConfirmModal(ctx context.Context, confirm *listsync.Confirmation) *confirmModal {
	return &confirmModal{ctx: ctx, confirm: confirm}
}

// Update implements Modal.
func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if _, ok := msg.(deleteDoneMsg); ok {
		return c, nil, true
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || c.running {
		return c, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Yes):
		c.running = true
		return c, confirmCmd(c.ctx, c.confirm), false
	case key.Matches(keyMsg, keys.No):
		_ = c.confirm.Decline()
		return c, nil, true
	}
	return c, nil, false
}

// View implements Modal.
func (c *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.DangerText.Render(c.confirm.Prompt))
	b.WriteString("\n\n")
	if c.running {
		b.WriteString(styles.WarningText.Render("Deleting..."))
	} else {
		b.WriteString(styles.AccentText.Render("y") + styles.MutedText.Render(" delete   ") +
			styles.AccentText.Render("n") + styles.MutedText.Render(" keep"))
	}
	return placeModal(theme, width, height, min(56, max(width-4, 20)), theme.Danger, b.String())
}

func confirmCmd(ctx context.Context, confirm *listsync.Confirmation) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return deleteDoneMsg{id: confirm.ID, err: confirm.Confirm(ctx)}
	}
}

// loginModal collects credentials and signs in.
type loginModal struct {
	ctx     context.Context
	auth    Authenticator
	inputs  [2]textinput.Model // email, password
	focus   int
	running bool
	err     error
}

type loginDoneMsg struct {
	email string
	err   error
}

func newLoginModal(ctx context.Context, auth Authenticator, email string) *loginModal {
	l := &loginModal{ctx: ctx, auth: auth}

	l.inputs[0] = textinput.New()
	l.inputs[0].Prompt = ""
	l.inputs[0].Placeholder = "name@example.com"
	l.inputs[0].SetValue(email)

	l.inputs[1] = textinput.New()
	l.inputs[1].Prompt = ""
	l.inputs[1].Placeholder = "password"
	l.inputs[1].EchoMode = textinput.EchoPassword
	l.inputs[1].EchoCharacter = '•'

	if email != "" {
		l.focus = 1
	}
	l.inputs[l.focus].Focus()
	return l
}

// Update implements Modal.
func (l *loginModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if done, ok := msg.(loginDoneMsg); ok {
		l.running = false
		l.err = done.err
		if done.err != nil {
			l.inputs[1].SetValue("")
		}
		return l, nil, done.err == nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || l.running {
		return l, nil, false
	}

	switch {
	case key.Matches(keyMsg, keys.Escape):
		return l, nil, true
	case keyMsg.String() == "enter" && l.focus == 1:
		email := strings.TrimSpace(l.inputs[0].Value())
		if email == "" || l.inputs[1].Value() == "" {
			l.err = errMissingCredentials
			return l, nil, false
		}
		l.running = true
		l.err = nil
		return l, loginCmd(l.ctx, l.auth, email, l.inputs[1].Value()), false
	case key.Matches(keyMsg, keys.NextField), key.Matches(keyMsg, keys.PrevField), keyMsg.String() == "enter":
		l.inputs[l.focus].Blur()
		l.focus = 1 - l.focus
		l.inputs[l.focus].Focus()
		return l, nil, false
	}

	var cmd tea.Cmd
	l.inputs[l.focus], cmd = l.inputs[l.focus].Update(keyMsg)
	return l, cmd, false
}

// View implements Modal.
func (l *loginModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	label := lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color(theme.Muted))

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Log in"))
	b.WriteString("\n\n")
	b.WriteString(label.Render("Email") + l.inputs[0].View() + "\n")
	b.WriteString(label.Render("Password") + l.inputs[1].View() + "\n\n")
	switch {
	case l.running:
		b.WriteString(styles.WarningText.Render("Signing in..."))
	case l.err != nil:
		b.WriteString(styles.DangerText.Render(l.err.Error()))
	default:
		b.WriteString(styles.FaintText.Render("enter continue · esc browse signed out"))
	}
	return placeModal(theme, width, height, min(56, max(width-4, 20)), theme.Accent, b.String())
}

func loginCmd(ctx context.Context, auth Authenticator, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		_, err := auth.Login(ctx, email, password)
		return loginDoneMsg{email: email, err: err}
	}
}
