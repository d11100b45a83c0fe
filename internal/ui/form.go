package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/listsync"
)

// formModal edits the draft of one list. Every keystroke is mirrored into
// the list's edit session so validation errors show up as the user types.
type formModal struct {
	ctx    context.Context
	list   listTab
	title  string
	specs  []library.FieldSpec
	inputs []textinput.Model
	focus  int
	saving bool
	err    error
}

type formSubmittedMsg struct {
	list string
	err  error
}

func newFormModal(ctx context.Context, list listTab, title string) *formModal {
	draft := list.view().edit.Draft
	f := &formModal{ctx: ctx, list: list, title: title, specs: list.Schema()}
	for i, spec := range f.specs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Placeholder = fieldHint(spec)
		ti.SetValue(draft[spec.Name])
		if i == 0 {
			ti.Focus()
		}
		f.inputs = append(f.inputs, ti)
	}
	return f
}

// fieldHint describes the accepted input for a field kind.
func fieldHint(spec library.FieldSpec) string {
	switch spec.Kind {
	case library.KindChoice:
		return strings.Join(spec.Options, " | ")
	case library.KindBool:
		return "true | false"
	case library.KindDate:
		return library.DateLayout
	case library.KindList:
		return "comma separated ids"
	case library.KindInt:
		return "number"
	case library.KindEmail:
		return "name@example.com"
	default:
		return ""
	}
}

func (f *formModal) move(delta int) {
	if len(f.inputs) == 0 {
		return
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// Update implements Modal.
func (f *formModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if done, ok := msg.(formSubmittedMsg); ok {
		f.saving = false
		f.err = done.err
		return f, nil, done.err == nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || f.saving {
		return f, nil, false
	}

	switch {
	case key.Matches(keyMsg, keys.Escape):
		if err := f.list.CancelEdit(); err != nil && !errors.Is(err, listsync.ErrNotEditing) {
			f.err = err
			return f, nil, false
		}
		return f, nil, true
	case keyMsg.String() == "ctrl+s",
		keyMsg.String() == "enter" && f.focus == len(f.inputs)-1:
		f.saving = true
		f.err = nil
		return f, submitCmd(f.ctx, f.list), false
	case key.Matches(keyMsg, keys.NextField), keyMsg.String() == "enter":
		f.move(1)
		return f, nil, false
	case key.Matches(keyMsg, keys.PrevField):
		f.move(-1)
		return f, nil, false
	}

	if len(f.inputs) == 0 {
		return f, nil, false
	}
	in := f.inputs[f.focus]
	before := in.Value()
	in, cmd := in.Update(keyMsg)
	f.inputs[f.focus] = in
	if in.Value() != before {
		// Validation errors are read back from the edit view.
		_ = f.list.SetField(f.specs[f.focus].Name, in.Value())
	}
	return f, cmd, false
}

// View implements Modal.
func (f *formModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	edit := f.list.view().edit

	labelWidth := 0
	for _, spec := range f.specs {
		labelWidth = max(labelWidth, lipgloss.Width(spec.Label)+2)
	}
	labelStyle := lipgloss.NewStyle().Width(labelWidth).Foreground(lipgloss.Color(theme.Muted))
	focusLabel := labelStyle.Foreground(lipgloss.Color(theme.Accent)).Bold(true)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(f.title))
	b.WriteString("\n\n")
	for i, spec := range f.specs {
		label := spec.Label
		if spec.Required {
			label += "*"
		}
		ls := labelStyle
		if i == f.focus {
			ls = focusLabel
		}
		b.WriteString(ls.Render(label))
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
		if verr := edit.Errors[spec.Name]; verr != nil {
			b.WriteString(lipgloss.NewStyle().PaddingLeft(labelWidth).Render(styles.DangerText.Render(verr.Err.Error())))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case f.saving:
		b.WriteString(styles.WarningText.Render("Saving..."))
	case f.err != nil:
		b.WriteString(styles.DangerText.Render(formErrorText(f.err)))
	default:
		b.WriteString(styles.FaintText.Render("ctrl+s save · tab next · esc cancel"))
	}

	modalWidth := min(max(60, labelWidth+40), max(width-4, 20))
	return placeModal(theme, width, height, modalWidth, theme.Accent, b.String())
}

// formErrorText summarizes a submit failure. Field errors are already shown
// next to their inputs.
func formErrorText(err error) string {
	var fieldErrs library.FieldErrors
	if errors.As(err, &fieldErrs) {
		return "Fix the highlighted fields"
	}
	var commitErr *listsync.CommitError
	if errors.As(err, &commitErr) {
		return "Save failed: " + commitErr.Err.Error()
	}
	return err.Error()
}

func submitCmd(ctx context.Context, list listTab) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return formSubmittedMsg{list: list.Name(), err: list.submit(ctx)}
	}
}
