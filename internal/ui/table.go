package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/state"
)

const columnGap = 2

// renderList renders the active tab: a titled table box and the paging
// footer below it.
func (m Model) renderList() string {
	t := m.activeTab()
	v := t.view()
	contentHeight := m.height - 3 // header + cmdbar + footer

	title := m.listTitle(t, v)
	content := m.renderListContent(t, v, m.width-2, contentHeight-2)
	box := m.renderTitledBox(title, content, m.width, contentHeight, true)
	return box + "\n" + m.renderFooter(v)
}

// listTitle builds "Books (42) /emma title▲".
func (m Model) listTitle(t listTab, v tabView) string {
	title := t.label()
	if v.hasData && v.totalItems >= 0 {
		title = fmt.Sprintf("%s (%d)", title, v.totalItems)
	}
	if v.query.Search != "" {
		title += " /" + truncate(v.query.Search, 20)
	}
	if !v.query.Sort.IsZero() {
		title += " " + v.query.Sort.Field + sortArrow(v.query.Sort.Direction)
	}
	return title
}

func sortArrow(dir state.SortDirection) string {
	if dir == state.Desc {
		return "▼"
	}
	return "▲"
}

// renderListContent renders the table body, or a placeholder when there is
// nothing to show.
func (m Model) renderListContent(t listTab, v tabView, width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	var lines []string
	if m.searching {
		lines = append(lines, bg.Render("/", styles.AccentText)+m.search.View(), "")
		height -= 2
	}

	switch {
	case !m.signedIn():
		lines = append(lines, bg.Render("Signed out. Press L to log in.", styles.WarningText))
	case v.lastErr != nil:
		lines = append(lines,
			bg.Render(describeFetchError(v.lastErr), styles.DangerText),
			"",
			bg.Render("Press R to retry.", styles.MutedText))
	case !v.hasData && v.loading:
		lines = append(lines, bg.Render("Loading...", styles.MutedText))
	case len(v.rows) == 0 && v.hasData:
		empty := "No " + strings.ToLower(t.label())
		if v.query.Search != "" {
			empty += " match " + fmt.Sprintf("%q", v.query.Search)
		}
		lines = append(lines, bg.Render(empty, styles.MutedText))
	default:
		lines = append(lines, m.renderTable(t.headers(), v.query.Sort, v.rows, m.selected[m.active], width, height)...)
	}

	if v.commitErr != nil && m.modal == nil {
		lines = append(lines, "", bg.Render(truncate(v.commitErr.Error(), width), styles.DangerText))
	}
	return strings.Join(lines, "\n")
}

// columnWidths splits width between columns by weight.
func columnWidths(headers []columnHeader, width int) []int {
	if len(headers) == 0 {
		return nil
	}
	avail := width - columnGap*(len(headers)-1) - 1
	total := 0
	for _, h := range headers {
		total += max(h.weight, 1)
	}
	widths := make([]int, len(headers))
	used := 0
	for i, h := range headers {
		widths[i] = max(avail*max(h.weight, 1)/total, 3)
		used += widths[i]
	}
	if rest := avail - used; rest > 0 {
		widths[len(widths)-1] += rest
	}
	return widths
}

// renderTable renders the header row and as many data rows as fit. The
// window scrolls to keep the selected row visible.
func (m Model) renderTable(headers []columnHeader, sort state.SortSpec, rows []tabRow, selected, width, height int) []string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	widths := columnWidths(headers, width)

	cells := make([]string, len(headers))
	for i, h := range headers {
		title := h.title
		if h.sortKey != "" && h.sortKey == sort.Field {
			title += sortArrow(sort.Direction)
		}
		cells[i] = bg.Render(fitCell(title, widths[i]), styles.MutedText.Bold(true))
	}
	lines := []string{bg.Space() + strings.Join(cells, bg.Spaces(columnGap))}

	visible := max(height-1, 1)
	start := 0
	if selected >= visible {
		start = selected - visible + 1
	}
	end := min(start+visible, len(rows))
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(headers, rows[i], widths, i == selected, width))
	}
	return lines
}

func (m Model) renderRow(headers []columnHeader, row tabRow, widths []int, selected bool, width int) string {
	rowBg := m.theme.FocusBg
	if selected {
		rowBg = m.theme.SelectionBg
	}
	bg := NewBgStyle(rowBg)
	styles := m.theme.Styles()

	parts := make([]string, len(headers))
	for i, h := range headers {
		var value string
		if i < len(row.cells) {
			value = row.cells[i]
		}
		style := styles.Text
		switch {
		case selected:
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		case h.badge:
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.colorForStatus(row.status)))
		}
		parts[i] = bg.Render(fitCell(value, widths[i]), style)
	}
	content := bg.Space() + strings.Join(parts, bg.Spaces(columnGap))
	return lipgloss.NewStyle().Background(lipgloss.Color(rowBg)).Width(width).Render(content)
}

// colorForStatus returns the theme color for a given status.
func (m Model) colorForStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if color, ok := m.theme.StatusColors[status]; ok {
		return color
	}
	return m.theme.Text
}

// describeFetchError turns a failed page fetch into a short message.
func describeFetchError(err error) string {
	var apiErr *library.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Sprintf("Server error %d: %s", apiErr.Status, apiErr.Message)
		}
		return fmt.Sprintf("Server error %d", apiErr.Status)
	}
	return classifyConnectionError(err) + ": " + err.Error()
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderTitledBox renders content in a box with the title embedded in the top border.
// Format: ┌─── Title ───┐
// When focused is true, uses BorderFocus color and FocusBg background.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")
	boxHeight := height - 2

	paddedLines := make([]string, 0, max(boxHeight, 0))
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		paddedLines = append(paddedLines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(paddedLines, "\n") + "\n" + bottomBorder
}
