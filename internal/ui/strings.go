package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens a string to the given display width, adding an
// ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads a string with spaces to the given display width.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// fitCell truncates and pads value to exactly width columns.
func fitCell(value string, width int) string {
	return padRight(truncate(value, width), width)
}

// pageWindow returns the page numbers shown in the footer: the current
// page and up to two pages after it.
func pageWindow(current, total int) []int {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	last := min(current+pageWindowSize-1, total)
	pages := make([]int, 0, last-current+1)
	for p := current; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}

// shortDate trims an ISO timestamp to its date part.
func shortDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 10 && value[4] == '-' && value[7] == '-' {
		return value[:10]
	}
	return value
}

// yesNo renders a boolean column.
func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
