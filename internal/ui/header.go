package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// renderHeader renders the status bar: logo, tabs, dashboard counters and
// the signed-in user.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("librarian", styles.Logo)}

	tabs := make([]string, 0, len(m.tabs))
	for i, t := range m.tabs {
		label := t.label()
		if compact {
			label = label[:1]
		}
		if i == m.active && m.currentView == viewLists {
			tabs = append(tabs, bg.Render("["+label+"]", styles.AccentText.Bold(true)))
		} else {
			tabs = append(tabs, bg.Render(strconv.Itoa(i+1)+" "+label, styles.MutedText))
		}
	}
	parts = append(parts, bg.Join(tabs, " "))

	if m.stats != nil {
		snap := m.stats.Snapshot()
		switch {
		case snap.HasData:
			counts := bg.Render("Books:", styles.MutedText) + bg.Space() +
				bg.Render(strconv.Itoa(snap.Totals.Books), styles.Text) + bg.Spaces(2) +
				bg.Render("Topics:", styles.MutedText) + bg.Space() +
				bg.Render(strconv.Itoa(snap.Totals.Topics), styles.Text)
			if snap.LastError != nil {
				counts += bg.Space() + bg.Render("(stale)", styles.WarningText)
			}
			parts = append(parts, counts)
		case snap.LastError != nil:
			parts = append(parts, bg.Render("API "+classifyConnectionError(snap.LastError), styles.DangerText.Bold(true)))
		}
	}

	if v := m.activeTab().view(); v.loading {
		parts = append(parts, bg.Render(m.spinner.View(), styles.AccentText))
	} else if v.offline {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText.Bold(true)))
	}

	if m.session != nil {
		sess := m.session.Session()
		if sess.LoggedIn() {
			who := sess.Email
			if who == "" {
				who = "signed in"
			}
			parts = append(parts, bg.Render("●", styles.SuccessText)+bg.Space()+bg.Render(truncate(who, 32), styles.Text))
		} else {
			parts = append(parts, bg.Render("● signed out", styles.DangerText))
		}
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.currentView == viewActivity:
		follow := "Pause"
		if !m.activity.follow {
			follow = "Follow"
		}
		commands = []cmd{
			{"Space", follow},
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"esc", "Lists"},
			{"?", "More"},
		}
	case m.searching:
		commands = []cmd{
			{"enter", "Keep"},
			{"esc", "Clear"},
		}
	default:
		t := m.activeTab()
		commands = []cmd{
			{"tab", "Lists"},
			{"/", "Search"},
			{"s", "Sort"},
			{"n/p", "Page"},
		}
		if t.editable() {
			commands = append(commands, cmd{"enter", "Edit"})
		}
		if t == m.issuesTab {
			commands = append(commands, cmd{"a", "Issue"}, cmd{"r", "Return"})
		} else {
			commands = append(commands, cmd{"a", "Add"})
		}
		if t.deletable() {
			commands = append(commands, cmd{"d", "Delete"})
		}
		commands = append(commands, cmd{"l", "Activity"}, cmd{"?", "More"})
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.flash != "" {
		style := styles.SuccessText
		if m.flashErr {
			style = styles.DangerText
		}
		segments = append(segments, bg.Render(truncate(m.flash, 60), style))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderFooter renders "Page X of Y" with a short window of page numbers.
func (m Model) renderFooter(v tabView) string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render(fmt.Sprintf("Page %d of %d", v.page, v.totalPages), styles.Text),
	}

	window := pageWindow(v.page, v.totalPages)
	nums := make([]string, 0, len(window)+2)
	if v.page > 1 {
		nums = append(nums, bg.Render("‹", styles.MutedText))
	}
	for _, p := range window {
		if p == v.page {
			nums = append(nums, bg.Render("["+strconv.Itoa(p)+"]", styles.AccentText.Bold(true)))
		} else {
			nums = append(nums, bg.Render(strconv.Itoa(p), styles.MutedText))
		}
	}
	if window[len(window)-1] < v.totalPages {
		nums = append(nums, bg.Render("›", styles.MutedText))
	}
	parts = append(parts, bg.Join(nums, " "))

	if v.query.PageSize > 0 && m.width >= LayoutCompactWidth {
		parts = append(parts, bg.Render(fmt.Sprintf("%d per page", v.query.PageSize), styles.FaintText))
	}
	if ts := formatTimestamp(v.lastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.Render("updated "+ts, styles.FaintText))
	}

	return styles.Footer.Width(m.width).Render(bg.Join(parts, "  "))
}

// formatTimestamp formats the last update time with relative indicator.
func formatTimestamp(last, now time.Time) string {
	if last.IsZero() {
		return ""
	}

	since := now.Sub(last)
	ts := last.Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}
