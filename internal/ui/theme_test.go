package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	tests := map[string]string{
		"Nightfox": "Kanagawa",
		"Kanagawa": "Slate",
		"Slate":    "Nightfox",
		"Unknown":  "Nightfox",
	}
	for from, want := range tests {
		if got := NextTheme(from); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", from, got, want)
		}
	}
}

func TestGetTheme_FallsBackToNightfox(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestThemesCoverRecordStates(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range []string{"issued", "returned", "overdue", "active", "inactive"} {
			if th.StatusColors[status] == "" {
				t.Fatalf("%s theme has no color for %q", name, status)
			}
		}
	}
}

func TestStatusStyle_NormalizesKey(t *testing.T) {
	th := GetTheme("Nightfox")
	styles := th.Styles()

	got := styles.StatusStyle("  Overdue ").GetBackground()
	want := styles.StatusStyle("overdue").GetBackground()
	if got != want {
		t.Fatalf("StatusStyle background = %v, want %v", got, want)
	}

	if bg := styles.WithBackground(th.Surface).StatusStyle("unknown").GetBackground(); bg != lipgloss.Color(th.Muted) {
		t.Fatalf("unknown status background = %v, want muted %s", bg, th.Muted)
	}
}
