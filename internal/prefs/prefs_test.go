package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func writePrefs(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_DefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("missing file: Theme = %q, want %q", p.Theme, defaultTheme)
	}

	dir := filepath.Join(home, ".config", "librarian")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte("theme = \"Slate\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p, err = Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Slate" {
		t.Fatalf("Theme = %q, want Slate", p.Theme)
	}
}

func TestLoad_Normalizes(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		theme    string
		pageSize int
	}{
		{"explicit theme", "theme = \"Slate\"\n", "Slate", 0},
		{"empty theme", "theme = \"  \"\n", defaultTheme, 0},
		{"invalid toml", "not valid toml {{{\n", defaultTheme, 0},
		{"page size kept", "page_size = 25\n", defaultTheme, 25},
		{"page size clamped", "page_size = 500\n", defaultTheme, maxPageSize},
		{"negative page size", "page_size = -3\n", defaultTheme, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Load(writePrefs(t, tt.content))
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if p.Theme != tt.theme {
				t.Fatalf("Theme = %q, want %q", p.Theme, tt.theme)
			}
			if p.PageSize != tt.pageSize {
				t.Fatalf("PageSize = %d, want %d", p.PageSize, tt.pageSize)
			}
		})
	}
}

func TestLoad_ReadsSortAndDropsBlanks(t *testing.T) {
	path := writePrefs(t, "[sort]\nbooks = \"title:desc\"\nusers = \"\"\n")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := p.SortFor("books"); got != "title:desc" {
		t.Fatalf("SortFor(books) = %q, want %q", got, "title:desc")
	}
	if _, ok := p.Sort["users"]; ok {
		t.Fatalf("blank sort kept: %v", p.Sort)
	}
	if got := p.SortFor("topics"); got != "" {
		t.Fatalf("SortFor(topics) = %q, want empty", got)
	}
}

func TestWithSort_CopiesAndRemoves(t *testing.T) {
	base := Prefs{Theme: "Slate", Sort: map[string]string{"books": "title:asc"}}

	next := base.WithSort("topics", "genre:desc")
	if base.SortFor("topics") != "" {
		t.Fatalf("WithSort mutated the original prefs")
	}
	if next.SortFor("topics") != "genre:desc" || next.SortFor("books") != "title:asc" {
		t.Fatalf("WithSort = %v", next.Sort)
	}

	cleared := next.WithSort("books", "")
	if _, ok := cleared.Sort["books"]; ok {
		t.Fatalf("WithSort with empty sort kept the entry: %v", cleared.Sort)
	}
}

func TestSave_RoundTripsWithoutLeftovers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir")
	path := filepath.Join(dir, "prefs.toml")

	p := Prefs{Theme: "Slate", PageSize: 20}.WithSort("users", "name:asc")
	if err := Save(path, p); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := Save(path, p.WithSort("books", "author:desc")); err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Theme != "Slate" || loaded.PageSize != 20 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded.SortFor("users") != "name:asc" || loaded.SortFor("books") != "author:desc" {
		t.Fatalf("Sort = %v", loaded.Sort)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir holds %d entries, want only prefs.toml", len(entries))
	}
}
