// Package prefs handles librarian user preferences persistence.
// Preferences are stored in ~/.config/librarian/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences. PageSize 0 means the configured default.
// Sort maps a list name to its last sort, written as "field:asc" or
// "field:desc".
type Prefs struct {
	Theme    string            `toml:"theme"`
	PageSize int               `toml:"page_size,omitempty"`
	Sort     map[string]string `toml:"sort,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/librarian/prefs.toml"
	defaultTheme     = "Nightfox"
	maxPageSize      = 100
)

// SortFor returns the saved sort for list, or "".
func (p Prefs) SortFor(list string) string {
	return strings.TrimSpace(p.Sort[list])
}

// WithSort returns a copy of p with the sort for list replaced. An empty
// sort removes the entry.
func (p Prefs) WithSort(list, sort string) Prefs {
	next := make(map[string]string, len(p.Sort)+1)
	for k, v := range p.Sort {
		next[k] = v
	}
	if sort == "" {
		delete(next, list)
	} else {
		next[list] = sort
	}
	p.Sort = next
	return p
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. A missing, unreadable or malformed
// file yields the defaults; preferences never stop librarian from starting.
func Load(path string) (Prefs, error) {
	defaults := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return defaults, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return defaults, nil
	}
	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return defaults, nil
	}
	return p.normalized(), nil
}

func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.PageSize = max(min(p.PageSize, maxPageSize), 0)
	for list, sort := range p.Sort {
		if strings.TrimSpace(sort) == "" {
			delete(p.Sort, list)
		}
	}
	return p
}

// Save writes p to path through a temporary file so a crash mid-write
// leaves the previous preferences intact.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
