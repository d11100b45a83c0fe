package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestOpen_WritesParseableLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "librarian.log")
	logger, closer, err := Open(logPath, slog.LevelInfo)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	logger.Debug("hidden")
	logger.Info("item updated", "list", "books", "id", "b 1")
	logger.Warn("fetch failed", "error", `bad "quote"`)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines, err := Read(logPath, 0)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Read() returned %d lines, want 2: %v", len(lines), lines)
	}

	first := ParseLine(lines[0])
	if first.Level != "INFO" || first.Message != "item updated" {
		t.Fatalf("ParseLine(first) = %+v", first)
	}
	if first.Time.IsZero() {
		t.Fatalf("ParseLine(first) lost the timestamp")
	}
	want := []Attr{{Key: "list", Value: "books"}, {Key: "id", Value: "b 1"}}
	if !reflect.DeepEqual(first.Attrs, want) {
		t.Fatalf("Attrs = %v, want %v", first.Attrs, want)
	}

	second := ParseLine(lines[1])
	if second.Level != "WARN" || len(second.Attrs) != 1 || second.Attrs[0].Value != `bad "quote"` {
		t.Fatalf("ParseLine(second) = %+v", second)
	}
}

func TestOpen_EmptyPathDiscards(t *testing.T) {
	logger, closer, err := Open("  ", slog.LevelDebug)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	logger.Info("nowhere")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestParseLine_PlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"prose", "panic: something broke"},
		{"unterminated quote", `msg="never ends`},
		{"space in key", `bad key=value`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.input)
			if got.Level != "" || got.Attrs != nil {
				t.Fatalf("ParseLine(%q) = %+v, want plain entry", tt.input, got)
			}
			if got.Message != strings.TrimSpace(tt.input) || got.Raw != tt.input {
				t.Fatalf("ParseLine(%q) message/raw = %q/%q", tt.input, got.Message, got.Raw)
			}
		})
	}
}
