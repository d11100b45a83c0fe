package ui

import (
	"reflect"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"a long book title", 10, "a long ..."},
		{"abcdef", 3, "abc"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestFitCell(t *testing.T) {
	if got := fitCell("Emma", 6); got != "Emma  " {
		t.Fatalf("fitCell pad = %q", got)
	}
	if got := fitCell("Pride and Prejudice", 8); got != "Pride..." {
		t.Fatalf("fitCell truncate = %q", got)
	}
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 1, []int{1}},
		{1, 2, []int{1, 2}},
		{1, 9, []int{1, 2, 3}},
		{4, 9, []int{4, 5, 6}},
		{8, 9, []int{8, 9}},
		{9, 9, []int{9}},
		{12, 9, []int{9}},
		{0, 0, []int{1}},
	}
	for _, tt := range tests {
		if got := pageWindow(tt.current, tt.total); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("pageWindow(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestShortDate(t *testing.T) {
	if got := shortDate("2024-03-01T10:00:00.000Z"); got != "2024-03-01" {
		t.Fatalf("shortDate = %q", got)
	}
	if got := shortDate("soon"); got != "soon" {
		t.Fatalf("shortDate passthrough = %q", got)
	}
}
