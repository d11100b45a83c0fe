package state

import (
	"fmt"
	"strings"

	"github.com/five82/librarian/internal/library"
)

// SortDirection orders a sort field.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// SortSpec names one sort field and its direction. The zero value means
// "server default order".
type SortSpec struct {
	Field     string
	Direction SortDirection
}

// ParseSort reads "field:dir". A missing direction means ascending.
func ParseSort(raw string) (SortSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SortSpec{}, nil
	}
	field, dir, _ := strings.Cut(raw, ":")
	field = strings.TrimSpace(field)
	if field == "" {
		return SortSpec{}, fmt.Errorf("sort %q: missing field", raw)
	}
	switch SortDirection(strings.ToLower(strings.TrimSpace(dir))) {
	case "", Asc:
		return SortSpec{Field: field, Direction: Asc}, nil
	case Desc:
		return SortSpec{Field: field, Direction: Desc}, nil
	default:
		return SortSpec{}, fmt.Errorf("sort %q: direction must be asc or desc", raw)
	}
}

// IsZero reports whether no sort is set.
func (s SortSpec) IsZero() bool { return s.Field == "" }

// String renders the wire form.
func (s SortSpec) String() string {
	if s.IsZero() {
		return ""
	}
	dir := s.Direction
	if dir == "" {
		dir = Asc
	}
	return s.Field + ":" + string(dir)
}

// Toggle flips the direction when field is already the sort field, and
// otherwise starts ascending on field.
func (s SortSpec) Toggle(field string) SortSpec {
	if s.Field == field && s.Direction != Desc {
		return SortSpec{Field: field, Direction: Desc}
	}
	return SortSpec{Field: field, Direction: Asc}
}

// Query is the full set of parameters that identifies one remote page.
type Query struct {
	Page     int
	PageSize int
	Sort     SortSpec
	Search   string
}

// Validate checks the query invariants.
func (q Query) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("page %d: must be at least 1", q.Page)
	}
	if q.PageSize < 1 {
		return fmt.Errorf("page size %d: must be at least 1", q.PageSize)
	}
	return library.CheckLeadingSpace("search", q.Search)
}

// Params converts the query into list request parameters.
func (q Query) Params() library.ListParams {
	return library.ListParams{
		Offset: q.Page,
		Limit:  q.PageSize,
		Sort:   q.Sort.String(),
		Search: q.Search,
	}
}

// NormalizeSearch rejects input with leading whitespace and trims the rest.
func NormalizeSearch(raw string) (string, error) {
	if err := library.CheckLeadingSpace("search", raw); err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}
