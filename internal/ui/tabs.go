package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/listsync"
	"github.com/five82/librarian/internal/state"
)

// controller is the type-independent part of a listsync.List.
type controller interface {
	Name() string
	Schema() []library.FieldSpec
	Changes() <-chan struct{}
	Load() error
	Search(raw string) error
	ToggleSort(field string) error
	SetPage(page int) error
	NextPage() error
	PrevPage() error
	StartEdit(id string) error
	StartCreate() error
	SetField(field, value string) error
	CancelEdit() error
	RequestDelete(id string) (*listsync.Confirmation, error)
}

// listTab is one tab of the browser. Rows are rendered to strings so the
// model never needs to know the record type.
type listTab interface {
	controller
	label() string
	headers() []columnHeader
	view() tabView
	submit(ctx context.Context) error
	editable() bool
	deletable() bool
}

type columnHeader struct {
	title   string
	sortKey string // empty when the server cannot order by it
	weight  int
	badge   bool // cell is colored by the row status
}

type tabRow struct {
	id     string
	cells  []string
	status string // badge key for the row, if any
}

// tabView is a rendered copy of a list's state.
type tabView struct {
	rows        []tabRow
	page        int
	totalPages  int
	totalItems  int
	hasData     bool
	loading     bool
	offline     bool
	lastErr     error
	commitErr   error
	lastUpdated time.Time
	query       state.Query
	edit        listsync.EditView
}

type column[T library.Entity] struct {
	columnHeader
	value func(T) string
}

func col[T library.Entity](title, sortKey string, weight int, value func(T) string) column[T] {
	return column[T]{columnHeader: columnHeader{title: title, sortKey: sortKey, weight: weight}, value: value}
}

func (c column[T]) asBadge() column[T] {
	c.badge = true
	return c
}

// tab adapts a typed list to listTab.
type tab[T library.Entity] struct {
	*listsync.List[T]
	title     string
	columns   []column[T]
	status    func(T) string
	canEdit   bool
	canDelete bool
}

func (t *tab[T]) label() string { return t.title }

func (t *tab[T]) editable() bool { return t.canEdit }

func (t *tab[T]) deletable() bool { return t.canDelete }

func (t *tab[T]) headers() []columnHeader {
	out := make([]columnHeader, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.columnHeader
	}
	return out
}

func (t *tab[T]) view() tabView {
	v := t.View()
	snap := v.Snapshot
	rows := make([]tabRow, 0, len(snap.Items))
	for _, item := range snap.Items {
		row := tabRow{id: item.EntityID(), cells: make([]string, len(t.columns))}
		for i, c := range t.columns {
			row.cells[i] = c.value(item)
		}
		if t.status != nil {
			row.status = t.status(item)
		}
		rows = append(rows, row)
	}
	return tabView{
		rows:        rows,
		page:        snap.CurrentPage,
		totalPages:  snap.TotalPages,
		totalItems:  snap.TotalItems,
		hasData:     snap.HasData,
		loading:     v.Loading,
		offline:     snap.IsOffline(),
		lastErr:     snap.LastError,
		commitErr:   v.CommitErr,
		lastUpdated: snap.LastUpdated,
		query:       v.Query,
		edit:        v.Edit,
	}
}

func (t *tab[T]) submit(ctx context.Context) error {
	_, err := t.SubmitEdit(ctx)
	return err
}

func newBooksTab(list *listsync.List[library.Book]) *tab[library.Book] {
	return &tab[library.Book]{
		List:  list,
		title: "Books",
		columns: []column[library.Book]{
			col("Title", "title", 4, func(b library.Book) string { return b.Title }),
			col("Author", "author", 3, func(b library.Book) string { return b.Author }),
			col("Topics", "", 3, func(b library.Book) string { return strings.Join(b.Topics.Names(), ", ") }),
			col("Stock", "availableStock", 1, func(b library.Book) string {
				return fmt.Sprintf("%d/%d", b.AvailableStock, b.TotalStock)
			}),
		},
		canEdit:   true,
		canDelete: true,
	}
}

func newTopicsTab(list *listsync.List[library.Topic]) *tab[library.Topic] {
	return &tab[library.Topic]{
		List:  list,
		title: "Topics",
		columns: []column[library.Topic]{
			col("Genre", "genre", 2, func(t library.Topic) string { return t.Genre }),
			col("Description", "description", 5, func(t library.Topic) string { return t.Description }),
		},
		canEdit:   true,
		canDelete: true,
	}
}

// newIssuesTab shows issues with book titles where the resolver already
// knows them. Issues cannot be edited or deleted; creating one issues a
// book.
func newIssuesTab(list *listsync.List[library.Issue], titles *library.TitleResolver, now func() time.Time) *tab[library.Issue] {
	bookTitle := func(i library.Issue) string {
		if titles != nil {
			if title, ok := titles.Cached(i.BookID); ok {
				return title
			}
		}
		return i.BookID
	}
	return &tab[library.Issue]{
		List:  list,
		title: "Issues",
		columns: []column[library.Issue]{
			col("Book", "", 4, bookTitle),
			col("User", "userId", 3, func(i library.Issue) string { return i.UserID }),
			col("Status", "status", 2, func(i library.Issue) string { return issueStatus(i, now()) }).asBadge(),
			col("Issued", "issueDate", 2, func(i library.Issue) string { return shortDate(i.IssueDate) }),
			col("Due", "estimatedReturnDate", 2, func(i library.Issue) string { return shortDate(i.EstimatedReturnDate) }),
			col("Returned", "returnDate", 2, func(i library.Issue) string { return shortDate(i.ReturnDate) }),
		},
		status: func(i library.Issue) string { return strings.ToLower(issueStatus(i, now())) },
	}
}

func newUsersTab(list *listsync.List[library.User]) *tab[library.User] {
	return &tab[library.User]{
		List:  list,
		title: "Users",
		columns: []column[library.User]{
			col("Name", "name", 3, func(u library.User) string { return u.Name }),
			col("Email", "email", 4, func(u library.User) string { return u.Email }),
			col("Phone", "", 2, func(u library.User) string { return string(u.Phone) }),
			col("ID", "identificationType", 3, func(u library.User) string {
				return strings.TrimSpace(u.IdentificationType + " " + u.IdentificationNumber)
			}),
			col("Active", "isActive", 1, func(u library.User) string { return yesNo(u.IsActive) }).asBadge(),
		},
		status: func(u library.User) string {
			if u.IsActive {
				return "active"
			}
			return "inactive"
		},
		canEdit:   true,
		canDelete: true,
	}
}

// issueStatus labels an issue, flagging open issues past their due date.
func issueStatus(i library.Issue, now time.Time) string {
	if i.Overdue(now) {
		return "Overdue"
	}
	if i.Status == "" {
		return library.IssueStatusIssued
	}
	return i.Status
}

// sortKeys lists the columns the server can order by.
func sortKeys(headers []columnHeader) []string {
	var keys []string
	for _, h := range headers {
		if h.sortKey != "" {
			keys = append(keys, h.sortKey)
		}
	}
	return keys
}

// nextSort cycles ascending, then descending, then the next sortable
// column. It returns the field to pass to ToggleSort.
func nextSort(current state.SortSpec, keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	if current.IsZero() {
		return keys[0]
	}
	if current.Direction != state.Desc {
		return current.Field
	}
	for i, k := range keys {
		if k == current.Field {
			return keys[(i+1)%len(keys)]
		}
	}
	return keys[0]
}
