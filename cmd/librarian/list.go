package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/librarian/internal/app"
	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/listsync"
	"github.com/five82/librarian/internal/state"
)

const validKinds = "books, topics, issues, users"

type listFlags struct {
	page           int
	limit          int
	search         string
	sort           string
	includeDeleted bool
	json           bool
}

func newListCmd(flags *globalFlags) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list <books|topics|issues|users>",
		Short: "Print one page of a collection",
		Example: `  librarian list books --search austen --sort title:asc
  librarian list issues --page 2 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.RequireLogin(cmd.Context()); err != nil {
				return err
			}
			q, err := lf.query(env.PageSize())
			if err != nil {
				return err
			}
			return listKind(cmd.Context(), cmd.OutOrStdout(), env, args[0], q, lf)
		},
	}
	f := cmd.Flags()
	f.IntVar(&lf.page, "page", 1, "page number")
	f.IntVar(&lf.limit, "limit", 0, "items per page (default from prefs or config)")
	f.StringVar(&lf.search, "search", "", "server-side search text")
	f.StringVar(&lf.sort, "sort", "", "sort as field:asc or field:desc")
	f.BoolVar(&lf.includeDeleted, "include-deleted", false, "include soft-deleted records")
	f.BoolVar(&lf.json, "json", false, "print JSON instead of a table")
	return cmd
}

func (lf *listFlags) query(defaultSize int) (state.Query, error) {
	sort, err := state.ParseSort(lf.sort)
	if err != nil {
		return state.Query{}, err
	}
	search, err := state.NormalizeSearch(lf.search)
	if err != nil {
		return state.Query{}, err
	}
	size := lf.limit
	if size <= 0 {
		size = defaultSize
	}
	q := state.Query{Page: lf.page, PageSize: size, Sort: sort, Search: search}
	if err := q.Validate(); err != nil {
		return state.Query{}, err
	}
	return q, nil
}

func listKind(ctx context.Context, w io.Writer, env *app.Env, kind string, q state.Query, lf *listFlags) error {
	switch strings.ToLower(kind) {
	case "books":
		return printPage(ctx, w, env.Client.Books(), q, lf, env.Logger,
			[]string{"ID", "Title", "Author", "Topics", "Stock"},
			func(b library.Book) []string {
				return []string{b.ID, b.Title, b.Author, strings.Join(b.Topics.Names(), ", "),
					fmt.Sprintf("%d/%d", b.AvailableStock, b.TotalStock)}
			})
	case "topics":
		return printPage(ctx, w, env.Client.Topics(), q, lf, env.Logger,
			[]string{"ID", "Genre", "Description"},
			func(t library.Topic) []string { return []string{t.ID, t.Genre, t.Description} })
	case "users":
		return printPage(ctx, w, env.Client.Users(), q, lf, env.Logger,
			[]string{"ID", "Name", "Email", "Phone", "Active"},
			func(u library.User) []string {
				return []string{u.ID, u.Name, u.Email, string(u.Phone), strconv.FormatBool(u.IsActive)}
			})
	case "issues":
		titles := library.NewTitleResolver(env.Client.Books())
		return printPage(ctx, w, env.Client.Issues(), q, lf, env.Logger,
			[]string{"ID", "Book", "User", "Status", "Issued", "Due", "Returned"},
			func(i library.Issue) []string {
				book := i.BookID
				if title, err := titles.Title(ctx, i.BookID); err == nil && title != "" {
					book = title
				}
				return []string{i.ID, book, i.UserID, i.Status,
					dateOnly(i.ParsedIssueDate()), dateOnly(i.ParsedEstimatedReturn()), dateOnly(i.ParsedReturnDate())}
			})
	}
	return fmt.Errorf("unknown collection %q (valid: %s)", kind, validKinds)
}

// withDeleted asks the server to include soft-deleted records.
type withDeleted[T library.Entity] struct {
	lister listsync.Lister[T]
}

func (d withDeleted[T]) List(ctx context.Context, params library.ListParams) (library.Page[T], error) {
	params.IncludeDeleted = true
	return d.lister.List(ctx, params)
}

func printPage[T library.Entity](ctx context.Context, w io.Writer, res *library.Resource[T], q state.Query, lf *listFlags, logger *slog.Logger, headers []string, row func(T) []string) error {
	var lister listsync.Lister[T] = res
	if lf.includeDeleted {
		lister = withDeleted[T]{lister: res}
	}
	coord := listsync.NewCoordinator[T](lister, &state.Store[T]{}, logger)
	defer coord.Close()

	snap, err := coord.Fetch(ctx, q)
	if err != nil {
		return err
	}

	if lf.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Data       []T `json:"data"`
			Page       int `json:"page"`
			TotalPages int `json:"totalPages"`
			Total      int `json:"total"`
		}{snap.Items, snap.CurrentPage, snap.TotalPages, snap.TotalItems})
	}

	if len(snap.Items) == 0 {
		fmt.Fprintf(w, "No %s found.\n", res.Name())
		return nil
	}
	rows := make([][]string, 0, len(snap.Items))
	for _, item := range snap.Items {
		rows = append(rows, row(item))
	}
	fmt.Fprintln(w, renderTable(headers, rows))
	fmt.Fprintln(w, pageFooter(snap))
	return nil
}

func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func pageFooter[T library.Entity](snap state.Snapshot[T]) string {
	footer := fmt.Sprintf("Page %d of %d", snap.CurrentPage, snap.TotalPages)
	if snap.TotalItems >= 0 {
		footer += fmt.Sprintf(" (%d total)", snap.TotalItems)
	}
	return footer
}
