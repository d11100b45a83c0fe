package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/five82/librarian/internal/app"
	"github.com/five82/librarian/internal/library"
)

func newGetCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <books|topics|issues|users> <id>",
		Short: "Print one record",
		Example: `  librarian get books 64f1c0
  librarian get users 651a2b --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.RequireLogin(cmd.Context()); err != nil {
				return err
			}
			id := strings.TrimSpace(args[1])
			if id == "" {
				return fmt.Errorf("id required")
			}
			rec, err := getRecord(cmd.Context(), env, args[0], id)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec.value)
			}
			printRecord(cmd.OutOrStdout(), rec.rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// record is one fetched item with its table rendering.
type record struct {
	value any
	rows  [][]string
}

// bookDetail is a book with its topic ids resolved to genres.
type bookDetail struct {
	library.Book
	TopicGenres []string `json:"topicGenres"`
}

func getRecord(ctx context.Context, env *app.Env, kind, id string) (record, error) {
	switch strings.ToLower(kind) {
	case "books":
		book, err := env.Client.Books().Get(ctx, id)
		if err != nil {
			return record{}, err
		}
		genres := topicGenres(ctx, env.Client.Topics(), book.Topics, env.Logger)
		return record{
			value: bookDetail{Book: book, TopicGenres: genres},
			rows: [][]string{
				{"ID", book.ID},
				{"Title", book.Title},
				{"Author", book.Author},
				{"Topics", strings.Join(genres, ", ")},
				{"Stock", fmt.Sprintf("%d/%d", book.AvailableStock, book.TotalStock)},
				{"Deleted", strconv.FormatBool(book.IsDeleted)},
				{"Created", book.CreatedAt},
				{"Updated", book.UpdatedAt},
			},
		}, nil
	case "topics":
		topic, err := env.Client.Topics().Get(ctx, id)
		if err != nil {
			return record{}, err
		}
		return record{value: topic, rows: [][]string{
			{"ID", topic.ID},
			{"Genre", topic.Genre},
			{"Description", topic.Description},
		}}, nil
	case "users":
		user, err := env.Client.Users().Get(ctx, id)
		if err != nil {
			return record{}, err
		}
		return record{value: user, rows: [][]string{
			{"ID", user.ID},
			{"Name", user.Name},
			{"Email", user.Email},
			{"Phone", string(user.Phone)},
			{"ID type", user.IdentificationType},
			{"ID number", user.IdentificationNumber},
			{"Active", strconv.FormatBool(user.IsActive)},
		}}, nil
	case "issues":
		issue, err := findIssue(ctx, env.Client.Issues(), id)
		if err != nil {
			return record{}, err
		}
		book := issue.BookID
		if title, err := library.NewTitleResolver(env.Client.Books()).Title(ctx, issue.BookID); err == nil && title != "" {
			book = fmt.Sprintf("%s (%s)", title, issue.BookID)
		}
		return record{value: issue, rows: [][]string{
			{"ID", issue.ID},
			{"Book", book},
			{"User", issue.UserID},
			{"Status", issue.Status},
			{"Issued", dateOnly(issue.ParsedIssueDate())},
			{"Due", dateOnly(issue.ParsedEstimatedReturn())},
			{"Returned", dateOnly(issue.ParsedReturnDate())},
		}}, nil
	}
	return record{}, fmt.Errorf("unknown collection %q (valid: %s)", kind, validKinds)
}

// findIssue scans the issue listing, which is the only issue endpoint the
// API exposes.
func findIssue(ctx context.Context, issues *library.Resource[library.Issue], id string) (library.Issue, error) {
	page, err := issues.List(ctx, library.ListParams{})
	if err != nil {
		return library.Issue{}, err
	}
	for _, issue := range page.Data {
		if issue.ID == id {
			return issue, nil
		}
	}
	return library.Issue{}, fmt.Errorf("issue %s not found", id)
}

// topicGenres returns a genre per topic reference. Populated references are
// used as is; bare ids are looked up, falling back to the id on failure.
func topicGenres(ctx context.Context, topics *library.Resource[library.Topic], refs library.TopicRefs, logger *slog.Logger) []string {
	genres := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, ref := range refs {
		if ref.Genre != "" {
			genres[i] = ref.Genre
			continue
		}
		g.Go(func() error {
			topic, err := topics.Get(gctx, ref.ID)
			if err != nil || topic.Genre == "" {
				logger.Warn("topic lookup failed", "topic", ref.ID, "error", err)
				genres[i] = ref.ID
				return nil
			}
			genres[i] = topic.Genre
			return nil
		})
	}
	_ = g.Wait()
	return genres
}

func printRecord(w io.Writer, rows [][]string) {
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows))
}
