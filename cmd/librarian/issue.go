package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/librarian/internal/library"
)

type loanFlags struct {
	user string
	book string
}

func (l *loanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.user, "user", "", "member id")
	cmd.Flags().StringVar(&l.book, "book", "", "book id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("book")
}

func newIssueCmd(flags *globalFlags) *cobra.Command {
	lf := &loanFlags{}
	cmd := &cobra.Command{
		Use:   "issue --user <id> --book <id>",
		Short: "Lend a book to a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.RequireLogin(cmd.Context()); err != nil {
				return err
			}
			issue, err := env.Client.IssueBook(cmd.Context(), lf.user, lf.book)
			if err != nil {
				return err
			}
			env.Logger.Info("book issued", "book", lf.book, "user", lf.user, "issue", issue.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Issued %s to %s", lf.book, lf.user)
			if due := issue.ParsedEstimatedReturn(); !due.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), ", due %s", dateOnly(due))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}

func newReturnCmd(flags *globalFlags) *cobra.Command {
	lf := &loanFlags{}
	cmd := &cobra.Command{
		Use:   "return --user <id> --book <id>",
		Short: "Record the return of an issued book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.RequireLogin(cmd.Context()); err != nil {
				return err
			}
			if _, err := env.Client.ReturnBook(cmd.Context(), lf.user, lf.book); err != nil {
				return err
			}
			env.Logger.Info("book returned", "book", lf.book, "user", lf.user)
			fmt.Fprintf(cmd.OutOrStdout(), "Returned %s from %s\n", lf.book, lf.user)
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print catalogue totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.RequireLogin(cmd.Context()); err != nil {
				return err
			}
			totals, err := env.Client.Totals(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Books:  %d\nTopics: %d\n", totals.Books, totals.Topics)
			return nil
		},
	}
}

func dateOnly(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(library.DateLayout)
}
