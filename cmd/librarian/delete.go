package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/librarian/internal/app"
	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/listsync"
)

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <books|topics|users> <id>",
		Short: "Delete one record after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.RequireLogin(cmd.Context()); err != nil {
				return err
			}
			confirm, err := deleteConfirmation(cmd.Context(), env, args[0], strings.TrimSpace(args[1]))
			if err != nil {
				return err
			}

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", confirm.Prompt)
				answer, err := readLine(cmd.InOrStdin())
				if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
					return err
				}
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					_ = confirm.Decline()
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			if err := confirm.Confirm(cmd.Context()); err != nil {
				return err
			}
			env.Logger.Info("record deleted", "collection", args[0], "id", confirm.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", args[0], confirm.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// deleteConfirmation looks the record up so the prompt can name it, and
// returns the gate that performs the delete.
func deleteConfirmation(ctx context.Context, env *app.Env, kind, id string) (*listsync.Confirmation, error) {
	if id == "" {
		return nil, fmt.Errorf("id required")
	}
	switch strings.ToLower(kind) {
	case "books":
		return confirmationFor(ctx, env.Client.Books(), "book", id)
	case "topics":
		return confirmationFor(ctx, env.Client.Topics(), "topic", id)
	case "users":
		return confirmationFor(ctx, env.Client.Users(), "user", id)
	case "issues":
		return nil, fmt.Errorf("issues cannot be deleted, use `librarian return`")
	}
	return nil, fmt.Errorf("unknown collection %q (valid: books, topics, users)", kind)
}

func confirmationFor[T library.Entity](ctx context.Context, res *library.Resource[T], noun, id string) (*listsync.Confirmation, error) {
	item, err := res.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("Delete %s %q?", noun, item.Label())
	return listsync.NewConfirmation(id, prompt, func(ctx context.Context) error {
		return res.Delete(ctx, id)
	}), nil
}
