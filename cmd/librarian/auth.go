package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var errPromptCancelled = errors.New("cancelled")

func newLoginCmd(flags *globalFlags) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if email == "" {
				email = env.Session.Session().Email
			}
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			var password string
			if passwordStdin {
				password, err = readLine(cmd.InOrStdin())
			} else {
				password, err = promptPassword(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr(), email)
			}
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			auth, err := env.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", auth.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (default: the last signed-in email)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if !env.Session.Session().LoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := env.Client.Logout(cmd.Context()); err != nil {
				env.Logger.Warn("server logout failed", "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: server logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" && errors.Is(err, io.EOF) {
		return "", io.ErrUnexpectedEOF
	}
	return line, nil
}

// passwordPrompt is a one-field Bubble Tea program with masked input.
type passwordPrompt struct {
	email     string
	input     textinput.Model
	done      bool
	cancelled bool
}

func newPasswordPrompt(email string) passwordPrompt {
	in := textinput.New()
	in.Prompt = "Password: "
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.Focus()
	return passwordPrompt{email: email, input: in}
}

func (p passwordPrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (p passwordPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			p.done = true
			return p, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			p.cancelled = true
			return p, tea.Quit
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p passwordPrompt) View() string {
	if p.done || p.cancelled {
		return ""
	}
	return fmt.Sprintf("Signing in as %s\n%s\n", p.email, p.input.View())
}

func promptPassword(ctx context.Context, in io.Reader, out io.Writer, email string) (string, error) {
	program := tea.NewProgram(newPasswordPrompt(email),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := program.Run()
	if err != nil {
		return "", err
	}
	p := final.(passwordPrompt)
	if p.cancelled || !p.done {
		return "", errPromptCancelled
	}
	return p.input.Value(), nil
}
