package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/guac-console/internal/application"
	"github.com/bnema/guac-console/internal/domain"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	errPasswordFlagsConflict = errors.New("--password and --password-stdin are mutually exclusive")
	errEmptyPassword         = errors.New("password is empty")
	errPasswordPromptAborted = errors.New("password prompt aborted")
)

func newLoginCmd(app *app) *cobra.Command {
	var username string
	var password string
	var passwordStdin bool
	var noRemember bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session for the selected profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := app.resolveProfile(cmd)
			if err != nil {
				return err
			}

			secret, err := readPassword(cmd, password, passwordStdin, profile)
			if err != nil {
				return err
			}

			var session domain.Session
			err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Signing in...", func(ctx context.Context) error {
				var loginErr error
				session, loginErr = app.profiles.Login(ctx, application.LoginCommand{
					ID:               profile.ID,
					Username:         username,
					Password:         secret,
					RememberPassword: !noRemember,
				})
				return loginErr
			})
			if err != nil {
				return fmt.Errorf("profile %s: %w", profile.ID, err)
			}

			message := fmt.Sprintf("Logged in to %s as %s", profile.ID, session.Username)
			if session.DataSource != "" {
				message += fmt.Sprintf(" (data source %s)", session.DataSource)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), message)
			return err
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (default: the profile's username)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&noRemember, "no-remember", false, "Do not store the password for automatic session renewal")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the session of the selected profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := app.resolveProfile(cmd)
			if err != nil {
				return err
			}

			hadSession, err := app.profiles.Logout(cmd.Context(), profile.ID)
			if err != nil {
				return fmt.Errorf("profile %s: %w", profile.ID, err)
			}

			if !hadSession {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Profile %s has no stored session\n", profile.ID)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", profile.ID)
			return err
		},
	}
}

func readPassword(cmd *cobra.Command, flagValue string, fromStdin bool, profile domain.Profile) (string, error) {
	if flagValue != "" && fromStdin {
		return "", errPasswordFlagsConflict
	}
	if flagValue != "" {
		return flagValue, nil
	}
	if fromStdin {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read password from stdin: %w", err)
		}
		password := strings.TrimRight(string(raw), "\r\n")
		if password == "" {
			return "", errEmptyPassword
		}
		return password, nil
	}

	label := fmt.Sprintf("Password for %s", profile.BaseURL)
	if profile.Username != "" {
		label = fmt.Sprintf("Password for %s on %s", profile.Username, profile.BaseURL)
	}
	return promptPassword(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr(), label)
}

type passwordPromptModel struct {
	input   textinput.Model
	label   string
	done    bool
	aborted bool
}

func newPasswordPromptModel(label string) passwordPromptModel {
	input := textinput.New()
	input.Prompt = "> "
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '*'
	input.Focus()

	return passwordPromptModel{input: input, label: label}
}

func (m passwordPromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m passwordPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.done = true
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m passwordPromptModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n", m.label, m.input.View())
}

func promptPassword(ctx context.Context, in io.Reader, out io.Writer, label string) (string, error) {
	p := tea.NewProgram(
		newPasswordPromptModel(label),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("prompt for password: %w", err)
	}

	result, ok := finalModel.(passwordPromptModel)
	if !ok {
		return "", fmt.Errorf("unexpected final prompt model type %T", finalModel)
	}
	if result.aborted {
		return "", errPasswordPromptAborted
	}
	if result.input.Value() == "" {
		return "", errEmptyPassword
	}
	return result.input.Value(), nil
}
