package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bobvengers/mapmate/internal/application/auth"
	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/interfaces/cli/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLoginCommand(get func() *App) *cobra.Command {
	var (
		input         auth.LoginInput
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Log in and remember the session",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			if passwordStdin {
				pw, err := readSecret(app.Stdin)
				if err != nil {
					return err
				}
				input.Password = pw
			}
			session, err := app.Sessions.Login(app.View(), input)
			if err != nil {
				return err
			}
			return renderUser(app, &session.User, "Logged in as "+session.User.Nickname)
		},
	}
	cmd.Flags().StringVarP(&input.Username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&input.Password, "password", "p", "", "password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

func newSignupCommand(get func() *App) *cobra.Command {
	var (
		input         auth.SignupInput
		passwordStdin bool
		login         bool
	)
	cmd := &cobra.Command{
		Use:     "signup",
		Short:   "Create an account",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			if passwordStdin {
				pw, err := readSecret(app.Stdin)
				if err != nil {
					return err
				}
				input.Password = pw
			}
			ctx := app.View()
			if login {
				session, err := app.Sessions.SignupAndLogin(ctx, input)
				if err != nil {
					return err
				}
				return renderUser(app, &session.User, "Signed up and logged in as "+session.User.Nickname)
			}
			msg, err := app.Sessions.Signup(ctx, input)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "Account created"
			}
			return app.Message(msg)
		},
	}
	cmd.Flags().StringVarP(&input.Username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&input.Nickname, "nickname", "n", "", "name shown to other users")
	cmd.Flags().StringVarP(&input.Password, "password", "p", "", "password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&login, "login", false, "log in right after signing up")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

func newLogoutCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Short:   "Forget the saved session",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			if err := app.Sessions.Logout(app.View()); err != nil {
				app.Logger.Warn("session was not fully cleared", zap.Error(err))
			}
			return app.Message("Logged out")
		},
	}
}

func newWhoamiCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Short:   "Show the signed-in user",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			user, err := app.Sessions.RequireUser()
			if err != nil {
				return err
			}
			return renderUser(app, user, "")
		},
	}
}

func renderUser(app *App, user *identity.User, headline string) error {
	return app.Render(user, func(t *render.Table) {
		if headline != "" {
			t.Row(headline)
			t.Blank()
		}
		t.Row("USER ID", user.UserID)
		t.Row("USERNAME", user.Username)
		t.Row("NICKNAME", user.Nickname)
	})
}

// readSecret reads one line from r without the trailing newline
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
