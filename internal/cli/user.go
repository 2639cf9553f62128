package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/auth"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

func newUserCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Sign in and manage user accounts",
	}
	cmd.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newRegisterCommand(app),
		newUserListCommand(app),
		newUserToggleCommand(app),
		newUserDeleteCommand(app),
		newUserResetCommand(app),
	)
	return cmd
}

func newLoginCommand(app *App) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in; the session persists until logout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.Env(cmd.Context())
			if err != nil {
				return err
			}
			user, err := env.Session.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			app.printer().success("welcome %s (%s)", user.Name, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.Env(cmd.Context())
			if err != nil {
				return err
			}
			if err := env.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			app.printer().success("signed out")
			return nil
		},
	}
}

func newWhoamiCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, user, err := app.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			app.printer().table([]string{"Username", "Name", "Email", "Role"},
				[][]string{{user.Username, user.Name, user.Email, string(user.Role)}}, "")
			return nil
		},
	}
}

func newRegisterCommand(app *App) *cobra.Command {
	var (
		in   auth.RegisterInput
		role string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user account (admin only)",
		Long: `Create a user account. Only administrators may register users.

Examples:
  sarc user register --username asesor2 --name "Ana Rodríguez" --role asesor --password s3cret --confirm s3cret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, _, err := app.requireRole(cmd.Context(), domain.RoleAdmin)
			if err != nil {
				return err
			}
			in.Role = domain.Role(strings.ToLower(role))
			user, err := env.Users.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			app.printer().success("user %s registered with id %d", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "Unique username")
	cmd.Flags().StringVar(&in.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password")
	cmd.Flags().StringVar(&in.ConfirmPassword, "confirm", "", "Password confirmation")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdvisor), "admin, supervisor or asesor")
	return cmd
}

func newUserListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, _, err := app.requireRole(cmd.Context(), domain.RoleAdmin)
			if err != nil {
				return err
			}
			var rows [][]string
			for _, u := range env.Users.Users() {
				rows = append(rows, []string{
					strconv.FormatInt(u.ID, 10), u.Username, u.Name, u.Email, string(u.Role), string(u.Status),
				})
			}
			app.printer().table([]string{"ID", "Username", "Name", "Email", "Role", "Status"}, rows, "no users")
			return nil
		},
	}
}

func newUserToggleCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Activate or deactivate a user (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, _, err := app.requireRole(cmd.Context(), domain.RoleAdmin)
			if err != nil {
				return err
			}
			user, err := env.Users.ToggleStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			app.printer().success("user %s is now %s", user.Username, user.Status)
			return nil
		},
	}
}

func newUserDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, actor, err := app.requireRole(cmd.Context(), domain.RoleAdmin)
			if err != nil {
				return err
			}
			if err := env.Users.Delete(cmd.Context(), id, actor.ID); err != nil {
				return err
			}
			app.printer().success("user %d deleted", id)
			return nil
		},
	}
}

func newUserResetCommand(app *App) *cobra.Command {
	var email, password, confirm string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Look up an account by email for a password reset",
		Long: `Look up an account by email for a password reset.

Without --password the account is only located, as the sign-in screen's
"forgot password" form does. An administrator may pass --password and
--confirm to set the new password directly.

Examples:
  sarc user reset --email carlos@empresa.com
  sarc user reset --email carlos@empresa.com --password n3w --confirm n3w`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.Env(cmd.Context())
			if err != nil {
				return err
			}
			user, ok := env.Users.FindByEmail(email)
			if !ok {
				return fmt.Errorf("no user registered with email %s: %w", email, domain.ErrNotFound)
			}
			p := app.printer()
			if !cmd.Flags().Changed("password") {
				p.success("reset instructions for %s go to %s", user.Username, user.Email)
				return nil
			}
			if _, _, err := app.requireRole(cmd.Context(), domain.RoleAdmin); err != nil {
				return err
			}
			if _, err := env.Users.ResetPassword(cmd.Context(), user.ID, password, confirm); err != nil {
				return err
			}
			p.success("password for %s updated", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the account")
	cmd.Flags().StringVar(&password, "password", "", "New password (admin only)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "New password confirmation")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
