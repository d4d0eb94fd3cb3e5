package cli

import (
	"github.com/spf13/cobra"

	"github.com/N-Bhageeratha/OLP/internal/app"
	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/identity"
)

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Email    string
	Password string
	Name     string
	Role     string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create a user account and make it the current session.

Emails are compared ignoring case and surrounding whitespace; registering an
email that is already taken fails with email_exists.

Examples:
  olp register --email ada@example.com --password s3cret --name "Ada Lovelace"
  olp register --email grace@example.com --password s3cret --name Grace --role instructor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				sess, err := a.Directory.Register(cmd.Context(), identity.RegisterInput{
					Email:    opts.Email,
					Password: opts.Password,
					Name:     opts.Name,
					Role:     domain.Role(opts.Role),
				})
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newSessionView(sess.User))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Role, "role", string(domain.RoleStudent), "account role (student|instructor)")

	return cmd
}

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Email    string
	Password string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				sess, err := a.Directory.Login(cmd.Context(), opts.Email, opts.Password)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newSessionView(sess.User))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				if err := a.Directory.Logout(cmd.Context()); err != nil {
					return out.Fail(err)
				}
				return out.Success(messageView{Message: "Signed out."})
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				sess, err := a.Directory.Restore(cmd.Context())
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newSessionView(sess.User))
			})
		},
	}
}

// ProfileOptions holds flags for the profile command.
type ProfileOptions struct {
	*RootOptions
	Name     string
	Email    string
	Password string
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the signed-in user's profile",
		Long: `Show the signed-in user's profile, or update it when any of --name,
--email or --password is given. Only the flags given are changed.

Examples:
  olp profile
  olp profile --name "Ada King"
  olp profile --email ada.king@example.com --password n3w`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				return runProfile(cmd, opts, a, out)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "new display name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "new email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "new password")

	return cmd
}

func runProfile(cmd *cobra.Command, opts *ProfileOptions, a *app.App, out *OutputFormatter) error {
	ctx := cmd.Context()
	usr, err := a.Directory.CurrentUser(ctx)
	if err != nil {
		return out.Fail(err)
	}

	var upd identity.ProfileUpdate
	if cmd.Flags().Changed("name") {
		upd.Name = &opts.Name
	}
	if cmd.Flags().Changed("email") {
		upd.Email = &opts.Email
	}
	if upd.Name != nil || upd.Email != nil {
		if usr, err = a.Directory.UpdateProfile(ctx, usr.ID, upd); err != nil {
			return out.Fail(err)
		}
	}
	if cmd.Flags().Changed("password") {
		if err := a.Directory.SetPassword(ctx, usr.ID, opts.Password); err != nil {
			return out.Fail(err)
		}
	}
	return out.Success(userView{User: usr})
}
