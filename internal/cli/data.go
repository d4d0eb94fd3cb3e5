package cli

import (
	"github.com/spf13/cobra"

	"github.com/N-Bhageeratha/OLP/internal/app"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all data with the sample catalog",
		Long: `Wipe the store and load the bundled sample catalog: four instructors and
five courses. Every sample instructor signs in with the fixture password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				stats, err := a.Seed(cmd.Context())
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(seedView{Stats: stats})
			})
		},
	}
}

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Yes bool
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset --yes",
		Short: "Remove every user, course, progress record and the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Yes {
				return NewExitError(ExitCommandError, "reset deletes all data; pass --yes to confirm")
			}
			return opts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				if err := a.Reset(cmd.Context()); err != nil {
					return out.Fail(err)
				}
				return out.Success(messageView{Message: "All data removed."})
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm deleting all data")

	return cmd
}
