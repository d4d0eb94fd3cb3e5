package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/N-Bhageeratha/OLP/internal/app"
	"github.com/N-Bhageeratha/OLP/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DB         string
	ConfigFile string
	EnvFile    string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the olp CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "olp",
		Short: "OLP - online learning platform",
		Long: `Manage the users, courses, enrollments and lesson progress of an online
learning platform stored in a single SQLite file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "olp.db", "path to the SQLite database")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./olp.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading OLP_* variables")

	// Add subcommands
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewCoursesCommand(opts))
	cmd.AddCommand(NewEnrollCommand(opts))
	cmd.AddCommand(NewToggleCommand(opts))
	cmd.AddCommand(NewProgressCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve merges flags, environment and config file into opts.cfg and builds
// the logger. Flags given on the command line win.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(o.EnvFile); err != nil {
		return WrapExitError(ExitCommandError, "load env file", err)
	}

	v := config.New()
	if err := config.ReadFile(v, o.ConfigFile); err != nil {
		return WrapExitError(ExitCommandError, "read config", err)
	}
	flags := cmd.Root().PersistentFlags()
	for _, key := range []string{config.KeyDB, config.KeyFormat, config.KeyVerbose} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return WrapExitError(ExitCommandError, "bind flags", err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		if !isValidFormat(v.GetString(config.KeyFormat)) {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", v.GetString(config.KeyFormat), ValidFormats))
		}
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.apply(cfg, cmd.ErrOrStderr())
	return nil
}

func (o *RootOptions) apply(cfg *config.Config, stderr io.Writer) {
	o.cfg = cfg
	o.DB = cfg.DBPath
	o.Format = cfg.Format
	o.Verbose = cfg.Verbose

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// config returns the resolved configuration. Commands built without the root
// command (as in tests) fall back to the flag values and defaults.
func (o *RootOptions) config(cmd *cobra.Command) *config.Config {
	if o.cfg == nil {
		v := config.New()
		v.Set(config.KeyDB, o.DB)
		v.Set(config.KeyFormat, o.Format)
		v.Set(config.KeyVerbose, o.Verbose)
		cfg, err := config.Load(v)
		if err != nil {
			cfg = &config.Config{DBPath: o.DB, Format: "text", BcryptCost: v.GetInt(config.KeyBcryptCost)}
		}
		o.apply(cfg, cmd.ErrOrStderr())
	}
	return o.cfg
}

// formatter returns an OutputFormatter writing to the command's stdout.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	cfg := o.config(cmd)
	return &OutputFormatter{Format: cfg.Format, Writer: cmd.OutOrStdout(), Verbose: cfg.Verbose}
}

// withApp opens the store, runs fn and closes the store again.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(a *app.App, out *OutputFormatter) error) error {
	cfg := o.config(cmd)
	a, err := app.Open(cfg.DBPath, app.Options{Logger: o.logger, BcryptCost: cfg.BcryptCost})
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer a.Close()
	return fn(a, o.formatter(cmd))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
