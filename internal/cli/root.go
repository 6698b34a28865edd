package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cryodb/cryo/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "table" | "json"
	BaseDir string // overrides the configured base directory
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"table", "json"}

// NewRootCommand creates the root command for the cryo CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cryo",
		Short: "cryo - freezer for expensive-to-recompute datasets",
		Long: `Manage datasets frozen to disk by the cryo library.

Each frozen dataset owns a directory under {basedir}/databases containing
its SQLite database and any collaborator-owned files. This tool lists,
queries and removes those directories; it never touches them implicitly.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "table", "output format (table|json)")
	cmd.PersistentFlags().StringVar(&opts.BaseDir, "basedir", "", "freezer base directory (default from config)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewLsCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewRmCommand(opts))

	return cmd
}

// setupLogging installs the process-wide slog handler: colored output on a
// terminal, plain text otherwise.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// resolveConfig builds the effective configuration for a command: the
// configured default overridden by the --basedir flag.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	if opts.BaseDir != "" {
		cfg := config.Config{BaseDir: opts.BaseDir}
		return cfg, cfg.Validate()
	}
	return config.Default()
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
