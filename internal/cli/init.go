package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the freezer directory layout",
		Long: `Create the base directory tree: {basedir}, {basedir}/databases
and {basedir}/tmp. Existing directories are left untouched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "resolve configuration", err)
			}
			if err := cfg.EnsureLayout(); err != nil {
				return WrapExitError(ExitFailure, "create freezer layout", err)
			}
			slog.Debug("freezer layout ready", "basedir", cfg.BaseDir)
			fmt.Fprintf(cmd.OutOrStdout(), "initialized freezer at %s\n", cfg.BaseDir)
			return nil
		},
	}
	return cmd
}
