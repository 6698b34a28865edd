package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// RmOptions holds flags for the rm command.
type RmOptions struct {
	*RootOptions
	Force bool
}

// NewRmCommand creates the rm command.
func NewRmCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rm <dataset>",
		Short: "Remove a frozen dataset from disk",
		Long: `Remove a dataset directory and everything inside it.

The library never deletes frozen state on its own; this command is the
explicit removal operation. Nested datasets are removed together with
their parent. Asks for confirmation unless --force is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "remove without confirmation")

	return cmd
}

func runRm(opts *RmOptions, dataset string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve configuration", err)
	}

	dir, err := datasetDir(cfg.DatabasesDir(), dataset)
	if err != nil {
		return err
	}

	if !opts.Force {
		fmt.Fprintf(cmd.OutOrStdout(), "remove %s and all nested datasets? [y/N] ", dataset)
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			return &ExitError{Code: ExitFailure, Message: "aborted"}
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return WrapExitError(ExitFailure, "remove "+dataset, err)
	}
	slog.Info("dataset removed", "dataset", dataset, "dir", dir)
	return nil
}
