package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cryodb/cryo/reldb"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <dataset> <sql>",
		Short: "Run a read statement against a frozen dataset",
		Long: `Run an ad-hoc SQL statement against a dataset's database.

The dataset is addressed by its directory path relative to databases/,
e.g. "Cohort.freeze1" or "Cohort.freeze1/Locus.chr1" for a nested one.

Example:
  cryo query Cohort.freeze1 "select count(*) from samples"
  cryo query Cohort.freeze1 "select * from cryo_kv" --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runQuery(opts *RootOptions, dataset, sqlText string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve configuration", err)
	}

	dir, err := datasetDir(cfg.DatabasesDir(), dataset)
	if err != nil {
		return err
	}

	db, err := reldb.Open(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "open dataset database", err)
	}
	defer db.Close()

	slog.Debug("running query", "dataset", dataset, "sql", sqlText)
	table, err := db.Query(cmd.Context(), sqlText)
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}

	if opts.Format == "json" {
		return renderJSON(cmd.OutOrStdout(), table)
	}
	renderTable(cmd.OutOrStdout(), table)
	return nil
}

// datasetDir resolves and verifies a dataset path relative to the
// databases/ root, refusing path escapes.
func datasetDir(root, dataset string) (string, error) {
	if dataset == "" || filepath.IsAbs(dataset) {
		return "", &ExitError{Code: ExitCommandError, Message: "invalid dataset path: " + dataset}
	}
	for _, seg := range strings.Split(filepath.ToSlash(dataset), "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", &ExitError{Code: ExitCommandError, Message: "invalid dataset path: " + dataset}
		}
	}

	dir := filepath.Join(root, filepath.FromSlash(dataset))
	if _, err := os.Stat(filepath.Join(dir, reldb.FileName)); err != nil {
		return "", WrapExitError(ExitCommandError, "no such dataset: "+dataset, err)
	}
	return dir, nil
}
