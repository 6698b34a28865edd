package cli

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cryodb/cryo/reldb"
)

// Dataset describes one frozen object directory found under the base
// directory's databases/ tree.
type Dataset struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Path      string `json:"path"`       // relative to databases/
	SizeBytes int64  `json:"size_bytes"` // recursive, nested children included
}

// NewLsCommand creates the ls command.
func NewLsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List frozen datasets",
		Long: `List every frozen dataset under the configured base directory.

Nested datasets are listed with their full path relative to databases/.
Sizes are recursive, so a parent's size includes its children.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(rootOpts, cmd)
		},
	}
	return cmd
}

func runLs(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve configuration", err)
	}

	datasets, err := ListDatasets(cfg.DatabasesDir())
	if err != nil {
		return WrapExitError(ExitCommandError, "scan databases directory", err)
	}
	slog.Debug("scanned freezer", "dir", cfg.DatabasesDir(), "datasets", len(datasets))

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(datasets)
	}

	tw := tablewriter.NewWriter(cmd.OutOrStdout())
	tw.Header("Kind", "Name", "Size", "Path")
	for _, d := range datasets {
		tw.Append([]string{d.Kind, d.Name, humanize.Bytes(uint64(d.SizeBytes)), d.Path})
	}
	tw.Render()
	return nil
}

// ListDatasets walks root recursively and returns every directory holding a
// dataset database, sorted by relative path. A missing root yields an empty
// listing, matching a freezer no object was ever written to.
func ListDatasets(root string) ([]Dataset, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return []Dataset{}, nil
	}

	datasets := []Dataset{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if _, statErr := os.Stat(filepath.Join(path, reldb.FileName)); statErr != nil {
			return nil
		}

		kind, name, ok := splitSegment(filepath.Base(path))
		if !ok {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		size, sizeErr := dirSize(path)
		if sizeErr != nil {
			return sizeErr
		}
		datasets = append(datasets, Dataset{
			Kind:      kind,
			Name:      name,
			Path:      rel,
			SizeBytes: size,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(datasets, func(i, j int) bool { return datasets[i].Path < datasets[j].Path })
	return datasets, nil
}

// splitSegment parses a directory name of the form kind.name.
func splitSegment(base string) (kind, name string, ok bool) {
	kind, name, ok = strings.Cut(base, ".")
	if !ok || kind == "" || name == "" {
		return "", "", false
	}
	return kind, name, true
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, infoErr := d.Info()
			if infoErr != nil {
				return infoErr
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}
