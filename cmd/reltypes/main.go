// Package main provides the reltypes CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/reltypes/internal/config"
	"github.com/danielpatrickdp/reltypes/internal/stats"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// #region main

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// #endregion main

// #region root

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reltypes",
		Short: "Entity-type statistics and canonical type resolution for relation corpora",
		Long: `reltypes aggregates the head and tail entity types of every relation in a
labeled relation-extraction corpus, prunes the types shared by every record,
flags relations with skewed type variety, and rewrites each mention's
multi-valued type annotation to a single canonical type.

Artifacts are written next to the corpus (base_dir).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reltypes v%s (%s)\n", version, commit)
		},
	})

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run both passes and write all artifacts",
		Args:  cobra.NoArgs,
		RunE:  runPipeline,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().String("db", "", "SQLite run history (overrides store.path and RELTYPES_DB)")
	runCmd.Flags().Bool("json", false, "print the summary as JSON")
	rootCmd.AddCommand(runCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per-relation distinct type counts without writing artifacts",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
	addConfigFlags(statsCmd)
	statsCmd.Flags().Bool("imbalanced", false, "only show imbalanced relations")
	statsCmd.Flags().Bool("json", false, "output as JSON instead of table")
	rootCmd.AddCommand(statsCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runInspect,
	}
	inspectCmd.Flags().String("db", "", "path to the run history database")
	inspectCmd.Flags().Int("last", 20, "show N most recent runs")
	inspectCmd.Flags().String("run", "", "show single run detail")
	inspectCmd.Flags().String("type", "", "show the relations an entity type participates in")
	inspectCmd.Flags().Int("depth", 2, "hops to follow from --type over shared relations")
	inspectCmd.Flags().Bool("json", false, "output as JSON instead of table")
	rootCmd.AddCommand(inspectCmd)

	return rootCmd
}

// #endregion root

// #region config-flags

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "YAML config file")
	cmd.Flags().String("base-dir", "", "corpus directory (overrides base_dir and RELTYPES_BASE_DIR)")
	cmd.Flags().String("seeding", "", "first-touch seeding: legacy or single")
	cmd.Flags().String("log-level", "", "debug, info, warn or error")
}

// loadConfig applies, in order: defaults, the config file, environment, flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if v, _ := cmd.Flags().GetString("base-dir"); v != "" {
		cfg.BaseDir = v
	}
	if v, _ := cmd.Flags().GetString("seeding"); v != "" {
		if _, err := stats.ParseSeeding(v); err != nil {
			return config.Config{}, usageError{err}
		}
		cfg.Seeding = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if cmd.Flags().Lookup("db") != nil {
		if v, _ := cmd.Flags().GetString("db"); v != "" {
			cfg.Store.Path = v
		}
	}
	return cfg, nil
}

// #endregion config-flags

// #region output

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
