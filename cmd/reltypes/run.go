package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/reltypes/internal/artifact"
	"github.com/danielpatrickdp/reltypes/internal/logging"
	"github.com/danielpatrickdp/reltypes/internal/pipeline"
	"github.com/danielpatrickdp/reltypes/internal/store"
)

// #region run

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return usageError{err}
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Store.Path != "" {
		s, err := store.NewStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer s.Close()
		opts = append(opts, pipeline.WithStore(s))
	}

	sink := &artifact.DirSink{Dir: cfg.BaseDir, Indent: cfg.Indent}
	p, err := pipeline.New(cfg, sink, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := p.Run(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return printJSON(w, sum)
	}
	printSummary(w, sum)
	return nil
}

func printSummary(w io.Writer, sum pipeline.Summary) {
	if sum.RunID != "" {
		fmt.Fprintf(w, "Run:              %s\n", sum.RunID)
	}
	fmt.Fprintf(w, "Seeding:          %s\n", sum.Seeding)
	fmt.Fprintf(w, "Partitions:       %s\n", strings.Join(sum.Partitions, ", "))
	fmt.Fprintf(w, "Records:          %d\n", sum.Records)
	fmt.Fprintf(w, "Relations:        %d\n", sum.Relations)
	fmt.Fprintf(w, "Shared types:     %s\n", listOrNone(sum.SharedTypes))
	fmt.Fprintf(w, "Not in rel2id:    %s\n", listOrNone(sum.UnknownRelations))
	fmt.Fprintf(w, "Imbalanced:       %d\n", len(sum.Imbalanced))
	fmt.Fprintf(w, "Entity types:     %d (after normalization)\n", sum.NormalizedTypes)
	fmt.Fprintf(w, "Partition-only:   %s\n", listOrNone(sum.PartitionOnlyTypes))

	c := sum.Composition
	fmt.Fprintf(w, "\nRecords per relation: mean %.2f  stddev %.2f  min %d  max %d\n",
		c.MeanRecords, c.StdDevRecords, c.MinRecords, c.MaxRecords)
	fmt.Fprintf(w, "Relation entropy:     %.3f of %.3f bits\n", c.EntropyBits, c.MaxEntropyBits)

	fmt.Fprintf(w, "\nArtifacts:\n")
	for _, name := range sum.Artifacts {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

// #endregion run

// #region stats

type statsRow struct {
	Relation string `json:"relation"`
	Records  int    `json:"records"`
	Head     int    `json:"head"`
	Tail     int    `json:"tail"`
	Reason   string `json:"reason,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return usageError{err}
	}

	p, err := pipeline.New(cfg, &artifact.MemorySink{}, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}
	st, err := p.Stats(cmd.Context())
	if err != nil {
		return err
	}

	onlyImbalanced, _ := cmd.Flags().GetBool("imbalanced")
	var rows []statsRow
	for _, rel := range st.Pruned.Relations() {
		reason := st.Classified.Reasons[rel]
		if onlyImbalanced && reason == "" {
			continue
		}
		counts := st.Classified.SetCounts[rel]
		rows = append(rows, statsRow{
			Relation: rel,
			Records:  st.Aggregate.Occurrences[rel],
			Head:     counts.Head,
			Tail:     counts.Tail,
			Reason:   string(reason),
		})
	}

	w := cmd.OutOrStdout()
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		if rows == nil {
			rows = []statsRow{}
		}
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%-40s  %8s  %5s  %5s  %s\n", "Relation", "Records", "Head", "Tail", "Imbalance")
	fmt.Fprintf(w, "%-40s+-%8s+-%5s+-%5s+-%s\n",
		strings.Repeat("-", 40), "--------", "-----", "-----", "-----------")
	for _, r := range rows {
		reason := r.Reason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(w, "%-40s  %8d  %5d  %5d  %s\n", r.Relation, r.Records, r.Head, r.Tail, reason)
	}
	fmt.Fprintf(w, "\n%d records, %d relations, shared types: %s\n",
		st.Aggregate.Records, len(st.Pruned), listOrNone(st.Aggregate.Shared))
	return nil
}

// #endregion stats

func listOrNone(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
