package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/reltypes/internal/graph"
	"github.com/danielpatrickdp/reltypes/internal/logging"
	"github.com/danielpatrickdp/reltypes/internal/pipeline"
	"github.com/danielpatrickdp/reltypes/internal/store"
)

const inspectTime = "2006-01-02T15:04:05Z"

// #region inspect

func runInspect(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	last, _ := cmd.Flags().GetInt("last")
	runID, _ := cmd.Flags().GetString("run")
	typeLabel, _ := cmd.Flags().GetString("type")
	depth, _ := cmd.Flags().GetInt("depth")
	jsonOut, _ := cmd.Flags().GetBool("json")

	if dbPath == "" {
		return usageError{errors.New("usage: reltypes inspect --db path/to/runs.db [--last N] [--run id] [--type label] [--json]")}
	}

	// opening a missing path would create an empty database
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	w := cmd.OutOrStdout()
	switch {
	case typeLabel != "":
		return runTypeMode(w, s, runID, typeLabel, depth, jsonOut)
	case runID != "":
		return runDetailMode(w, s, runID, jsonOut)
	default:
		return runListMode(w, s, last, jsonOut)
	}
}

// #endregion inspect

// #region list-mode

type listRow struct {
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
	Seeding    string `json:"seeding"`
	BaseDir    string `json:"base_dir"`
	Records    int    `json:"records"`
	Relations  int    `json:"relations"`
	Types      int    `json:"types"`
	Imbalanced int    `json:"imbalanced"`
	CreatedAt  string `json:"created_at"`
}

func runListMode(w io.Writer, s *store.Store, last int, jsonOut bool) error {
	runs, err := s.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs found")
		return nil
	}

	// store returns newest first; print chronologically
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		row := listRow{
			RunID:     r.RunID,
			Status:    string(r.Status),
			Seeding:   r.Seeding,
			BaseDir:   r.BaseDir,
			CreatedAt: r.CreatedAt.Format(inspectTime),
		}
		if sum := parseSummary(r.SummaryJSON); sum != nil {
			row.Records = sum.Records
			row.Relations = sum.Relations
			row.Types = sum.NormalizedTypes
			row.Imbalanced = len(sum.Imbalanced)
		}
		rows[len(runs)-1-i] = row
	}

	if jsonOut {
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%-10s  %-8s  %-7s  %8s  %9s  %6s  %10s  %s\n",
		"Run", "Status", "Seeding", "Records", "Relations", "Types", "Imbalanced", "Time")
	fmt.Fprintf(w, "%-10s+-%-8s+-%-7s+-%8s+-%9s+-%6s+-%10s+-%s\n",
		"----------", "--------", "-------", "--------", "---------", "------", "----------", "--------------------")
	for _, r := range rows {
		fmt.Fprintf(w, "%-10s  %-8s  %-7s  %8d  %9d  %6d  %10d  %s\n",
			shortID(r.RunID), r.Status, r.Seeding, r.Records, r.Relations, r.Types, r.Imbalanced, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID      string            `json:"run_id"`
	ParentID   string            `json:"parent_id,omitempty"`
	BaseDir    string            `json:"base_dir"`
	Seeding    string            `json:"seeding"`
	Status     string            `json:"status"`
	CreatedAt  string            `json:"created_at"`
	FinishedAt string            `json:"finished_at,omitempty"`
	Summary    *pipeline.Summary `json:"summary,omitempty"`
	Stages     []stageRow        `json:"stages"`
}

type stageRow struct {
	Stage     string `json:"stage"`
	Status    string `json:"status"`
	Records   int    `json:"records"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Detail    string `json:"detail,omitempty"`
}

func runDetailMode(w io.Writer, s *store.Store, runID string, jsonOut bool) error {
	r, err := s.GetRun(runID)
	if err != nil {
		return err
	}
	entries, err := logging.ListStages(s.DB(), runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:     r.RunID,
		ParentID:  r.ParentID,
		BaseDir:   r.BaseDir,
		Seeding:   r.Seeding,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.Format(inspectTime),
		Summary:   parseSummary(r.SummaryJSON),
		Stages:    make([]stageRow, len(entries)),
	}
	if !r.FinishedAt.IsZero() {
		out.FinishedAt = r.FinishedAt.Format(inspectTime)
	}
	for i, e := range entries {
		out.Stages[i] = stageRow{
			Stage:     e.Stage,
			Status:    e.Status,
			Records:   e.Records,
			ElapsedMS: e.Elapsed.Milliseconds(),
			Detail:    e.Detail,
		}
	}

	if jsonOut {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Run:       %s\n", out.RunID)
	fmt.Fprintf(w, "Parent:    %s\n", out.ParentID)
	fmt.Fprintf(w, "Base dir:  %s\n", out.BaseDir)
	fmt.Fprintf(w, "Seeding:   %s\n", out.Seeding)
	fmt.Fprintf(w, "Status:    %s\n", out.Status)
	fmt.Fprintf(w, "Created:   %s\n", out.CreatedAt)
	fmt.Fprintf(w, "Finished:  %s\n", out.FinishedAt)

	fmt.Fprintf(w, "\nStages:\n")
	for _, st := range out.Stages {
		fmt.Fprintf(w, "  %-9s %-7s %8d records  %6d ms", st.Stage, st.Status, st.Records, st.ElapsedMS)
		if st.Detail != "" {
			fmt.Fprintf(w, "  %s", st.Detail)
		}
		fmt.Fprintln(w)
	}

	if out.Summary != nil {
		fmt.Fprintln(w)
		printSummary(w, *out.Summary)
	}
	return nil
}

// #endregion detail-mode

// #region type-mode

type typeOutput struct {
	RunID     string          `json:"run_id"`
	Type      string          `json:"type"`
	Relations []edgeRow       `json:"relations"`
	Partners  []graph.Partner `json:"partners"`
	Reachable []reachRow      `json:"reachable"`
}

type reachRow struct {
	Type  string `json:"type"`
	Depth int    `json:"depth"`
}

type edgeRow struct {
	Relation string `json:"relation"`
	Side     string `json:"side"`
	Weight   int    `json:"weight"`
}

// runTypeMode lists the relations a type took part in after normalization.
// Without a run id the newest finished run is used.
func runTypeMode(w io.Writer, s *store.Store, runID, label string, depth int, jsonOut bool) error {
	if runID == "" {
		runs, err := s.ListRuns(50)
		if err != nil {
			return err
		}
		for _, r := range runs {
			if r.Status == store.StatusDone {
				runID = r.RunID
				break
			}
		}
		if runID == "" {
			return errors.New("no finished runs")
		}
	}

	gs, err := graph.NewGraphStore(s.DB())
	if err != nil {
		return err
	}
	edges, err := gs.Relations(runID, label)
	if err != nil {
		return err
	}
	partners, err := gs.Partners(runID, label)
	if err != nil {
		return err
	}

	walk, err := gs.Walk(runID, label, depth, 25)
	if err != nil {
		return err
	}

	out := typeOutput{RunID: runID, Type: label, Relations: []edgeRow{}, Partners: partners, Reachable: []reachRow{}}
	for _, e := range edges {
		out.Relations = append(out.Relations, edgeRow{Relation: e.Relation, Side: string(e.Side), Weight: e.Weight})
	}
	if out.Partners == nil {
		out.Partners = []graph.Partner{}
	}
	// skip the entry label itself
	for i := 1; i < len(walk.Labels); i++ {
		out.Reachable = append(out.Reachable, reachRow{Type: walk.Labels[i], Depth: walk.Depths[i]})
	}

	if jsonOut {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Type %s in run %s\n\n", label, shortID(runID))
	if len(out.Relations) == 0 {
		fmt.Fprintln(w, "no relations recorded")
		return nil
	}
	fmt.Fprintf(w, "%-40s  %-4s  %6s\n", "Relation", "Side", "Weight")
	for _, e := range out.Relations {
		fmt.Fprintf(w, "%-40s  %-4s  %6d\n", e.Relation, e.Side, e.Weight)
	}
	fmt.Fprintf(w, "\nOpposite-side types:\n")
	for _, p := range out.Partners {
		fmt.Fprintf(w, "  %-38s  %6d\n", p.TypeLabel, p.Weight)
	}
	fmt.Fprintf(w, "\nReachable within %d hops:\n", depth)
	for _, r := range out.Reachable {
		fmt.Fprintf(w, "  %-38s  %6d\n", r.Type, r.Depth)
	}
	return nil
}

// #endregion type-mode

// #region helpers

func parseSummary(summaryJSON string) *pipeline.Summary {
	if summaryJSON == "" {
		return nil
	}
	var sum pipeline.Summary
	if err := json.Unmarshal([]byte(summaryJSON), &sum); err != nil {
		return nil
	}
	return &sum
}

// #endregion helpers
