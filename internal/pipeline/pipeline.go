package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/danielpatrickdp/reltypes/internal/artifact"
	"github.com/danielpatrickdp/reltypes/internal/config"
	"github.com/danielpatrickdp/reltypes/internal/corpus"
	"github.com/danielpatrickdp/reltypes/internal/graph"
	"github.com/danielpatrickdp/reltypes/internal/imbalance"
	"github.com/danielpatrickdp/reltypes/internal/logging"
	"github.com/danielpatrickdp/reltypes/internal/resolve"
	"github.com/danielpatrickdp/reltypes/internal/stats"
	"github.com/danielpatrickdp/reltypes/internal/store"
)

// #region pipeline-struct

// Pipeline sequences the two aggregation passes over one corpus and writes
// the artifacts of a run to a sink.
type Pipeline struct {
	cfg     config.Config
	seeding stats.Seeding
	sink    artifact.Sink
	logger  *slog.Logger
	store   *store.Store
	graph   *graph.GraphStore
	runID   string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithStore records runs, stage logs and type participation in s.
func WithStore(s *store.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// #endregion pipeline-struct

// #region constructor

// New validates cfg and returns a pipeline writing to sink.
func New(cfg config.Config, sink artifact.Sink, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	seeding, err := stats.ParseSeeding(cfg.Seeding)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg, seeding: seeding, sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.store != nil {
		gs, err := graph.NewGraphStore(p.store.DB())
		if err != nil {
			return nil, err
		}
		p.graph = gs
	}
	return p, nil
}

// #endregion constructor

// #region stats

// Stats runs the first pass, prunes shared types and classifies the
// relations. Nothing is written.
func (p *Pipeline) Stats(ctx context.Context) (*Statistics, error) {
	parts, err := p.partitions()
	if err != nil {
		return nil, err
	}
	st := &Statistics{Partitions: parts}

	err = p.stage(ctx, StagePass1, func() (int, error) {
		agg, err := stats.Fold(corpus.Records(parts...), p.seeding)
		if err != nil {
			return 0, err
		}
		st.Aggregate = agg
		return agg.Records, nil
	})
	if err != nil {
		return nil, err
	}

	if p.cfg.RelationIDs != "" {
		err = p.stage(ctx, StageRelIDs, func() (int, error) {
			ids, err := corpus.LoadRelationIDs(p.cfg.Path(p.cfg.RelationIDs))
			if err != nil {
				return 0, err
			}
			st.Unknown = corpus.UnknownRelations(st.Aggregate.Occurrences, ids)
			if len(st.Unknown) > 0 {
				p.logger.Warn("relations missing from relation-id map", "relations", st.Unknown)
			}
			return len(ids), nil
		})
		if err != nil {
			return nil, err
		}
	}

	err = p.stage(ctx, StagePrune, func() (int, error) {
		if len(st.Aggregate.Shared) > 0 {
			p.logger.Info("pruning shared types", "types", []string(st.Aggregate.Shared))
		}
		st.Pruned = stats.Prune(st.Aggregate.Table, st.Aggregate.Shared)
		return len(st.Pruned), nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, StageClassify, func() (int, error) {
		st.Classified = imbalance.NewClassifier(p.cfg.Imbalance).Run(st.Pruned)
		return len(st.Classified.Imbalanced), nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// #endregion stats

// #region run

// Run executes the full pipeline. With a store configured the run is
// registered first and marked failed if any stage errors.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	if p.store != nil {
		cfgJSON, err := json.Marshal(p.cfg)
		if err != nil {
			return Summary{}, fmt.Errorf("marshal config: %w", err)
		}
		rec, err := p.store.BeginRun(p.cfg.BaseDir, string(p.seeding), string(cfgJSON))
		if err != nil {
			return Summary{}, err
		}
		p.runID = rec.RunID
		defer func() { p.runID = "" }()
	}

	sum, err := p.run(ctx)
	sum.RunID = p.runID

	if p.store != nil {
		status, summaryJSON := store.StatusDone, ""
		if err != nil {
			status = store.StatusFailed
		} else if data, merr := json.Marshal(sum); merr == nil {
			summaryJSON = string(data)
		}
		if ferr := p.store.FinishRun(p.runID, status, summaryJSON); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}
	if err != nil {
		return sum, err
	}
	p.logger.Info("run complete",
		"run_id", sum.RunID, "records", sum.Records, "relations", sum.Relations,
		"normalized_types", sum.NormalizedTypes)
	return sum, nil
}

func (p *Pipeline) run(ctx context.Context) (Summary, error) {
	st, err := p.Stats(ctx)
	if err != nil {
		return Summary{}, err
	}
	return p.emit(ctx, st)
}

// emit resolves and writes everything derived from st. Relation coverage of
// every partition is checked before the first artifact is written.
func (p *Pipeline) emit(ctx context.Context, st *Statistics) (Summary, error) {
	resolver := resolve.NewResolver(st.Pruned)
	err := p.stage(ctx, StageCheck, func() (int, error) {
		for _, path := range st.Partitions {
			if err := resolver.Check(path, corpus.Records(path)); err != nil {
				return 0, err
			}
		}
		return len(st.Partitions), nil
	})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		Seeding:           p.seeding,
		Partitions:        baseNames(st.Partitions),
		Records:           st.Aggregate.Records,
		Relations:         len(st.Aggregate.Occurrences),
		SharedTypes:       st.Aggregate.Shared,
		UnknownRelations:  nonNil(st.Unknown),
		Imbalanced:        sortedKeys(st.Classified.Imbalanced),
		ImbalanceReasons:  st.Classified.Reasons,
		NormalizedRecords: map[string]int{},
		Composition:       stats.Compose(st.Aggregate.Occurrences),
	}

	out := p.cfg.Outputs
	err = p.stage(ctx, StageWrite, func() (int, error) {
		return p.write(&sum,
			named{out.RelationCounts, st.Aggregate.Occurrences},
			named{out.SetCounts, st.Classified.SetCounts},
			named{out.Imbalanced, st.Classified.Imbalanced},
			named{out.PrunedStats, st.Pruned},
		)
	})
	if err != nil {
		return sum, err
	}

	// Each partition is resolved and written on its own; pass 2 reads the
	// normalized records back in partition order.
	var normalized, first []corpus.Record
	err = p.stage(ctx, StageResolve, func() (int, error) {
		for i, path := range st.Partitions {
			if err := ctx.Err(); err != nil {
				return len(normalized), err
			}
			recs, err := resolver.Resolve(path, corpus.Records(path))
			if err != nil {
				return len(normalized), err
			}
			if recs == nil {
				recs = []corpus.Record{}
			}
			name := p.cfg.OneTypeName(path)
			if _, err := p.write(&sum, named{name, recs}); err != nil {
				return len(normalized), err
			}
			sum.NormalizedRecords[name] = len(recs)
			if i == 0 {
				first = recs
			}
			normalized = append(normalized, recs...)
		}
		return len(normalized), nil
	})
	if err != nil {
		return sum, err
	}

	var pass2 *stats.Aggregate
	err = p.stage(ctx, StagePass2, func() (int, error) {
		pass2, err = stats.Fold(corpus.FromSlice(normalized), p.seeding)
		if err != nil {
			return 0, err
		}
		return pass2.Records, nil
	})
	if err != nil {
		return sum, err
	}

	var reverse stats.ReverseMap
	err = p.stage(ctx, StageReverse, func() (int, error) {
		reverse = stats.Reverse(pass2.Table)
		firstAgg, err := stats.Fold(corpus.FromSlice(first), p.seeding)
		if err != nil {
			return 0, err
		}
		sum.NormalizedTypes = len(reverse)
		sum.PartitionOnlyTypes = missingLabels(reverse, stats.Reverse(firstAgg.Table))
		return len(reverse), nil
	})
	if err != nil {
		return sum, err
	}

	if p.graph != nil {
		err = p.stage(ctx, StageGraph, func() (int, error) {
			return p.graph.RecordParticipation(p.runID, pass2.Table)
		})
		if err != nil {
			return sum, err
		}
	}

	err = p.stage(ctx, StageWrite, func() (int, error) {
		n, err := p.write(&sum,
			named{out.NormalizedStats, pass2.Table},
			named{out.Reverse, reverse},
		)
		if err != nil {
			return n, err
		}
		sum.Artifacts = append(sum.Artifacts, out.Summary)
		sort.Strings(sum.Artifacts)
		if err := p.sink.Write(out.Summary, sum); err != nil {
			return n, err
		}
		return n + 1, nil
	})
	return sum, err
}

// #endregion run

// #region stage

// stage runs fn as one named step: it checks ctx first, then logs the
// outcome and, with a store, appends a run_log row.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	n, err := fn()
	elapsed := time.Since(start)

	entry := logging.StageEntry{RunID: p.runID, Stage: name, Status: "ok", Records: n, Elapsed: elapsed}
	if err != nil {
		entry.Status = "failed"
		entry.Detail = err.Error()
		p.logger.Error("stage failed", "stage", name, "elapsed", elapsed, "err", err)
	} else {
		p.logger.Info("stage done", "stage", name, "records", n, "elapsed", elapsed)
	}

	if p.store != nil && p.runID != "" {
		if lerr := logging.LogStage(p.store.DB(), entry); lerr != nil {
			p.logger.Warn("stage log not recorded", "stage", name, "err", lerr)
		}
	}
	return err
}

// #endregion stage

// #region helpers

type named struct {
	name string
	v    any
}

// write sends artifacts to the sink in order and records their names.
func (p *Pipeline) write(sum *Summary, artifacts ...named) (int, error) {
	for i, a := range artifacts {
		if err := p.sink.Write(a.name, a.v); err != nil {
			return i, fmt.Errorf("write artifact %s: %w", a.name, err)
		}
		sum.Artifacts = append(sum.Artifacts, a.name)
	}
	return len(artifacts), nil
}

// partitions resolves the configured partition list, or discovers it with
// the partition glob when the list is empty.
func (p *Pipeline) partitions() ([]string, error) {
	if len(p.cfg.Partitions) > 0 {
		paths := make([]string, len(p.cfg.Partitions))
		for i, name := range p.cfg.Partitions {
			paths[i] = p.cfg.Path(name)
		}
		return paths, nil
	}

	reserved := p.cfg.ArtifactNames(nil)
	skip := func(name string) bool {
		return reserved[name] || p.cfg.IsNormalized(name)
	}
	paths, err := corpus.Discover(p.cfg.BaseDir, p.cfg.PartitionGlob, skip)
	if err != nil {
		return nil, fmt.Errorf("discover partitions: %w", err)
	}
	p.logger.Debug("discovered partitions", "partitions", paths)
	return paths, nil
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func sortedKeys(r imbalance.Report) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// missingLabels lists the labels of all that are not in subset, sorted.
func missingLabels(all, subset stats.ReverseMap) []string {
	out := []string{}
	for _, l := range all.Labels() {
		if _, ok := subset[l]; !ok {
			out = append(out, l)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// #endregion helpers
