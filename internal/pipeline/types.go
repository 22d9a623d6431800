package pipeline

import (
	"github.com/danielpatrickdp/reltypes/internal/imbalance"
	"github.com/danielpatrickdp/reltypes/internal/stats"
)

// #region stage-names
const (
	StagePass1    = "pass1"
	StageRelIDs   = "rel2id"
	StagePrune    = "prune"
	StageClassify = "classify"
	StageCheck    = "check"
	StageResolve  = "resolve"
	StagePass2    = "pass2"
	StageReverse  = "reverse"
	StageWrite    = "write"
	StageGraph    = "graph"
)

// #endregion stage-names

// #region statistics
// Statistics is the outcome of the first pass: aggregation, pruning and
// classification.
type Statistics struct {
	Partitions []string
	Aggregate  *stats.Aggregate
	Pruned     stats.FrequencyTable
	Classified imbalance.Result
	Unknown    []string // relations absent from the relation-id map
}

// #endregion statistics

// #region summary
// Summary describes a finished run. It is written as the summary artifact
// and stored with the run history.
type Summary struct {
	RunID              string                      `json:"-"`
	Seeding            stats.Seeding               `json:"seeding"`
	Partitions         []string                    `json:"partitions"`
	Records            int                         `json:"records"`
	Relations          int                         `json:"relations"`
	SharedTypes        stats.LabelSet              `json:"shared_types"`
	UnknownRelations   []string                    `json:"unknown_relations"`
	Imbalanced         []string                    `json:"imbalanced"`
	ImbalanceReasons   map[string]imbalance.Reason `json:"imbalance_reasons"`
	NormalizedRecords  map[string]int              `json:"normalized_records"`
	NormalizedTypes    int                         `json:"normalized_types"`
	PartitionOnlyTypes []string                    `json:"partition_only_types"`
	Composition        stats.Composition           `json:"composition"`
	Artifacts          []string                    `json:"artifacts"`
}

// #endregion summary
