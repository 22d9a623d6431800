package imbalance

import "github.com/danielpatrickdp/reltypes/internal/stats"

// #region classifier
// Classifier flags relations whose head and tail type variety is skewed.
type Classifier struct {
	config Config
}

// NewClassifier creates a classifier with the given bounds.
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

// Run counts distinct types per side for every relation of a pruned table
// and collects the imbalanced ones.
func (c *Classifier) Run(table stats.FrequencyTable) Result {
	res := Result{
		SetCounts:  Report{},
		Imbalanced: Report{},
		Reasons:    map[string]Reason{},
	}

	for rel, side := range table {
		counts := stats.SideCount{Head: side.Head.Len(), Tail: side.Tail.Len()}
		res.SetCounts[rel] = counts

		reason := c.Flag(counts.Head, counts.Tail)
		if reason == ReasonNone {
			continue
		}
		// Both sides pruned away: empty, not skewed.
		if counts.Head == 0 && counts.Tail == 0 {
			continue
		}
		res.Imbalanced[rel] = counts
		res.Reasons[rel] = reason
	}

	return res
}

// Flag returns the first rule that marks (head, tail) as imbalanced, or
// ReasonNone. A zero tail count is flagged rather than divided by.
func (c *Classifier) Flag(head, tail int) Reason {
	if tail == 0 {
		return ReasonTailEmpty
	}
	ratio := float64(head) / float64(tail)
	switch {
	case ratio < c.config.MinRatio:
		return ReasonRatioLow
	case ratio > c.config.MaxRatio:
		return ReasonRatioHigh
	case c.config.FlagSingleton && head == 1:
		return ReasonSingleHead
	case c.config.FlagSingleton && tail == 1:
		return ReasonSingleTail
	}
	return ReasonNone
}

// #endregion classifier
