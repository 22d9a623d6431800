package imbalance

import (
	"fmt"

	"github.com/danielpatrickdp/reltypes/internal/stats"
)

// #region config
// Config holds the head/tail distinct-count ratio bounds.
type Config struct {
	MinRatio      float64 `yaml:"min_ratio"`      // flag if head/tail < MinRatio
	MaxRatio      float64 `yaml:"max_ratio"`      // flag if head/tail > MaxRatio
	FlagSingleton bool    `yaml:"flag_singleton"` // flag if either side has exactly one type
}

// DefaultConfig returns the bounds the historical reports were built with.
func DefaultConfig() Config {
	return Config{
		MinRatio:      0.2,
		MaxRatio:      5,
		FlagSingleton: true,
	}
}

// Validate rejects bounds that cannot describe a skew.
func (c Config) Validate() error {
	if c.MinRatio <= 0 || c.MaxRatio <= 0 {
		return fmt.Errorf("imbalance ratios must be positive (min=%v max=%v)", c.MinRatio, c.MaxRatio)
	}
	if c.MinRatio >= c.MaxRatio {
		return fmt.Errorf("imbalance min_ratio %v must be below max_ratio %v", c.MinRatio, c.MaxRatio)
	}
	return nil
}

// #endregion config

// #region reason
// Reason names the rule that flagged a relation.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonTailEmpty  Reason = "tail_empty"
	ReasonRatioLow   Reason = "ratio_low"
	ReasonRatioHigh  Reason = "ratio_high"
	ReasonSingleHead Reason = "single_head"
	ReasonSingleTail Reason = "single_tail"
)

// #endregion reason

// #region report
// Report maps a relation to its distinct head/tail type counts.
type Report map[string]stats.SideCount

// Result is the output of one classification.
type Result struct {
	SetCounts  Report            // every relation
	Imbalanced Report            // flagged relations, fully pruned ones excluded
	Reasons    map[string]Reason // first matching rule per flagged relation
}

// #endregion report
