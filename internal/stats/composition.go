package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Composition summarizes how records are spread over relations.
type Composition struct {
	Records        int     `json:"records"`
	Relations      int     `json:"relations"`
	MeanRecords    float64 `json:"mean_records_per_relation"`
	StdDevRecords  float64 `json:"stddev_records_per_relation"`
	MaxRecords     int     `json:"max_records_per_relation"`
	MinRecords     int     `json:"min_records_per_relation"`
	EntropyBits    float64 `json:"relation_entropy_bits"`
	MaxEntropyBits float64 `json:"max_relation_entropy_bits"`
}

// Compose builds a Composition from per-relation record counts. Relations
// are visited in sorted order so the floating point sums are reproducible.
func Compose(occurrences map[string]int) Composition {
	rels := make([]string, 0, len(occurrences))
	for r := range occurrences {
		rels = append(rels, r)
	}
	sort.Strings(rels)

	c := Composition{Relations: len(rels)}
	if len(rels) == 0 {
		return c
	}

	counts := make([]float64, len(rels))
	c.MinRecords = occurrences[rels[0]]
	for i, r := range rels {
		n := occurrences[r]
		counts[i] = float64(n)
		c.Records += n
		if n > c.MaxRecords {
			c.MaxRecords = n
		}
		if n < c.MinRecords {
			c.MinRecords = n
		}
	}

	c.MeanRecords = stat.Mean(counts, nil)
	if len(counts) > 1 {
		c.StdDevRecords = stat.StdDev(counts, nil)
	}

	if c.Records > 0 {
		p := make([]float64, len(counts))
		for i, n := range counts {
			p[i] = n / float64(c.Records)
		}
		// a single relation gives -0
		c.EntropyBits = math.Abs(stat.Entropy(p) / math.Ln2)
		c.MaxEntropyBits = math.Log2(float64(len(counts)))
	}
	return c
}
