package stats

import (
	"fmt"
	"iter"

	"github.com/danielpatrickdp/reltypes/internal/corpus"
)

// #region seeding

// Seeding selects how a relation's multisets start out the first time the
// relation is seen.
type Seeding string

const (
	// SeedLegacy seeds every label of the first record with 1 and then
	// increments again, so first-record labels start at 2. Artifacts built
	// this way match the historical outputs.
	SeedLegacy Seeding = "legacy"
	// SeedSingle counts the first record once, like every other record.
	SeedSingle Seeding = "single"
)

// ParseSeeding validates a seeding mode name. The empty string means legacy.
func ParseSeeding(s string) (Seeding, error) {
	switch Seeding(s) {
	case "", SeedLegacy:
		return SeedLegacy, nil
	case SeedSingle:
		return SeedSingle, nil
	default:
		return "", fmt.Errorf("unknown seeding mode %q (want %q or %q)", s, SeedLegacy, SeedSingle)
	}
}

// #endregion seeding

// #region aggregate

// Aggregate is the accumulator of one aggregation pass.
type Aggregate struct {
	Table       FrequencyTable
	Shared      LabelSet       // labels in head∩tail of every record so far
	Occurrences map[string]int // records per relation
	Records     int

	seeding Seeding
}

// NewAggregate returns an empty accumulator.
func NewAggregate(seeding Seeding) *Aggregate {
	return &Aggregate{
		Table:       FrequencyTable{},
		Shared:      LabelSet{},
		Occurrences: map[string]int{},
		seeding:     seeding,
	}
}

// Merge folds one record into the accumulator. Record order only matters
// for first-touch seeding and for which record initializes Shared.
func (a *Aggregate) Merge(rec corpus.Record) {
	head := ParseLabels(rec.Head.Type)
	tail := ParseLabels(rec.Tail.Type)

	a.Occurrences[rec.Relation]++

	side, ok := a.Table[rec.Relation]
	if !ok {
		side = &SideTypes{Head: Multiset{}, Tail: Multiset{}}
		if a.seeding != SeedSingle {
			side.Head.AddSet(head)
			side.Tail.AddSet(tail)
		}
		a.Table[rec.Relation] = side
	}
	side.Head.AddSet(head)
	side.Tail.AddSet(tail)

	both := head.Intersect(tail)
	if a.Records == 0 {
		a.Shared = both
	} else {
		a.Shared = a.Shared.Intersect(both)
	}
	a.Records++
}

// Fold runs one aggregation pass over records. A source error aborts the
// pass and is returned unchanged.
func Fold(records iter.Seq2[corpus.Record, error], seeding Seeding) (*Aggregate, error) {
	agg := NewAggregate(seeding)
	for rec, err := range records {
		if err != nil {
			return nil, err
		}
		agg.Merge(rec)
	}
	return agg, nil
}

// #endregion aggregate

// #region prune

// Prune deletes every shared label from both sides of every relation. The
// table is modified in place and returned.
func Prune(table FrequencyTable, shared LabelSet) FrequencyTable {
	for _, side := range table {
		for _, l := range shared {
			side.Head.Delete(l)
			side.Tail.Delete(l)
		}
	}
	return table
}

// #endregion prune

// #region reverse

// Reverse counts, for every label, the relations whose head (tail) side
// contains it. Multiset counts are ignored; only presence matters.
func Reverse(table FrequencyTable) ReverseMap {
	out := ReverseMap{}
	entry := func(l string) *SideCount {
		c, ok := out[l]
		if !ok {
			c = &SideCount{}
			out[l] = c
		}
		return c
	}
	for _, side := range table {
		for l := range side.Head {
			entry(l).Head++
		}
		for l := range side.Tail {
			entry(l).Tail++
		}
	}
	return out
}

// #endregion reverse
