package resolve

import (
	"errors"
	"iter"
	"strconv"

	"github.com/danielpatrickdp/reltypes/internal/corpus"
	"github.com/danielpatrickdp/reltypes/internal/stats"
)

// ErrKeyMismatch means a record's relation is absent from the frequency
// table it is resolved against: the table was built from a different corpus.
var ErrKeyMismatch = errors.New("relation missing from frequency table")

// #region pick

// Pick returns the candidate with the highest count. Candidates absent from
// counts score zero. Among equal counts the lexicographically smallest label
// wins. ok is false when there are no candidates.
func Pick(candidates stats.LabelSet, counts stats.Multiset) (label string, ok bool) {
	best := -1
	for _, l := range candidates {
		n := counts.Count(l)
		if n > best || (n == best && l < label) {
			label, best = l, n
		}
	}
	return label, best >= 0
}

// #endregion pick

// #region resolver

// Resolver collapses multi-valued type annotations against a pruned table.
type Resolver struct {
	table stats.FrequencyTable
}

// NewResolver binds a resolver to the table it resolves against.
func NewResolver(table stats.FrequencyTable) *Resolver {
	return &Resolver{table: table}
}

// Resolve rewrites the head and tail type of every record to a single
// canonical label and returns the full, materialized result. Mentions with
// no candidate labels keep their empty type. Source errors are returned
// unchanged; a relation unknown to the table fails with ErrKeyMismatch.
func (r *Resolver) Resolve(location string, records iter.Seq2[corpus.Record, error]) ([]corpus.Record, error) {
	var out []corpus.Record
	i := 0
	for rec, err := range records {
		if err != nil {
			return nil, err
		}
		if err := r.ResolveRecord(&rec); err != nil {
			return nil, &corpus.LocationError{Kind: ErrKeyMismatch, Location: location, Index: i, Err: err}
		}
		out = append(out, rec)
		i++
	}
	return out, nil
}

// ResolveRecord rewrites one record in place.
func (r *Resolver) ResolveRecord(rec *corpus.Record) error {
	side, ok := r.table[rec.Relation]
	if !ok {
		return &MissingRelationError{Relation: rec.Relation}
	}
	if l, ok := Pick(stats.ParseLabels(rec.Head.Type), side.Head); ok {
		rec.Head.Type = l
	}
	if l, ok := Pick(stats.ParseLabels(rec.Tail.Type), side.Tail); ok {
		rec.Tail.Type = l
	}
	return nil
}

// Check verifies that every relation in records has a table entry without
// rewriting anything.
func (r *Resolver) Check(location string, records iter.Seq2[corpus.Record, error]) error {
	i := 0
	for rec, err := range records {
		if err != nil {
			return err
		}
		if _, ok := r.table[rec.Relation]; !ok {
			return &corpus.LocationError{
				Kind: ErrKeyMismatch, Location: location, Index: i,
				Err: &MissingRelationError{Relation: rec.Relation},
			}
		}
		i++
	}
	return nil
}

// #endregion resolver

// #region errors

// MissingRelationError names the relation that had no table entry.
type MissingRelationError struct {
	Relation string
}

func (e *MissingRelationError) Error() string {
	return "no statistics for relation " + strconv.Quote(e.Relation)
}

func (e *MissingRelationError) Is(target error) bool {
	return target == ErrKeyMismatch
}

// #endregion errors
