package resolve

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/reltypes/internal/corpus"
	"github.com/danielpatrickdp/reltypes/internal/stats"
)

func rec(relation, head, tail string) corpus.Record {
	return corpus.Record{
		Relation: relation,
		Head:     corpus.Entity{Type: head},
		Tail:     corpus.Entity{Type: tail},
	}
}

// #region pick-tests
func TestPick_TieBreaksLexicographically(t *testing.T) {
	counts := stats.Multiset{"a": 3, "b": 3, "c": 1}
	got, ok := Pick(stats.ParseLabels("c,b,a"), counts)
	require.True(t, ok)
	assert.Equal(t, "a", got)
}

func TestPick_HighestCountWins(t *testing.T) {
	counts := stats.Multiset{"a": 1, "b": 3, "c": 2}
	got, _ := Pick(stats.ParseLabels("a,b,c"), counts)
	assert.Equal(t, "b", got)
}

func TestPick_AbsentCandidatesScoreZero(t *testing.T) {
	got, ok := Pick(stats.ParseLabels("zz,/common/topic"), stats.Multiset{"zz": 1})
	require.True(t, ok)
	assert.Equal(t, "zz", got)

	got, ok = Pick(stats.ParseLabels("b,a"), stats.Multiset{})
	require.True(t, ok)
	assert.Equal(t, "a", got)
}

func TestPick_NoCandidates(t *testing.T) {
	_, ok := Pick(stats.LabelSet{}, stats.Multiset{"a": 1})
	assert.False(t, ok)
}

// #endregion pick-tests

// #region resolver-tests
func TestResolve_EndToEndScenario(t *testing.T) {
	records := []corpus.Record{
		rec("r1", "P,Q", "M"),
		rec("r1", "P", "M,N"),
	}
	agg, err := stats.Fold(corpus.FromSlice(records), stats.SeedLegacy)
	require.NoError(t, err)
	table := stats.Prune(agg.Table, agg.Shared)

	out, err := NewResolver(table).Resolve("mem", corpus.FromSlice(records))
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "P", out[0].Head.Type)
	assert.Equal(t, "M", out[0].Tail.Type)
	assert.Equal(t, "P", out[1].Head.Type)
	assert.Equal(t, "M", out[1].Tail.Type)

	// inputs untouched
	assert.Equal(t, "P,Q", records[0].Head.Type)
}

func TestResolve_PrunedSharedTypeNeverWinsOverCountedType(t *testing.T) {
	table := stats.FrequencyTable{
		"r1": {Head: stats.Multiset{"/people/person": 4}, Tail: stats.Multiset{"/location/location": 2}},
	}
	out, err := NewResolver(table).Resolve("mem", corpus.FromSlice([]corpus.Record{
		rec("r1", "/common/topic,/people/person", "/common/topic,/location/location"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "/people/person", out[0].Head.Type)
	assert.Equal(t, "/location/location", out[0].Tail.Type)
}

func TestResolve_PassesOtherFieldsThrough(t *testing.T) {
	var r corpus.Record
	require.NoError(t, json.Unmarshal([]byte(
		`{"relation":"r1","sentence":"s","head":{"type":"P,Q","word":"w"},"tail":{"type":"M"}}`), &r))
	table := stats.FrequencyTable{"r1": {Head: stats.Multiset{"Q": 5, "P": 1}, Tail: stats.Multiset{"M": 1}}}

	out, err := NewResolver(table).Resolve("mem", corpus.FromSlice([]corpus.Record{r}))
	require.NoError(t, err)
	assert.Equal(t, "Q", out[0].Head.Type)
	assert.Equal(t, json.RawMessage(`"w"`), out[0].Head.Extra["word"])
	assert.Equal(t, json.RawMessage(`"s"`), out[0].Extra["sentence"])
}

func TestResolve_EmptyTypeStaysEmpty(t *testing.T) {
	table := stats.FrequencyTable{"r1": {Head: stats.Multiset{}, Tail: stats.Multiset{"M": 1}}}
	out, err := NewResolver(table).Resolve("mem", corpus.FromSlice([]corpus.Record{rec("r1", "", "M")}))
	require.NoError(t, err)
	assert.Equal(t, "", out[0].Head.Type)
}

func TestResolve_KeyMismatch(t *testing.T) {
	table := stats.FrequencyTable{"r1": {Head: stats.Multiset{"P": 1}, Tail: stats.Multiset{"M": 1}}}
	_, err := NewResolver(table).Resolve("test.json", corpus.FromSlice([]corpus.Record{
		rec("r1", "P", "M"),
		rec("r9", "P", "M"),
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyMismatch)

	var le *corpus.LocationError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "test.json", le.Location)
	assert.Equal(t, 1, le.Index)

	var mr *MissingRelationError
	require.True(t, errors.As(err, &mr))
	assert.Equal(t, "r9", mr.Relation)
}

func TestResolve_SourceErrorReturnedUnchanged(t *testing.T) {
	table := stats.FrequencyTable{}
	_, err := NewResolver(table).Resolve("missing.json", corpus.Records("/nonexistent/missing.json"))
	assert.ErrorIs(t, err, corpus.ErrIO)
	assert.NotErrorIs(t, err, ErrKeyMismatch)
}

func TestCheck(t *testing.T) {
	table := stats.FrequencyTable{"r1": {Head: stats.Multiset{}, Tail: stats.Multiset{}}}
	r := NewResolver(table)

	assert.NoError(t, r.Check("mem", corpus.FromSlice([]corpus.Record{rec("r1", "P", "M")})))
	err := r.Check("mem", corpus.FromSlice([]corpus.Record{rec("r1", "P", "M"), rec("r2", "P", "M")}))
	assert.ErrorIs(t, err, ErrKeyMismatch)
}

func TestResolveRecord_MissingRelation(t *testing.T) {
	r := rec("r2", "P", "M")
	err := NewResolver(stats.FrequencyTable{}).ResolveRecord(&r)
	assert.ErrorIs(t, err, ErrKeyMismatch)
	assert.Equal(t, "P", r.Head.Type)
}

// #endregion resolver-tests
