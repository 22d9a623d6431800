package stats

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/reltypes/internal/corpus"
)

// #region helpers
func rec(relation, head, tail string) corpus.Record {
	return corpus.Record{
		Relation: relation,
		Head:     corpus.Entity{Type: head},
		Tail:     corpus.Entity{Type: tail},
	}
}

func fold(t *testing.T, seeding Seeding, records ...corpus.Record) *Aggregate {
	t.Helper()
	agg, err := Fold(corpus.FromSlice(records), seeding)
	require.NoError(t, err)
	return agg
}

// #endregion helpers

// #region label-tests
func TestParseLabels(t *testing.T) {
	assert.Equal(t, LabelSet{}, ParseLabels(""))
	assert.Equal(t, LabelSet{"P"}, ParseLabels("P"))
	assert.Equal(t, LabelSet{"P", "Q"}, ParseLabels("Q,P"))
	assert.Equal(t, LabelSet{"P", "Q"}, ParseLabels("P,Q,P"))
	assert.Equal(t, LabelSet{"P"}, ParseLabels("P,"))
	assert.Equal(t, LabelSet{"P"}, ParseLabels(",P"))
	assert.Equal(t, LabelSet{"P"}, ParseLabels("P,,"))
	assert.Equal(t, LabelSet{"/common/topic", "/people/person"}, ParseLabels("/people/person,/common/topic"))
}

func TestLabelSet_Intersect(t *testing.T) {
	a := ParseLabels("A,B,C")
	assert.Equal(t, LabelSet{"B", "C"}, a.Intersect(ParseLabels("C,B,D")))
	assert.Equal(t, LabelSet{}, a.Intersect(LabelSet{}))
}

func TestMultiset_Operations(t *testing.T) {
	m := Multiset{}
	m.AddSet(LabelSet{"a", "b"})
	m.AddSet(LabelSet{"a"})

	assert.Equal(t, 2, m.Count("a"))
	assert.Equal(t, 1, m.Count("b"))
	assert.Equal(t, 0, m.Count("zzz"))
	assert.True(t, m.Has("a"))
	assert.False(t, m.Has("zzz"))
	assert.Equal(t, []string{"a", "b"}, m.Labels())

	m.Delete("zzz")
	m.Delete("b")
	assert.Equal(t, 1, m.Len())
}

// #endregion label-tests

// #region fold-tests
func TestFold_EndToEndScenario(t *testing.T) {
	agg := fold(t, SeedLegacy,
		rec("r1", "P,Q", "M"),
		rec("r1", "P", "M,N"),
	)

	assert.Empty(t, agg.Shared)
	require.Contains(t, agg.Table, "r1")
	assert.Equal(t, Multiset{"P": 3, "Q": 2}, agg.Table["r1"].Head)
	assert.Equal(t, Multiset{"M": 3, "N": 1}, agg.Table["r1"].Tail)
	assert.Equal(t, map[string]int{"r1": 2}, agg.Occurrences)
	assert.Equal(t, 2, agg.Records)
}

func TestFold_SingleSeeding(t *testing.T) {
	agg := fold(t, SeedSingle,
		rec("r1", "P,Q", "M"),
		rec("r1", "P", "M,N"),
	)

	assert.Equal(t, Multiset{"P": 2, "Q": 1}, agg.Table["r1"].Head)
	assert.Equal(t, Multiset{"M": 2, "N": 1}, agg.Table["r1"].Tail)
}

func TestFold_SeedsOncePerRelation(t *testing.T) {
	agg := fold(t, SeedLegacy,
		rec("r1", "P", "M"),
		rec("r2", "P", "M"),
		rec("r1", "P", "M"),
	)

	assert.Equal(t, 3, agg.Table["r1"].Head.Count("P"))
	assert.Equal(t, 2, agg.Table["r2"].Head.Count("P"))
}

func TestFold_DuplicateLabelsCountOnce(t *testing.T) {
	agg := fold(t, SeedSingle, rec("r1", "P,P,P", "M"))
	assert.Equal(t, 1, agg.Table["r1"].Head.Count("P"))
}

func TestFold_EmptyTypeContributesNothing(t *testing.T) {
	agg := fold(t, SeedLegacy, rec("r1", "", "M"))
	assert.Equal(t, 0, agg.Table["r1"].Head.Len())
	assert.Equal(t, 1, agg.Occurrences["r1"])
}

func TestFold_SharedTypeInEveryRecord(t *testing.T) {
	agg := fold(t, SeedLegacy,
		rec("r1", "X,P", "X,M"),
		rec("r2", "X", "X,N"),
		rec("r1", "Q,X", "X"),
	)
	assert.Equal(t, LabelSet{"X"}, agg.Shared)
}

func TestFold_SharedTypeMissingFromOneRecord(t *testing.T) {
	agg := fold(t, SeedLegacy,
		rec("r1", "X,P", "X,M"),
		rec("r2", "X", "N"),
		rec("r1", "Q,X", "X"),
	)
	assert.False(t, agg.Shared.Contains("X"))
	assert.Empty(t, agg.Shared)
}

func TestFold_EmptyCorpus(t *testing.T) {
	agg := fold(t, SeedLegacy)
	assert.Empty(t, agg.Table)
	assert.Empty(t, agg.Shared)
	assert.Equal(t, 0, agg.Records)
}

func TestFold_SourceErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	var seq iter.Seq2[corpus.Record, error] = func(yield func(corpus.Record, error) bool) {
		if !yield(rec("r1", "P", "M"), nil) {
			return
		}
		yield(corpus.Record{}, boom)
	}

	agg, err := Fold(seq, SeedLegacy)
	assert.Nil(t, agg)
	assert.Same(t, boom, err)
}

func TestParseSeeding(t *testing.T) {
	s, err := ParseSeeding("")
	require.NoError(t, err)
	assert.Equal(t, SeedLegacy, s)

	s, err = ParseSeeding("single")
	require.NoError(t, err)
	assert.Equal(t, SeedSingle, s)

	_, err = ParseSeeding("double")
	assert.Error(t, err)
}

// #endregion fold-tests

// #region prune-tests
func TestPrune_RemovesSharedFromBothSides(t *testing.T) {
	agg := fold(t, SeedLegacy,
		rec("r1", "X,P", "X,M"),
		rec("r2", "X", "X,N"),
	)
	table := Prune(agg.Table, agg.Shared)

	assert.Equal(t, Multiset{"P": 2}, table["r1"].Head)
	assert.Equal(t, Multiset{"M": 2}, table["r1"].Tail)
	assert.Equal(t, Multiset{}, table["r2"].Head)
	assert.Equal(t, Multiset{"N": 2}, table["r2"].Tail)
}

func TestPrune_AbsentLabelIsNoOp(t *testing.T) {
	table := FrequencyTable{"r1": {Head: Multiset{"P": 2}, Tail: Multiset{"M": 1}}}
	Prune(table, LabelSet{"P"})
	assert.Equal(t, Multiset{}, table["r1"].Head)
	assert.Equal(t, Multiset{"M": 1}, table["r1"].Tail)
}

func TestPrune_Idempotent(t *testing.T) {
	agg := fold(t, SeedLegacy,
		rec("r1", "X,P,Q", "X,M"),
		rec("r2", "X,P", "X,N"),
		rec("r3", "X", "X"),
	)
	once := Prune(agg.Table, agg.Shared)
	snapshot := FrequencyTable{}
	for r, side := range once {
		snapshot[r] = &SideTypes{Head: Multiset{}, Tail: Multiset{}}
		for l, n := range side.Head {
			snapshot[r].Head[l] = n
		}
		for l, n := range side.Tail {
			snapshot[r].Tail[l] = n
		}
	}

	twice := Prune(once, agg.Shared)
	assert.Equal(t, snapshot, twice)
}

// #endregion prune-tests

// #region reverse-tests
func TestReverse_CountsPresencePerRelation(t *testing.T) {
	table := FrequencyTable{
		"r1": {Head: Multiset{"P": 10, "Q": 1}, Tail: Multiset{"M": 4}},
		"r2": {Head: Multiset{"P": 1}, Tail: Multiset{"P": 7, "M": 1}},
		"r3": {Head: Multiset{}, Tail: Multiset{}},
	}
	rev := Reverse(table)

	assert.Equal(t, []string{"M", "P", "Q"}, rev.Labels())
	assert.Equal(t, SideCount{Head: 2, Tail: 1}, *rev["P"])
	assert.Equal(t, SideCount{Head: 1, Tail: 0}, *rev["Q"])
	assert.Equal(t, SideCount{Head: 0, Tail: 2}, *rev["M"])
}

func TestReverse_Coverage(t *testing.T) {
	agg := fold(t, SeedLegacy,
		rec("r1", "P", "M"),
		rec("r2", "P", "N"),
		rec("r3", "Q", "M"),
		rec("r2", "Q", "N"),
	)
	rev := Reverse(agg.Table)

	present := map[string]int{}
	for _, side := range agg.Table {
		for _, l := range side.Head.Labels() {
			present[l]++
			assert.GreaterOrEqual(t, rev[l].Head, 1)
		}
	}
	for l, n := range present {
		assert.Equal(t, n, rev[l].Head, "label %s", l)
	}
}

func TestReverse_EmptyTable(t *testing.T) {
	assert.Empty(t, Reverse(FrequencyTable{}))
}

// #endregion reverse-tests
