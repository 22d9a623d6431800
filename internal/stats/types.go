package stats

import (
	"sort"
	"strings"
)

// #region label-set

// LabelSet is a sorted set of type labels.
type LabelSet []string

// ParseLabels splits a comma-joined type annotation. Duplicates collapse and
// empty segments are dropped, so "" yields the empty set.
func ParseLabels(s string) LabelSet {
	if s == "" {
		return LabelSet{}
	}
	seen := make(map[string]bool)
	var out LabelSet
	for _, part := range strings.Split(s, ",") {
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	sort.Strings(out)
	if out == nil {
		return LabelSet{}
	}
	return out
}

// Contains reports whether l is a member.
func (s LabelSet) Contains(l string) bool {
	i := sort.SearchStrings(s, l)
	return i < len(s) && s[i] == l
}

// Intersect returns the labels present in both sets.
func (s LabelSet) Intersect(o LabelSet) LabelSet {
	out := LabelSet{}
	for _, l := range s {
		if o.Contains(l) {
			out = append(out, l)
		}
	}
	return out
}

// #endregion label-set

// #region multiset

// Multiset counts labels.
type Multiset map[string]int

// AddSet adds one to every member of labels.
func (m Multiset) AddSet(labels LabelSet) {
	for _, l := range labels {
		m[l]++
	}
}

// Has reports whether l has an entry.
func (m Multiset) Has(l string) bool {
	_, ok := m[l]
	return ok
}

// Count returns the count for l, zero when absent.
func (m Multiset) Count(l string) int {
	return m[l]
}

// Delete removes l. Absent labels are ignored.
func (m Multiset) Delete(l string) {
	delete(m, l)
}

// Labels returns the distinct labels, sorted.
func (m Multiset) Labels() []string {
	out := make([]string, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Len is the number of distinct labels.
func (m Multiset) Len() int {
	return len(m)
}

// #endregion multiset

// #region frequency-table

// SideTypes holds the head-side and tail-side type counts of one relation.
type SideTypes struct {
	Head Multiset `json:"head"`
	Tail Multiset `json:"tail"`
}

// FrequencyTable maps a relation label to its side type counts.
type FrequencyTable map[string]*SideTypes

// Relations returns the relation labels, sorted.
func (t FrequencyTable) Relations() []string {
	out := make([]string, 0, len(t))
	for r := range t {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// SideCount is a head/tail pair of integers. It is used for distinct-type
// counts per relation and for relation counts per type.
type SideCount struct {
	Head int `json:"head"`
	Tail int `json:"tail"`
}

// ReverseMap maps a type label to the number of relations it appears in,
// per side.
type ReverseMap map[string]*SideCount

// Labels returns the type labels, sorted.
func (m ReverseMap) Labels() []string {
	out := make([]string, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// #endregion frequency-table
