package corpus

import (
	"encoding/json"
	"os"
	"sort"
)

// LoadRelationIDs reads a relation label -> integer id mapping.
func LoadRelationIDs(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LocationError{Kind: ErrIO, Location: path, Index: -1, Err: err}
	}
	var ids map[string]int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, &LocationError{Kind: ErrParse, Location: path, Index: -1, Err: err}
	}
	return ids, nil
}

// UnknownRelations lists the relations counted in the corpus that the id map
// does not know about, sorted.
func UnknownRelations(counts map[string]int, ids map[string]int) []string {
	var unknown []string
	for rel := range counts {
		if _, ok := ids[rel]; !ok {
			unknown = append(unknown, rel)
		}
	}
	sort.Strings(unknown)
	return unknown
}
