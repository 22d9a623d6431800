package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Discover lists the regular files in dir whose names match pattern, sorted
// by name. Names for which skip reports true are left out so that artifacts
// written next to the corpus are never read back as partitions. skip may be nil.
func Discover(dir, pattern string, skip func(name string) bool) ([]string, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile partition glob %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LocationError{Kind: ErrIO, Location: dir, Index: -1, Err: err}
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !g.Match(name) || (skip != nil && skip(name)) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no partitions in %s match %q", dir, pattern)
	}
	return paths, nil
}
