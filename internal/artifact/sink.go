package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// #region sink

// Sink persists named artifacts.
type Sink interface {
	Write(name string, v any) error
}

// Encode serializes v the way every sink does. Object keys come out sorted,
// so equal values always encode to equal bytes.
func Encode(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// #endregion sink

// #region dir-sink

// DirSink writes each artifact as a JSON file under Dir. Files are written
// to a temporary name first and renamed, so a failed run never leaves a
// truncated artifact behind under the final name.
type DirSink struct {
	Dir    string
	Indent bool
}

func (s *DirSink) Write(name string, v any) error {
	data, err := Encode(v, s.Indent)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}

	path := filepath.Join(s.Dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// #endregion dir-sink

// #region memory-sink

// MemorySink keeps encoded artifacts in memory.
type MemorySink struct {
	Indent bool

	mu    sync.Mutex
	files map[string][]byte
}

func (s *MemorySink) Write(name string, v any) error {
	data, err := Encode(v, s.Indent)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = data
	return nil
}

// Get returns the bytes written under name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Names lists the artifacts written so far, sorted.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for n := range s.files {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// #endregion memory-sink
