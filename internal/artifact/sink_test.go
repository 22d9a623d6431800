package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_SortedKeysAndNoHTMLEscape(t *testing.T) {
	data, err := Encode(map[string]int{"b": 2, "a<b": 1}, false)
	require.NoError(t, err)
	assert.Equal(t, "{\"a<b\":1,\"b\":2}\n", string(data))
}

func TestEncode_Indent(t *testing.T) {
	data, err := Encode(map[string]int{"a": 1}, true)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))
}

func TestDirSink_WritesFile(t *testing.T) {
	dir := t.TempDir()
	s := &DirSink{Dir: dir}

	require.NoError(t, s.Write("rel_counter.json", map[string]int{"r1": 2}))

	data, err := os.ReadFile(filepath.Join(dir, "rel_counter.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"r1":2}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not linger")
}

func TestDirSink_Overwrites(t *testing.T) {
	dir := t.TempDir()
	s := &DirSink{Dir: dir}
	require.NoError(t, s.Write("a.json", []int{1}))
	require.NoError(t, s.Write("a.json", []int{2}))

	data, err := os.ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[2]`, string(data))
}

func TestDirSink_MissingDir(t *testing.T) {
	s := &DirSink{Dir: filepath.Join(t.TempDir(), "nope")}
	assert.Error(t, s.Write("a.json", 1))
}

func TestDirSink_UnencodableValue(t *testing.T) {
	s := &DirSink{Dir: t.TempDir()}
	assert.Error(t, s.Write("a.json", make(chan int)))
}

func TestMemorySink(t *testing.T) {
	s := &MemorySink{}
	require.NoError(t, s.Write("b.json", 2))
	require.NoError(t, s.Write("a.json", 1))

	assert.Equal(t, []string{"a.json", "b.json"}, s.Names())
	data, ok := s.Get("a.json")
	require.True(t, ok)
	assert.Equal(t, "1\n", string(data))

	_, ok = s.Get("c.json")
	assert.False(t, ok)
}
