package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/reltypes/internal/store"
)

func testStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	s, err := store.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	rec, err := s.BeginRun("/data/nyt", "legacy", "{}")
	require.NoError(t, err)
	return s, rec.RunID
}

func TestLogStage_RoundTrip(t *testing.T) {
	s, runID := testStore(t)

	require.NoError(t, LogStage(s.DB(), StageEntry{
		RunID:   runID,
		Stage:   "pass1",
		Status:  "ok",
		Records: 4,
		Elapsed: 1500 * time.Millisecond,
	}))
	require.NoError(t, LogStage(s.DB(), StageEntry{
		RunID:  runID,
		Stage:  "resolve",
		Status: "failed",
		Detail: "test.json: relation not in table",
	}))

	entries, err := ListStages(s.DB(), runID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "pass1", entries[0].Stage)
	assert.Equal(t, 4, entries[0].Records)
	assert.Equal(t, 1500*time.Millisecond, entries[0].Elapsed)
	assert.Empty(t, entries[0].Detail)
	assert.False(t, entries[0].CreatedAt.IsZero())

	assert.Equal(t, "resolve", entries[1].Stage)
	assert.Equal(t, "failed", entries[1].Status)
	assert.Equal(t, "test.json: relation not in table", entries[1].Detail)
}

func TestLogStage_UnknownRunRejected(t *testing.T) {
	s, _ := testStore(t)
	err := LogStage(s.DB(), StageEntry{RunID: "missing", Stage: "pass1", Status: "ok"})
	assert.Error(t, err)
}

func TestListStages_Empty(t *testing.T) {
	s, runID := testStore(t)
	entries, err := ListStages(s.DB(), runID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "json", &buf)
	require.NoError(t, err)

	logger.Debug("pass complete", "records", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "pass complete", line["msg"])
	assert.Equal(t, float64(3), line["records"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", "text", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", "text", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}
