package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func pinClock(s *Store, at time.Time) {
	s.now = func() time.Time { return at }
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)

	st := s.Load()
	assert.Nil(t, st.LastOKTs)
	assert.Nil(t, st.LastRepairTs)
	assert.Nil(t, st.LastAITs)
	assert.Nil(t, st.AIAttemptsDay)
	assert.Equal(t, 0, st.AIAttemptsCount)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	ok := int64(1700000000)
	rep := int64(1700000100)
	ai := int64(1700000200)
	day := "2026-08-23"
	in := State{
		LastOKTs:        &ok,
		LastRepairTs:    &rep,
		LastAITs:        &ai,
		AIAttemptsDay:   &day,
		AIAttemptsCount: 2,
	}
	require.NoError(t, s.Save(in))

	out := s.Load()
	require.NotNil(t, out.LastOKTs)
	assert.Equal(t, ok, *out.LastOKTs)
	require.NotNil(t, out.LastRepairTs)
	assert.Equal(t, rep, *out.LastRepairTs)
	require.NotNil(t, out.AIAttemptsDay)
	assert.Equal(t, day, *out.AIAttemptsDay)
	assert.Equal(t, 2, out.AIAttemptsCount)
}

func TestSaveWritesAllKeys(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(State{}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"last_ok_ts", "last_repair_ts", "last_ai_ts", "ai_attempts_day", "ai_attempts_count"} {
		assert.Contains(t, raw, key)
	}
	assert.Nil(t, raw["last_ok_ts"], "never-set timestamps persist as null")
}

func TestLoadCorruptFile(t *testing.T) {
	s := newTestStore(t)

	for _, content := range []string{"not json at all", `[1, 2, 3]`, `"just a string"`, ""} {
		require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0644))
		st := s.Load()
		assert.Equal(t, State{}, st, "content %q should load as zero state", content)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	s := newTestStore(t)

	// A stale temp file from a crashed earlier save must not interfere.
	tmp := s.Path() + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("garbage from a crash"), 0644))

	ts := int64(12345)
	require.NoError(t, s.Save(State{LastOKTs: &ts}))

	_, err := os.Stat(tmp)
	assert.True(t, os.IsNotExist(err), "temp file should be gone after save")

	out := s.Load()
	require.NotNil(t, out.LastOKTs)
	assert.Equal(t, ts, *out.LastOKTs)
}

func TestMarkOK(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2026, 8, 23, 10, 0, 0, 0, time.Local)
	pinClock(s, at)

	require.NoError(t, s.MarkOK())

	st := s.Load()
	require.NotNil(t, st.LastOKTs)
	assert.Equal(t, at.Unix(), *st.LastOKTs)
	assert.Nil(t, st.LastRepairTs, "MarkOK must not touch repair state")
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	s, err := NewStore(dir)
	require.NoError(t, err)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Equal(t, filepath.Join(dir, "state.json"), s.Path())
}
