package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAttemptRepairNoPriorAttempt(t *testing.T) {
	s := newTestStore(t)

	ok, remaining := s.CanAttemptRepair(5*time.Minute, false)
	assert.True(t, ok)
	assert.Zero(t, remaining)
}

func TestCanAttemptRepairCooldown(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.Local)

	pinClock(s, base)
	require.NoError(t, s.MarkRepairAttempt())

	// Inside the window.
	pinClock(s, base.Add(100*time.Second))
	ok, remaining := s.CanAttemptRepair(300*time.Second, false)
	assert.False(t, ok)
	assert.Equal(t, 200*time.Second, remaining)

	// Exactly at the boundary: elapsed == cooldown counts as satisfied.
	pinClock(s, base.Add(300*time.Second))
	ok, remaining = s.CanAttemptRepair(300*time.Second, false)
	assert.True(t, ok)
	assert.Zero(t, remaining)

	// One second short.
	pinClock(s, base.Add(299*time.Second))
	ok, remaining = s.CanAttemptRepair(300*time.Second, false)
	assert.False(t, ok)
	assert.Equal(t, time.Second, remaining)
}

func TestCanAttemptRepairForceIgnoresCooldown(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.Local)

	pinClock(s, base)
	require.NoError(t, s.MarkRepairAttempt())

	pinClock(s, base.Add(time.Second))
	ok, _ := s.CanAttemptRepair(time.Hour, true)
	assert.True(t, ok)
}

func TestCanAttemptAIQuota(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 23, 9, 0, 0, 0, time.Local)
	pinClock(s, base)

	// Cooldown zero isolates the quota.
	for i := 0; i < 2; i++ {
		ok, err := s.CanAttemptAI(2, 0)
		require.NoError(t, err)
		require.True(t, ok, "attempt %d should be allowed", i+1)
		require.NoError(t, s.MarkAIAttempt())
	}

	ok, err := s.CanAttemptAI(2, 0)
	require.NoError(t, err)
	assert.False(t, ok, "third attempt must be denied by the daily quota")
}

func TestCanAttemptAICooldown(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 23, 9, 0, 0, 0, time.Local)

	pinClock(s, base)
	require.NoError(t, s.MarkAIAttempt())

	pinClock(s, base.Add(30*time.Minute))
	ok, err := s.CanAttemptAI(10, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "inside the AI cooldown")

	pinClock(s, base.Add(time.Hour))
	ok, err = s.CanAttemptAI(10, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "elapsed == cooldown is satisfied")
}

func TestCanAttemptAIDayRollover(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2026, 8, 22, 23, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 8, 23, 1, 0, 0, 0, time.Local)

	pinClock(s, day1)
	require.NoError(t, s.MarkAIAttempt())
	require.NoError(t, s.MarkAIAttempt())

	ok, err := s.CanAttemptAI(2, 0)
	require.NoError(t, err)
	require.False(t, ok, "budget exhausted on day one")

	// First access after midnight resets the counter.
	pinClock(s, day2)
	ok, err = s.CanAttemptAI(2, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	st := s.Load()
	require.NotNil(t, st.AIAttemptsDay)
	assert.Equal(t, "2026-08-23", *st.AIAttemptsDay, "rollover must be persisted")
	assert.Equal(t, 0, st.AIAttemptsCount)
}

func TestCanAttemptAIRolloverPersistsEvenWhenDenied(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2026, 8, 22, 23, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 8, 23, 1, 0, 0, 0, time.Local)

	pinClock(s, day1)
	require.NoError(t, s.MarkAIAttempt())

	pinClock(s, day2)
	ok, err := s.CanAttemptAI(0, 0)
	require.NoError(t, err)
	assert.False(t, ok, "quota of zero always denies")

	st := s.Load()
	require.NotNil(t, st.AIAttemptsDay)
	assert.Equal(t, "2026-08-23", *st.AIAttemptsDay)
	assert.Equal(t, 0, st.AIAttemptsCount)
}

func TestMarkAIAttemptRollsDayOver(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2026, 8, 22, 23, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 8, 23, 1, 0, 0, 0, time.Local)

	pinClock(s, day1)
	require.NoError(t, s.MarkAIAttempt())
	require.NoError(t, s.MarkAIAttempt())
	assert.Equal(t, 2, s.Load().AIAttemptsCount)

	pinClock(s, day2)
	require.NoError(t, s.MarkAIAttempt())

	st := s.Load()
	assert.Equal(t, 1, st.AIAttemptsCount, "new day starts a fresh count")
	require.NotNil(t, st.LastAITs)
	assert.Equal(t, day2.Unix(), *st.LastAITs)
}
