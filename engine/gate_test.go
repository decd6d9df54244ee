package engine

import (
	"testing"
	"time"

	"github.com/openagora/agora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanWakeRespectsActiveFlagAndMode(t *testing.T) {
	gate := NewPolicyGate(newTestStore(t), nopLogger())
	now := time.Now()

	agent := testAgent("a1")
	assert.True(t, gate.CanWake(agent, now, false))

	agent.AutonomyMode = core.AutonomyManual
	assert.False(t, gate.CanWake(agent, now, false))
	assert.True(t, gate.CanWake(agent, now, true)) // forced bypasses autonomy mode

	agent.IsActive = false
	assert.False(t, gate.CanWake(agent, now, false))
	assert.False(t, gate.CanWake(agent, now, true)) // but never the active flag
}

func TestCanWakeActiveHoursWindow(t *testing.T) {
	gate := NewPolicyGate(newTestStore(t), nopLogger())
	agent := testAgent("a1")
	agent.ActiveHoursStart = "09:00"
	agent.ActiveHoursEnd = "17:00"

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.False(t, gate.CanWake(agent, day.Add(8*time.Hour+59*time.Minute), false))
	assert.True(t, gate.CanWake(agent, day.Add(9*time.Hour), false)) // inclusive start
	assert.True(t, gate.CanWake(agent, day.Add(16*time.Hour+59*time.Minute), false))
	assert.False(t, gate.CanWake(agent, day.Add(17*time.Hour), false)) // exclusive end

	// Forced wakes ignore the window.
	assert.True(t, gate.CanWake(agent, day.Add(3*time.Hour), true))

	// Malformed hours fail open.
	agent.ActiveHoursStart = "nonsense"
	assert.True(t, gate.CanWake(agent, day.Add(3*time.Hour), false))
}

func TestCanWakeCooldown(t *testing.T) {
	gate := NewPolicyGate(newTestStore(t), nopLogger())
	now := time.Now()
	agent := testAgent("a1")

	recent := now.Add(-10 * time.Second)
	agent.LastWakeTime = &recent
	assert.False(t, gate.CanWake(agent, now, false))
	assert.True(t, gate.CanWake(agent, now, true)) // forced ignores cooldown

	stale := now.Add(-2 * time.Minute)
	agent.LastWakeTime = &stale
	assert.True(t, gate.CanWake(agent, now, false))

	gate.SetCooldown(5 * time.Minute)
	assert.False(t, gate.CanWake(agent, now, false))
}

func TestCheckBudgetExhausted(t *testing.T) {
	gate := NewPolicyGate(newTestStore(t), nopLogger())
	agent := testAgent("a1")
	agent.DailyBudget = 0.50
	agent.DailySpent = 0.50

	dec, err := gate.CheckBudgetAndRate(agent, time.Now())
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, ReasonBudget, dec.Reason)
	assert.NotEmpty(t, dec.Message)
}

func TestCheckHourlyRateLimit(t *testing.T) {
	store := newTestStore(t)
	gate := NewPolicyGate(store, nopLogger())
	now := time.Now().UTC()

	agent := testAgent("a1")
	agent.MaxPostsPerHour = 2

	// One recent post: still allowed.
	seedPost(t, store, "p1", agent.ID, "", now.Add(-30*time.Minute))
	dec, err := gate.CheckBudgetAndRate(agent, now)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	// Second post inside the window trips the limit; replies count too.
	seedPost(t, store, "r1", agent.ID, "p1", now.Add(-10*time.Minute))
	dec, err = gate.CheckBudgetAndRate(agent, now)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, ReasonRateLimit, dec.Reason)

	// Posts older than an hour fall out of the sliding window.
	agent2 := testAgent("a2")
	agent2.MaxPostsPerHour = 1
	seedPost(t, store, "old", agent2.ID, "", now.Add(-2*time.Hour))
	dec, err = gate.CheckBudgetAndRate(agent2, now)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestCheckRateUnlimitedWhenUnset(t *testing.T) {
	store := newTestStore(t)
	gate := NewPolicyGate(store, nopLogger())
	now := time.Now().UTC()

	agent := testAgent("a1")
	for i := 0; i < 5; i++ {
		seedPost(t, store, "p"+string(rune('0'+i)), agent.ID, "", now.Add(-time.Duration(i)*time.Minute))
	}

	dec, err := gate.CheckBudgetAndRate(agent, now)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}
