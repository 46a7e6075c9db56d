package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_OnOff(t *testing.T) {
	m := NewManager("suggestions_no_cache=on,feed_tracing=off")

	assert.True(t, m.Enabled("suggestions_no_cache", 1))
	assert.False(t, m.Enabled("feed_tracing", 1))
	assert.False(t, m.Enabled("unknown_flag", 1))
}

func TestManager_ValueAliases(t *testing.T) {
	m := NewManager("a=true,b=1,c=false,d=0")

	assert.True(t, m.Enabled("a", 1))
	assert.True(t, m.Enabled("b", 1))
	assert.False(t, m.Enabled("c", 1))
	assert.False(t, m.Enabled("d", 1))
}

func TestManager_MalformedPairsAreSkipped(t *testing.T) {
	m := NewManager("good=on,noequals,=on,empty=,bad=maybe")

	assert.True(t, m.Enabled("good", 1))
	assert.False(t, m.Enabled("noequals", 1))
	assert.False(t, m.Enabled("bad", 1))
	assert.Len(t, m.Snapshot(1), 1)
}

func TestManager_PercentRollout(t *testing.T) {
	m := NewManager("rollout=100%,none=0%")

	assert.True(t, m.Enabled("rollout", 1))
	assert.False(t, m.Enabled("none", 1))

	// Anonymous users never join a partial rollout.
	half := NewManager("rollout=50%")
	assert.False(t, half.Enabled("rollout", 0))
}

func TestManager_PercentRolloutIsDeterministic(t *testing.T) {
	m := NewManager("rollout=50%")

	for userID := uint(1); userID <= 20; userID++ {
		first := m.Enabled("rollout", userID)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, m.Enabled("rollout", userID))
		}
	}
}

func TestManager_NormalizesKeysAndValues(t *testing.T) {
	m := NewManager(" Suggestions_No_Cache = ON ")

	assert.True(t, m.Enabled("suggestions_no_cache", 1))
	assert.True(t, m.Enabled("SUGGESTIONS_NO_CACHE", 1))
}

func TestManager_NilIsDisabled(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled("anything", 1))
}
