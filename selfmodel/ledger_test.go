package selfmodel

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/agentmind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	led, err := NewLedger(filepath.Join(t.TempDir(), "self_model", "mental_states.jsonl"))
	require.NoError(t, err)
	return led
}

func TestRecordState_StampsAndNormalizes(t *testing.T) {
	led := newTestLedger(t)

	state, err := led.RecordState(core.SelfState{SelfNotes: "note"})
	require.NoError(t, err)
	assert.False(t, state.Timestamp.IsZero())
	assert.Equal(t, []string{}, state.Goals)
	assert.Equal(t, map[string]float64{}, state.Emotions)
	assert.Equal(t, []string{}, state.Tags)
}

func TestRecordState_KeepsExplicitTimestamp(t *testing.T) {
	led := newTestLedger(t)

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	state, err := led.RecordState(core.SelfState{Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, ts, state.Timestamp)
}

func TestCurrentState(t *testing.T) {
	led := newTestLedger(t)

	current, err := led.CurrentState()
	require.NoError(t, err)
	assert.Nil(t, current, "empty ledger has no current state")

	_, err = led.RecordState(core.SelfState{SelfNotes: "first"})
	require.NoError(t, err)
	_, err = led.RecordState(core.SelfState{SelfNotes: "second"})
	require.NoError(t, err)

	current, err = led.CurrentState()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "second", current.SelfNotes)
}

func TestHistoryLimitAndClear(t *testing.T) {
	led := newTestLedger(t)

	for _, note := range []string{"a", "b", "c"} {
		_, err := led.RecordState(core.SelfState{SelfNotes: note})
		require.NoError(t, err)
	}

	recs, err := led.History(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].SelfNotes)
	assert.Equal(t, "c", recs[1].SelfNotes)

	recs, err = led.History(0)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	require.NoError(t, led.Clear())
	recs, err = led.History(0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
