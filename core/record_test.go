package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, MergeTags([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, []string{"a"}, MergeTags(nil, []string{"a", "a"}))
	assert.Equal(t, []string{}, MergeTags(nil, nil))
	assert.Equal(t, []string{"A", "a"}, MergeTags([]string{"A"}, []string{"a"}), "tags are case sensitive")
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusInProgress, StatusDone, StatusDiscarded} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("finished"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("Pending"))
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestHypothesisRecordJSONShape(t *testing.T) {
	conf := 0.3
	rec := HypothesisRecord{
		ID:         "id-1",
		Title:      "t",
		Status:     StatusPending,
		Priority:   3,
		Confidence: 0.5,
		DerivedFrom: DerivedFrom{
			LastUserMessage:      "q",
			ReflectionConfidence: &conf,
		},
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "expected_signal")
	assert.Contains(t, m, "derived_from")
	df, ok := m["derived_from"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.3, df["reflection_confidence"])
}

func TestSourceOmitsEmptyText(t *testing.T) {
	data, err := json.Marshal(Source{File: "f", Page: "1"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "text")

	data, err = json.Marshal(Source{File: "f", Page: "1", Text: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text":"x"`)
}
