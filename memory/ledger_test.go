package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/hupe1980/agentmind/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, embedder model.Embedder) *Ledger {
	t.Helper()
	led, err := NewLedger(filepath.Join(t.TempDir(), "memory", "memory.jsonl"), embedder)
	require.NoError(t, err)
	return led
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical vectors", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"nil a", nil, []float64{1, 2}, 0.0},
		{"nil b", []float64{1, 2}, nil, 0.0},
		{"zero norm", []float64{0, 0}, []float64{1, 2}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-12)
		})
	}
}

func TestCosine_DifferingLengthTruncates(t *testing.T) {
	// both truncated to length 2, then identical
	got := Cosine([]float64{1, 2, 99, 98}, []float64{1, 2})
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestDecay(t *testing.T) {
	assert.InDelta(t, 1.0, Decay(0, 30), 1e-12)
	assert.InDelta(t, 0.5, Decay(30, 30), 1e-12, "exactly half at one half-life")
	assert.InDelta(t, 0.25, Decay(60, 30), 1e-12)

	// strictly decreasing in age
	prev := math.Inf(1)
	for age := 0.0; age <= 120; age += 7.5 {
		d := Decay(age, 30)
		assert.Less(t, d, prev)
		prev = d
	}

	// half-life floored, no blowup
	assert.False(t, math.IsNaN(Decay(1, 0)))
}

func TestLedger_AddThenListPreservesOrder(t *testing.T) {
	led := newTestLedger(t, model.NewMockEmbedder(4))
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_, err := led.Add(ctx, fmt.Sprintf("note %d", i))
		require.NoError(t, err)
	}

	recs, err := led.List(4)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	for i, rec := range recs {
		assert.Equal(t, fmt.Sprintf("note %d", i+2), rec.Text)
	}
}

func TestLedger_AddAppliesDefaults(t *testing.T) {
	led := newTestLedger(t, model.NewMockEmbedder(4))
	rec, err := led.Add(context.Background(), "hello")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, DefaultKind, rec.Kind)
	assert.Equal(t, 0.5, rec.Importance)
	assert.NotNil(t, rec.Tags)
	assert.Len(t, rec.Embedding, 4)
}

func TestLedger_AddWithoutEmbedding(t *testing.T) {
	led := newTestLedger(t, model.NewMockEmbedder(4))
	rec, err := led.Add(context.Background(), "plain", func(o *AddOptions) { o.Embed = false })
	require.NoError(t, err)
	assert.Nil(t, rec.Embedding)
}

func TestLedger_EmbeddingFailureStoresRecordWithoutVector(t *testing.T) {
	embedder := model.NewMockEmbedder(4)
	embedder.SetError(errors.New("backend down"))
	led := newTestLedger(t, embedder)

	rec, err := led.Add(context.Background(), "survives")
	require.NoError(t, err, "embedding failure must not fail the add")
	assert.Nil(t, rec.Embedding)

	recs, err := led.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Embedding)
}

func TestLedger_SearchRanksMatchingRecordFirst(t *testing.T) {
	embedder := model.NewMockEmbedder(4)
	led := newTestLedger(t, embedder)
	ctx := context.Background()

	_, err := led.Add(ctx, "something else entirely")
	require.NoError(t, err)
	_, err = led.Add(ctx, "ping", func(o *AddOptions) { o.Importance = 0.8 })
	require.NoError(t, err)

	results, err := led.Search(ctx, "ping")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "ping", results[0].Record.Text)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestLedger_SearchTopKAndOrdering(t *testing.T) {
	embedder := model.NewMockEmbedder(4)
	led := newTestLedger(t, embedder)
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		_, err := led.Add(ctx, fmt.Sprintf("memory %d", i))
		require.NoError(t, err)
	}

	results, err := led.Search(ctx, "memory 3", func(o *SearchOptions) { o.TopK = 3 })
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score, "scores must be non-increasing")
	}
}

func TestLedger_SearchStableOnTies(t *testing.T) {
	embedder := model.NewMockEmbedder(4)
	// zero-norm records all score exactly 0
	embedder.AddVector("a", []float64{0, 0, 0, 0})
	embedder.AddVector("b", []float64{0, 0, 0, 0})
	embedder.AddVector("c", []float64{0, 0, 0, 0})
	led := newTestLedger(t, embedder)
	ctx := context.Background()
	for _, text := range []string{"a", "b", "c"} {
		_, err := led.Add(ctx, text)
		require.NoError(t, err)
	}

	results, err := led.Search(ctx, "query")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Record.Text)
	assert.Equal(t, "b", results[1].Record.Text)
	assert.Equal(t, "c", results[2].Record.Text)
}

func TestLedger_SearchRecordWithoutEmbeddingScoresZero(t *testing.T) {
	embedder := model.NewMockEmbedder(4)
	led := newTestLedger(t, embedder)
	ctx := context.Background()
	_, err := led.Add(ctx, "unembedded", func(o *AddOptions) { o.Embed = false })
	require.NoError(t, err)

	results, err := led.Search(ctx, "unembedded")
	require.NoError(t, err)
	require.Len(t, results, 1, "record stays in the candidate set")
	assert.Zero(t, results[0].Score)
}

func TestLedger_SearchQueryEmbeddingFailureYieldsEmpty(t *testing.T) {
	embedder := model.NewMockEmbedder(4)
	led := newTestLedger(t, embedder)
	_, err := led.Add(context.Background(), "content")
	require.NoError(t, err)

	embedder.SetError(errors.New("backend down"))
	results, err := led.Search(context.Background(), "content")
	require.NoError(t, err, "query embedding failure is not an error")
	assert.Empty(t, results)
}

func TestLedger_ClearThenListIsEmpty(t *testing.T) {
	led := newTestLedger(t, model.NewMockEmbedder(4))
	_, err := led.Add(context.Background(), "gone soon")
	require.NoError(t, err)

	require.NoError(t, led.Clear())
	recs, err := led.List(0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
