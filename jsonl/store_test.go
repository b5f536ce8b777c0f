package jsonl

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRec struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func newTestStore(t *testing.T) *Store[testRec] {
	t.Helper()
	return NewStore[testRec](filepath.Join(t.TempDir(), "sub", "records.jsonl"))
}

func TestStore_EnsureIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ensure())
	require.NoError(t, s.Ensure())

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestStore_AppendAndAllPreserveOrder(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(testRec{ID: fmt.Sprintf("id-%d", i), Text: "x"}))
	}

	recs, err := s.All()
	require.NoError(t, err)
	require.Len(t, recs, 5)
	for i, rec := range recs {
		assert.Equal(t, fmt.Sprintf("id-%d", i), rec.ID)
	}
}

func TestStore_AllOnMissingFile(t *testing.T) {
	s := newTestStore(t)
	recs, err := s.All()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_RewriteReplacesContents(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(testRec{ID: "a"}))
	require.NoError(t, s.Append(testRec{ID: "b"}))

	require.NoError(t, s.Rewrite([]testRec{{ID: "c"}}))

	recs, err := s.All()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "c", recs[0].ID)
}

func TestStore_ClearThenAllIsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(testRec{ID: "a"}))
	require.NoError(t, s.Clear())

	recs, err := s.All()
	require.NoError(t, err)
	assert.Empty(t, recs)

	// file stays present, zero length
	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestStore_CorruptLineIsAnError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(testRec{ID: "a"}))
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.All()
	var corrupt *CorruptRecordError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, 2, corrupt.Line)
}

func TestStore_ConcurrentAppendsDoNotInterleave(t *testing.T) {
	s := newTestStore(t)
	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Append(testRec{ID: fmt.Sprintf("id-%d", i), Text: "concurrent"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// every line must be a separately parseable record
	recs, err := s.All()
	require.NoError(t, err)
	require.Len(t, recs, writers)
	seen := map[string]bool{}
	for _, rec := range recs {
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}
}

func TestStore_UpdateUnchangedLeavesFileIdentical(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(testRec{ID: "a", Text: "one"}))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	require.NoError(t, s.Update(func(recs []testRec) ([]testRec, bool) {
		return recs, false
	}))

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_UpdateRewritesUnderLock(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(testRec{ID: "a", Text: "one"}))
	require.NoError(t, s.Append(testRec{ID: "b", Text: "two"}))

	require.NoError(t, s.Update(func(recs []testRec) ([]testRec, bool) {
		for i := range recs {
			if recs[i].ID == "b" {
				recs[i].Text = "changed"
				return recs, true
			}
		}
		return recs, false
	}))

	recs, err := s.All()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "one", recs[0].Text)
	assert.Equal(t, "changed", recs[1].Text)
}
