package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/hupe1980/agentmind/core"
	"github.com/hupe1980/agentmind/jsonl"
	"github.com/hupe1980/agentmind/logging"
	"github.com/hupe1980/agentmind/model"
)

// DefaultKind is the record kind assigned when the caller does not pick one.
const DefaultKind = "observation"

// Options configures a memory Ledger.
type Options struct {
	Logger logging.Logger
}

// Ledger stores embedded text snippets and serves decay-weighted search
// over them. Safe for concurrent use; the backing store serializes writes.
type Ledger struct {
	store    *jsonl.Store[core.MemoryRecord]
	embedder model.Embedder
	logger   logging.Logger
}

// NewLedger creates a memory ledger backed by the jsonl file at path,
// ensuring the backing file exists.
func NewLedger(path string, embedder model.Embedder, optFns ...func(o *Options)) (*Ledger, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	store := jsonl.NewStore[core.MemoryRecord](path)
	if err := store.Ensure(); err != nil {
		return nil, err
	}
	opts.Logger.Info("Memory storage ready", "path", store.Path())
	return &Ledger{store: store, embedder: embedder, logger: opts.Logger}, nil
}

// AddOptions configures a single Add call.
type AddOptions struct {
	Kind       string
	Importance float64
	Tags       []string
	Embed      bool
}

// Add appends a new memory record. The text is embedded unless disabled via
// options; an embedding failure is logged and the record is stored without
// a vector (its search similarity becomes zero, not an error). Storage
// failures propagate.
func (l *Ledger) Add(ctx context.Context, text string, optFns ...func(o *AddOptions)) (core.MemoryRecord, error) {
	opts := AddOptions{Kind: DefaultKind, Importance: 0.5, Embed: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	var embedding []float64
	if opts.Embed {
		vec, err := l.embedder.Embed(ctx, text)
		if err != nil {
			l.logger.Error("Embedding failed", "error", err)
		} else {
			embedding = vec
		}
	}

	tags := opts.Tags
	if tags == nil {
		tags = []string{}
	}
	rec := core.MemoryRecord{
		ID:         core.NewID(),
		Timestamp:  time.Now().UTC(),
		Kind:       opts.Kind,
		Text:       text,
		Importance: opts.Importance,
		Embedding:  embedding,
		Tags:       tags,
	}
	if err := l.store.Append(rec); err != nil {
		return core.MemoryRecord{}, err
	}
	return rec, nil
}

// List returns the last limit records, oldest-to-newest order preserved.
// limit <= 0 returns everything.
func (l *Ledger) List(limit int) ([]core.MemoryRecord, error) {
	recs, err := l.store.All()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return recs, nil
}

// Clear empties the ledger.
func (l *Ledger) Clear() error {
	if err := l.store.Clear(); err != nil {
		return err
	}
	l.logger.Warn("Memory storage cleared")
	return nil
}

// ScoredRecord pairs a memory record with its search score.
type ScoredRecord struct {
	Record core.MemoryRecord
	Score  float64
}

// SearchOptions configures a single Search call.
type SearchOptions struct {
	TopK              int
	DecayHalfLifeDays float64
}

// Search embeds the query and ranks every stored record by
//
//	cosine(query, record) * (0.2 + 0.8*importance) * 0.5^(age_days/half_life)
//
// Records without an embedding score zero on the similarity term but remain
// in the candidate set. The sort is stable, so equal scores keep append
// order. A query embedding failure is logged and yields an empty result,
// not an error; storage failures propagate.
func (l *Ledger) Search(ctx context.Context, query string, optFns ...func(o *SearchOptions)) ([]ScoredRecord, error) {
	opts := SearchOptions{TopK: 5, DecayHalfLifeDays: 30}
	for _, fn := range optFns {
		fn(&opts)
	}

	queryVec, err := l.embedder.Embed(ctx, query)
	if err != nil {
		l.logger.Error("Query embedding failed", "error", err)
		return []ScoredRecord{}, nil
	}

	recs, err := l.store.All()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	results := make([]ScoredRecord, 0, len(recs))
	for _, rec := range recs {
		sim := Cosine(queryVec, rec.Embedding)
		ageDays := math.Max(0, now.Sub(rec.Timestamp).Hours()/24)
		score := sim * (0.2 + 0.8*rec.Importance) * Decay(ageDays, opts.DecayHalfLifeDays)
		results = append(results, ScoredRecord{Record: rec, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

// Decay returns the exponential age factor 0.5^(ageDays/halfLifeDays). The
// half-life is floored at 0.1 days to avoid division blowups.
func Decay(ageDays, halfLifeDays float64) float64 {
	return math.Pow(0.5, ageDays/math.Max(halfLifeDays, 0.1))
}

// Cosine computes the cosine similarity of two vectors. Vectors of
// differing length are truncated to the shorter length; this is documented
// lossy behavior, not an error. Absent or zero-norm vectors yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
