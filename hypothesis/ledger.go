// Package hypothesis implements generated goals and hypotheses: candidate
// plans derived from a chat turn, an optional low-confidence reflection and
// recent memories. Model output is aggressively normalized because the
// requested strict JSON routinely comes back as scalars, wrapped objects or
// annotated numbers. Status is the only field mutated after append, via a
// full-log rewrite.
package hypothesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentmind/core"
	"github.com/hupe1980/agentmind/extract"
	"github.com/hupe1980/agentmind/jsonl"
	"github.com/hupe1980/agentmind/logging"
	"github.com/hupe1980/agentmind/memory"
	"github.com/hupe1980/agentmind/model"
)

const systemInstruction = "You are a goal & hypothesis generator. " +
	"Given conversation turn, reflection and few memories, produce STRICT JSON with keys:\n" +
	"title (short goal/hypothesis), rationale, steps (array of 1-5 strings), expected_signal (array of 1-3 strings), " +
	"risks (array of 0-3 strings), confidence (number 0..1), priority (number 1..5), tags (array of strings).\n" +
	"CRITICAL: steps, expected_signal, risks, and tags MUST be arrays of strings, NEVER single values or objects.\n" +
	"Examples:\n" +
	"- steps: [\"step 1\", \"step 2\", \"step 3\"]\n" +
	"- expected_signal: [\"signal 1\", \"signal 2\"]\n" +
	"- risks: [\"risk 1\"]\n" +
	"- tags: [\"tag1\", \"tag2\"]\n" +
	"Be concise, practical, executable locally. No markdown."

const (
	maxSteps          = 5
	maxExpectedSignal = 3
	maxRisks          = 3
	maxParsedTags     = 10
	maxTitleLen       = 200
	maxRationaleLen   = 2000
	maxFallbackTitle  = 120

	memoryScanLimit  = 200
	defaultTopMemory = 5
)

// GenerateInput carries the turn context a hypothesis is derived from.
type GenerateInput struct {
	LastUserMessage   string
	AssistantResponse string
	Reflection        *core.ReflectionRecord
	TopMemoryLimit    int // defaults to 5 when <= 0
	Tags              []string
}

// Options configures a hypothesis Ledger.
type Options struct {
	Logger logging.Logger
}

// Ledger generates and stores hypotheses with mutable status.
type Ledger struct {
	store     *jsonl.Store[core.HypothesisRecord]
	completer model.Completer
	memory    *memory.Ledger
	logger    logging.Logger
}

// NewLedger creates a hypothesis ledger backed by the jsonl file at path.
func NewLedger(path string, completer model.Completer, mem *memory.Ledger, optFns ...func(o *Options)) (*Ledger, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	store := jsonl.NewStore[core.HypothesisRecord](path)
	if err := store.Ensure(); err != nil {
		return nil, err
	}
	opts.Logger.Info("Hypothesis storage ready", "path", store.Path())
	return &Ledger{store: store, completer: completer, memory: mem, logger: opts.Logger}, nil
}

// memoryContext is the reduced memory shape given to the model.
type memoryContext struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Text       string   `json:"text"`
	Importance float64  `json:"importance"`
	Tags       []string `json:"tags"`
}

// generatePayload is the user message body, field order fixed for
// deterministic prompts.
type generatePayload struct {
	LastUserMessage   string                 `json:"last_user_message"`
	AssistantResponse string                 `json:"assistant_response"`
	Reflection        *core.ReflectionRecord `json:"reflection"`
	RelevantMemories  []memoryContext        `json:"relevant_memories"`
}

// Generate asks the completion capability for a goal/hypothesis grounded in
// the turn, the optional reflection and the most recent memories, then
// appends the normalized result. A completion failure degrades to a fixed
// low-confidence llm_failed record; a record is always appended. Only
// storage failures return an error.
func (l *Ledger) Generate(ctx context.Context, in GenerateInput) (core.HypothesisRecord, error) {
	topLimit := in.TopMemoryLimit
	if topLimit <= 0 {
		topLimit = defaultTopMemory
	}
	memories, err := l.memory.List(memoryScanLimit)
	if err != nil {
		return core.HypothesisRecord{}, err
	}
	if len(memories) > topLimit {
		memories = memories[len(memories)-topLimit:]
	}

	var rec core.HypothesisRecord
	raw, err := l.completer.Complete(ctx, l.buildPrompt(in, memories))
	if err != nil {
		l.logger.Error("Hypothesis LLM call failed", "error", err)
		rec = l.fallbackRecord(in)
	} else {
		rec = l.parseRecord(raw, in)
	}

	if err := l.store.Append(rec); err != nil {
		return core.HypothesisRecord{}, err
	}
	return rec, nil
}

// parseRecord normalizes the raw model output into a hypothesis record.
// When no JSON object can be extracted the raw text becomes the title with
// type-appropriate defaults everywhere else.
func (l *Ledger) parseRecord(raw string, in GenerateInput) core.HypothesisRecord {
	rec := core.HypothesisRecord{
		ID:             core.NewID(),
		Timestamp:      time.Now().UTC(),
		Steps:          []string{},
		ExpectedSignal: []string{},
		Risks:          []string{},
		Confidence:     0.5,
		Priority:       3,
		Status:         core.StatusPending,
		DerivedFrom:    derivedFrom(in),
	}

	parsed, ok := extract.Object(raw)
	if !ok {
		rec.Title = extract.Truncate(strings.TrimSpace(raw), maxFallbackTitle)
		rec.Tags = core.MergeTags(in.Tags, nil)
		return rec
	}

	rec.Title = extract.Truncate(extract.String(parsed["title"]), maxTitleLen)
	if rec.Title == "" {
		rec.Title = "Untitled"
	}
	rec.Rationale = extract.Truncate(extract.String(parsed["rationale"]), maxRationaleLen)
	rec.Steps = extract.StringList(parsed["steps"], maxSteps)
	rec.ExpectedSignal = extract.StringList(parsed["expected_signal"], maxExpectedSignal)
	rec.Risks = extract.StringList(parsed["risks"], maxRisks)
	rec.Confidence = extract.Float(parsed["confidence"], 0.5)
	rec.Priority = extract.Priority(parsed["priority"], 3, 1, 5)
	rec.Tags = core.MergeTags(in.Tags, extract.StringList(parsed["tags"], maxParsedTags))
	return rec
}

// fallbackRecord is the fixed record appended when the completion
// capability itself failed.
func (l *Ledger) fallbackRecord(in GenerateInput) core.HypothesisRecord {
	return core.HypothesisRecord{
		ID:             core.NewID(),
		Timestamp:      time.Now().UTC(),
		Title:          "Fallback hypothesis",
		Rationale:      "llm_error",
		Steps:          []string{},
		ExpectedSignal: []string{},
		Risks:          []string{"llm_failed"},
		Confidence:     0,
		Priority:       5,
		Tags:           core.MergeTags(in.Tags, []string{"error"}),
		Status:         core.StatusPending,
		DerivedFrom:    derivedFrom(in),
	}
}

func derivedFrom(in GenerateInput) core.DerivedFrom {
	df := core.DerivedFrom{LastUserMessage: in.LastUserMessage}
	if in.Reflection != nil {
		conf := in.Reflection.Confidence
		df.ReflectionConfidence = &conf
	}
	return df
}

func (l *Ledger) buildPrompt(in GenerateInput, memories []core.MemoryRecord) []core.Message {
	relevant := make([]memoryContext, 0, len(memories))
	for _, m := range memories {
		relevant = append(relevant, memoryContext{
			ID:         m.ID,
			Kind:       m.Kind,
			Text:       m.Text,
			Importance: m.Importance,
			Tags:       m.Tags,
		})
	}
	payload, _ := json.Marshal(generatePayload{
		LastUserMessage:   in.LastUserMessage,
		AssistantResponse: in.AssistantResponse,
		Reflection:        in.Reflection,
		RelevantMemories:  relevant,
	})
	return []core.Message{
		core.SystemMessage(systemInstruction),
		core.UserMessage(string(payload)),
	}
}

// List returns the last limit hypotheses in append order.
func (l *Ledger) List(limit int) ([]core.HypothesisRecord, error) {
	recs, err := l.store.All()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return recs, nil
}

// UpdateStatus rewrites the log with the matching record's status replaced,
// leaving every other record byte-identical. Returns the updated record, or
// nil (and an untouched log) when id is unknown. The read-modify-write runs
// under the store's exclusive lock, so concurrent appends cannot be lost.
func (l *Ledger) UpdateStatus(id, status string) (*core.HypothesisRecord, error) {
	if !core.ValidStatus(status) {
		return nil, fmt.Errorf("hypothesis: invalid status %q", status)
	}
	var updated *core.HypothesisRecord
	err := l.store.Update(func(recs []core.HypothesisRecord) ([]core.HypothesisRecord, bool) {
		for i := range recs {
			if recs[i].ID == id {
				recs[i].Status = status
				rec := recs[i]
				updated = &rec
				return recs, true
			}
		}
		return recs, false
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Clear empties the ledger.
func (l *Ledger) Clear() error {
	if err := l.store.Clear(); err != nil {
		return err
	}
	l.logger.Warn("Hypothesis storage cleared")
	return nil
}
