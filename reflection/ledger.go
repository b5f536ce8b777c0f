// Package reflection implements per-turn introspection: after a chat turn,
// the completion capability is asked why the answer was given, which
// alternatives existed and which error patterns apply. Raw model output is
// untrusted; parsing degrades to documented fallback records and a record
// is appended for every reflected turn, failures included.
package reflection

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hupe1980/agentmind/core"
	"github.com/hupe1980/agentmind/extract"
	"github.com/hupe1980/agentmind/jsonl"
	"github.com/hupe1980/agentmind/logging"
	"github.com/hupe1980/agentmind/model"
)

const systemInstruction = "You are a concise introspection module. " +
	"Given a chat turn (user message, assistant answer, optional context sources), " +
	"output STRICT JSON with keys: why (string), alternatives (array of 1-3 short strings), " +
	"error_patterns (array of short strings), confidence (0..1). " +
	"Be brief, actionable, no markdown."

// internalErrorText stands in for model output when the completion
// capability itself failed. It parses like a regular reflection payload.
const internalErrorText = `{"why":"internal_error","alternatives":[],"error_patterns":["reflection_llm_failed"],"confidence":0.0}`

const (
	maxHistoryTurns = 6
	maxSources      = 4
	maxWhyLen       = 2000
	maxFallbackWhy  = 512
)

// TurnContext carries everything known about one completed chat turn.
type TurnContext struct {
	SystemPrompt      string
	LastUserMessage   string
	ChatHistory       []core.Message
	AssistantResponse string
	Sources           []core.Source
}

// Options configures a reflection Ledger.
type Options struct {
	Logger logging.Logger
}

// Ledger generates and stores structured introspection of chat turns.
type Ledger struct {
	store     *jsonl.Store[core.ReflectionRecord]
	completer model.Completer
	logger    logging.Logger
}

// NewLedger creates a reflection ledger backed by the jsonl file at path.
func NewLedger(path string, completer model.Completer, optFns ...func(o *Options)) (*Ledger, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	store := jsonl.NewStore[core.ReflectionRecord](path)
	if err := store.Ensure(); err != nil {
		return nil, err
	}
	opts.Logger.Info("Reflection storage ready", "path", store.Path())
	return &Ledger{store: store, completer: completer, logger: opts.Logger}, nil
}

// Reflect generates and persists the introspection of one turn. A
// completion failure degrades to an internal_error record with confidence
// 0; unparseable output degrades to a record whose why is the truncated raw
// text with confidence 0.5. A record is always appended; only a storage
// failure returns an error.
func (l *Ledger) Reflect(ctx context.Context, turn TurnContext) (core.ReflectionRecord, error) {
	raw, err := l.completer.Complete(ctx, l.buildPrompt(turn))
	if err != nil {
		l.logger.Error("Reflection LLM call failed", "error", err)
		raw = internalErrorText
	}

	history := turn.ChatHistory
	if history == nil {
		history = []core.Message{}
	}
	rec := core.ReflectionRecord{
		Timestamp:         time.Now().UTC(),
		SystemPrompt:      turn.SystemPrompt,
		LastUserMessage:   turn.LastUserMessage,
		ChatHistory:       history,
		AssistantResponse: turn.AssistantResponse,
		Sources:           turn.Sources,
		Alternatives:      []string{},
		ErrorPatterns:     []string{},
	}

	if parsed, ok := extract.Object(raw); ok {
		rec.Why = extract.Truncate(extract.String(parsed["why"]), maxWhyLen)
		rec.Alternatives = extract.StringList(parsed["alternatives"], 5)
		rec.ErrorPatterns = extract.StringList(parsed["error_patterns"], 10)
		rec.Confidence = extract.Float(parsed["confidence"], 0.5)
	} else {
		rec.Why = extract.Truncate(strings.TrimSpace(raw), maxFallbackWhy)
		rec.Confidence = 0.5
	}

	if err := l.store.Append(rec); err != nil {
		return core.ReflectionRecord{}, err
	}
	return rec, nil
}

// Latest returns the most recent reflection, or nil if none exist.
func (l *Ledger) Latest() (*core.ReflectionRecord, error) {
	recs, err := l.store.All()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	last := recs[len(recs)-1]
	return &last, nil
}

// History returns the last limit reflections in append order.
func (l *Ledger) History(limit int) ([]core.ReflectionRecord, error) {
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
	l.logger.Warn("Reflection storage cleared")
	return nil
}

// promptSource is the reduced citation shape given to the model: file and
// page only, excerpts dropped.
type promptSource struct {
	File string `json:"file"`
	Page string `json:"page"`
}

// reflectionPayload is the user message body, field order fixed for
// deterministic prompts.
type reflectionPayload struct {
	SystemPrompt string         `json:"system_prompt"`
	User         string         `json:"user"`
	Assistant    string         `json:"assistant"`
	History      []core.Message `json:"history"`
	Sources      []promptSource `json:"sources"`
}

// buildPrompt truncates the turn context (last 6 history turns, first 4
// sources) and renders the two-message prompt.
func (l *Ledger) buildPrompt(turn TurnContext) []core.Message {
	history := turn.ChatHistory
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	if history == nil {
		history = []core.Message{}
	}

	sources := []promptSource{}
	for i, s := range turn.Sources {
		if i >= maxSources {
			break
		}
		sources = append(sources, promptSource{File: s.File, Page: s.Page})
	}

	payload, _ := json.Marshal(reflectionPayload{
		SystemPrompt: turn.SystemPrompt,
		User:         turn.LastUserMessage,
		Assistant:    turn.AssistantResponse,
		History:      history,
		Sources:      sources,
	})
	return []core.Message{
		core.SystemMessage(systemInstruction),
		core.UserMessage(string(payload)),
	}
}
