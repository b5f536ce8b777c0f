package core

import "time"

// MemoryRecord is one embedded text snippet in the memory ledger. Embedding
// is nil when the embedding capability failed at write time; such records
// remain searchable but contribute zero similarity.
type MemoryRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text"`
	Importance float64   `json:"importance"`
	Embedding  []float64 `json:"embedding"`
	Tags       []string  `json:"tags"`
}

// ReflectionRecord is the structured introspection of one chat turn. One
// record is appended per reflected turn, including degraded turns where the
// model output could not be parsed.
type ReflectionRecord struct {
	Timestamp         time.Time `json:"timestamp"`
	SystemPrompt      string    `json:"system_prompt"`
	LastUserMessage   string    `json:"last_user_message"`
	ChatHistory       []Message `json:"chat_history"`
	AssistantResponse string    `json:"assistant_response"`
	Sources           []Source  `json:"sources"`
	Why               string    `json:"why"`
	Alternatives      []string  `json:"alternatives"`
	ErrorPatterns     []string  `json:"error_patterns"`
	Confidence        float64   `json:"confidence"`
}

// Hypothesis status values. Status is the only record field ever mutated
// after append, via a full-log rewrite.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusDiscarded  = "discarded"
)

// ValidStatus reports whether s is a recognized hypothesis status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusDiscarded:
		return true
	}
	return false
}

// DerivedFrom records the turn context a hypothesis was generated from.
// ReflectionConfidence is nil when no reflection participated.
type DerivedFrom struct {
	LastUserMessage      string   `json:"last_user_message"`
	ReflectionConfidence *float64 `json:"reflection_confidence"`
}

// HypothesisRecord is a generated goal/hypothesis with a minimal
// verification outline. Priority runs 1..5 with 1 highest.
type HypothesisRecord struct {
	ID             string      `json:"id"`
	Timestamp      time.Time   `json:"timestamp"`
	Title          string      `json:"title"`
	Rationale      string      `json:"rationale"`
	Steps          []string    `json:"steps"`
	ExpectedSignal []string    `json:"expected_signal"`
	Risks          []string    `json:"risks"`
	Confidence     float64     `json:"confidence"`
	Priority       int         `json:"priority"`
	Tags           []string    `json:"tags"`
	Status         string      `json:"status"`
	DerivedFrom    DerivedFrom `json:"derived_from"`
}

// SelfState is a snapshot of the agent's self-reported goals, emotions and
// notes. The current state is simply the most recently appended snapshot.
type SelfState struct {
	Timestamp time.Time          `json:"timestamp"`
	Goals     []string           `json:"goals"`
	Emotions  map[string]float64 `json:"emotions"`
	SelfNotes string             `json:"self_notes"`
	Tags      []string           `json:"tags"`
}

// MergeTags returns the union of two tag lists with duplicates removed,
// preserving first-seen order. Tags are never case-folded; "Test" and "test"
// stay distinct.
func MergeTags(existing, extra []string) []string {
	out := make([]string, 0, len(existing)+len(extra))
	seen := make(map[string]struct{}, len(existing)+len(extra))
	for _, lst := range [][]string{existing, extra} {
		for _, t := range lst {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
