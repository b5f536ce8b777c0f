// Package monologue runs the agent's background inner voice: a periodic
// task that reads the current self-state and recent memories, asks the
// completion capability for a short note plus any new goals, and writes the
// results back to the memory and self-model ledgers.
//
// The runner owns an explicit Start/Stop lifecycle independent of any
// server framework. Ticks are spaced by a fixed interval measured from tick
// completion, so a slow tick delays the next wake rather than overlapping it.
package monologue

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentmind/core"
	"github.com/hupe1980/agentmind/extract"
	"github.com/hupe1980/agentmind/logging"
	"github.com/hupe1980/agentmind/memory"
	"github.com/hupe1980/agentmind/model"
	"github.com/hupe1980/agentmind/selfmodel"
)

// DefaultSystemPrompt instructs the model to answer as the agent's inner voice.
const DefaultSystemPrompt = "You are the agent's inner voice. Produce STRICT JSON with keys: " +
	"note (string), new_goals (array of strings), tags (array of strings). " +
	"Be brief, 1-2 sentences max in 'note'."

const (
	// minInterval floors the wait between ticks regardless of configuration.
	minInterval = 60 * time.Second

	noteImportance  = 0.6
	noteKind        = "monologue"
	memoryScanLimit = 200
	maxFallbackNote = 200
)

// Options configures a Runner.
type Options struct {
	// Interval between tick completions; floored at one minute.
	Interval time.Duration
	// TopKMemories is how many recent memories feed each tick (default 5).
	TopKMemories int
	// SystemPrompt overrides DefaultSystemPrompt when non-empty.
	SystemPrompt string
	Logger       logging.Logger
}

// Runner is the background monologue scheduler. It moves between exactly
// two states, Stopped and Running; Start and Stop are idempotent.
type Runner struct {
	completer model.Completer
	memory    *memory.Ledger
	self      *selfmodel.Ledger
	opts      Options

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewRunner constructs a stopped Runner over the given capability and ledgers.
func NewRunner(completer model.Completer, mem *memory.Ledger, self *selfmodel.Ledger, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Interval:     10 * time.Minute,
		TopKMemories: 5,
		SystemPrompt: DefaultSystemPrompt,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TopKMemories <= 0 {
		opts.TopKMemories = 5
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Runner{completer: completer, memory: mem, self: self, opts: opts}
}

// Start launches the periodic loop. Calling Start on a running Runner is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	go r.loop(ctx, r.done)
	r.opts.Logger.Info("Monologue started", "interval", r.interval())
}

// Stop requests cooperative cancellation and waits until the loop has
// exited, including any in-flight tick. Calling Stop on a stopped Runner is
// a no-op.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel, done := r.cancel, r.done
	r.running = false
	r.mu.Unlock()

	cancel()
	<-done
	r.opts.Logger.Info("Monologue stopped")
}

// Running reports whether the loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// interval returns the wait between tick completions, floored at one minute.
func (r *Runner) interval() time.Duration {
	if r.opts.Interval < minInterval {
		return minInterval
	}
	return r.opts.Interval
}

// loop ticks, then waits the interval measured from tick completion.
// Cancellation interrupts the wait and terminates without starting another
// tick; every other tick error is logged and the loop continues.
func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		if err := r.tick(ctx); err != nil && ctx.Err() == nil {
			r.opts.Logger.Error("Monologue tick error", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.interval()):
		}
	}
}

// tickPayload is the user message body, field order fixed for deterministic
// prompts.
type tickPayload struct {
	Self     *core.SelfState `json:"self"`
	Memories []memoryContext `json:"memories"`
}

type memoryContext struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Text       string   `json:"text"`
	Importance float64  `json:"importance"`
	Tags       []string `json:"tags"`
}

// tick performs one monologue pass. A completion failure is logged and the
// tick's writes are skipped entirely, leaving no partial state. An empty
// note likewise writes nothing. Storage failures propagate to the loop.
func (r *Runner) tick(ctx context.Context) error {
	current, err := r.self.CurrentState()
	if err != nil {
		return err
	}
	recent, err := r.memory.List(memoryScanLimit)
	if err != nil {
		return err
	}
	if len(recent) > r.opts.TopKMemories {
		recent = recent[len(recent)-r.opts.TopKMemories:]
	}

	raw, err := r.completer.Complete(ctx, r.buildPrompt(current, recent))
	if err != nil {
		r.opts.Logger.Error("Monologue LLM failed", "error", err)
		return nil
	}

	note, newGoals, tags := parseTick(raw)
	if note == "" {
		return nil
	}

	if _, err := r.memory.Add(ctx, note, func(o *memory.AddOptions) {
		o.Kind = noteKind
		o.Importance = noteImportance
		o.Tags = tags
	}); err != nil {
		return err
	}

	var goals []string
	var emotions map[string]float64
	var existingTags []string
	if current != nil {
		goals = append(goals, current.Goals...)
		emotions = current.Emotions
		existingTags = current.Tags
	}
	for _, g := range newGoals {
		if !containsString(goals, g) {
			goals = append(goals, g)
		}
	}

	_, err = r.self.RecordState(core.SelfState{
		Goals:     goals,
		Emotions:  emotions,
		SelfNotes: note,
		Tags:      core.MergeTags(existingTags, tags),
	})
	return err
}

// parseTick extracts note, new goals and tags from raw model output,
// falling back to a truncated-raw note when no JSON object is present.
func parseTick(raw string) (note string, newGoals, tags []string) {
	parsed, ok := extract.Object(raw)
	if !ok {
		return extract.Truncate(strings.TrimSpace(raw), maxFallbackNote), []string{}, []string{}
	}
	note = strings.TrimSpace(extract.String(parsed["note"]))
	newGoals = extract.StringList(parsed["new_goals"], 0)
	tags = extract.StringList(parsed["tags"], 0)
	return note, newGoals, tags
}

func (r *Runner) buildPrompt(current *core.SelfState, memories []core.MemoryRecord) []core.Message {
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
	payload, _ := json.Marshal(tickPayload{Self: current, Memories: relevant})
	return []core.Message{
		core.SystemMessage(r.opts.SystemPrompt),
		core.UserMessage(string(payload)),
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
