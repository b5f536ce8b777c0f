// Package agentmind provides a cognition layer for conversational agents:
// per-turn introspection (why an answer was given), decaying semantic
// memory, derived goals/hypotheses and a running self-state. Most
// applications interact with this package by:
//  1. Creating an AgentMind via New() with embedding and completion
//     capabilities (defaults are deterministic mocks for local development)
//  2. Wrapping their chat engine via NewChatService to trigger the
//     post-turn pipeline
//  3. Optionally starting the background monologue via Monologue().Start()
//
// AgentMind is the explicit composition root: every ledger and capability
// is constructed exactly once here and passed by reference into the
// orchestrator and the scheduler. There is no hidden global registry.
package agentmind

import (
	"path/filepath"
	"time"

	"github.com/hupe1980/agentmind/chat"
	"github.com/hupe1980/agentmind/hypothesis"
	"github.com/hupe1980/agentmind/logging"
	"github.com/hupe1980/agentmind/memory"
	"github.com/hupe1980/agentmind/model"
	"github.com/hupe1980/agentmind/monologue"
	"github.com/hupe1980/agentmind/reflection"
	"github.com/hupe1980/agentmind/selfmodel"
)

// Ledger file layout under DataDir. The paths are part of the storage
// contract and must not change without a migration.
const (
	memoryFile     = "memory/memory.jsonl"
	reflectionFile = "reflection/reflections.jsonl"
	hypothesisFile = "hypothesis/hypotheses.jsonl"
	selfModelFile  = "self_model/mental_states.jsonl"
)

// Options configures the AgentMind instance.
type Options struct {
	// DataDir is the root directory for all ledger files.
	DataDir string

	// Capabilities. Both default to deterministic mocks, suitable for
	// local development and tests only.
	Embedder  model.Embedder
	Completer model.Completer

	// AutoHypothesis enables hypothesis generation after low-confidence
	// reflections in the chat pipeline.
	AutoHypothesis bool
	// AutoThreshold is the reflection confidence below which a hypothesis
	// is generated.
	AutoThreshold float64

	// MonologueInterval is the wait between monologue tick completions
	// (floored at one minute by the runner).
	MonologueInterval time.Duration
	// MonologueTopK is how many recent memories feed each monologue tick.
	MonologueTopK int
	// MonologueSystemPrompt overrides the default inner-voice instruction.
	MonologueSystemPrompt string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentMind is the high-level façade aggregating the ledgers and the
// background monologue runner.
type AgentMind struct {
	opts       Options
	memory     *memory.Ledger
	reflection *reflection.Ledger
	hypothesis *hypothesis.Ledger
	selfModel  *selfmodel.Ledger
	monologue  *monologue.Runner
}

// New creates a new AgentMind instance with optional overrides, building
// every ledger over its file under DataDir. Construction fails only on
// storage errors.
func New(optFns ...func(o *Options)) (*AgentMind, error) {
	opts := Options{
		DataDir:           "local_data",
		Embedder:          model.NewMockEmbedder(0),
		Completer:         model.NewMockCompleter(),
		AutoThreshold:     0.6,
		MonologueInterval: 10 * time.Minute,
		MonologueTopK:     5,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	mem, err := memory.NewLedger(filepath.Join(opts.DataDir, memoryFile), opts.Embedder, func(o *memory.Options) {
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}
	refl, err := reflection.NewLedger(filepath.Join(opts.DataDir, reflectionFile), opts.Completer, func(o *reflection.Options) {
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}
	hyp, err := hypothesis.NewLedger(filepath.Join(opts.DataDir, hypothesisFile), opts.Completer, mem, func(o *hypothesis.Options) {
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}
	self, err := selfmodel.NewLedger(filepath.Join(opts.DataDir, selfModelFile), func(o *selfmodel.Options) {
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	runner := monologue.NewRunner(opts.Completer, mem, self, func(o *monologue.Options) {
		o.Interval = opts.MonologueInterval
		o.TopKMemories = opts.MonologueTopK
		o.SystemPrompt = opts.MonologueSystemPrompt
		o.Logger = opts.Logger
	})

	return &AgentMind{
		opts:       opts,
		memory:     mem,
		reflection: refl,
		hypothesis: hyp,
		selfModel:  self,
		monologue:  runner,
	}, nil
}

// Memory returns the memory ledger.
func (m *AgentMind) Memory() *memory.Ledger { return m.memory }

// Reflection returns the reflection ledger.
func (m *AgentMind) Reflection() *reflection.Ledger { return m.reflection }

// Hypothesis returns the hypothesis ledger.
func (m *AgentMind) Hypothesis() *hypothesis.Ledger { return m.hypothesis }

// SelfModel returns the self-model ledger.
func (m *AgentMind) SelfModel() *selfmodel.Ledger { return m.selfModel }

// Monologue returns the background monologue runner. Call Start to begin
// ticking and Stop (or Close) to shut it down.
func (m *AgentMind) Monologue() *monologue.Runner { return m.monologue }

// NewChatService wraps the given engine with the post-turn cognition pipeline.
func (m *AgentMind) NewChatService(engine chat.Engine) *chat.Service {
	return chat.NewService(engine, m.reflection, m.hypothesis, func(o *chat.Options) {
		o.AutoHypothesis = m.opts.AutoHypothesis
		o.AutoThreshold = m.opts.AutoThreshold
		o.Logger = m.opts.Logger
	})
}

// Close stops the monologue runner if it is running.
func (m *AgentMind) Close() {
	m.monologue.Stop()
}
