// Package chat coordinates the post-turn cognition pipeline around an
// external chat engine. The engine (retrieval, routing, generation) is an
// excluded collaborator behind the Engine interface; this package wraps its
// batch and streaming calls, triggers reflection after every turn and
// conditionally triggers hypothesis generation when reflection confidence
// is low.
//
// The primary chat response must succeed independently of introspection
// health: every pipeline failure is caught and logged, never surfaced to
// the chat caller.
package chat

import (
	"context"
	"strings"

	"github.com/hupe1980/agentmind/core"
	"github.com/hupe1980/agentmind/extract"
	"github.com/hupe1980/agentmind/hypothesis"
	"github.com/hupe1980/agentmind/logging"
	"github.com/hupe1980/agentmind/reflection"
)

const (
	maxPipelineSources = 4
	maxSourceExcerpt   = 500
)

// Request is the normalized chat input. Messages follow the usual layout:
// optional leading system message, prior history, trailing user message.
type Request struct {
	Messages   []core.Message
	UseContext bool
}

// Completion is a finished batch response from the engine.
type Completion struct {
	Response string
	Sources  []core.Source
}

// StreamCompletion is a streaming response. Tokens yields response chunks
// in order and is closed by the producer when the stream is exhausted.
type StreamCompletion struct {
	Tokens  <-chan string
	Sources []core.Source
}

// Engine is the wrapped chat engine contract. Implementations are external
// collaborators (RAG chat engines, plain model frontends, test fakes).
type Engine interface {
	Chat(ctx context.Context, req Request) (*Completion, error)
	StreamChat(ctx context.Context, req Request) (*StreamCompletion, error)
}

// Options configures a chat Service.
type Options struct {
	// AutoHypothesis enables hypothesis generation after low-confidence
	// reflections.
	AutoHypothesis bool
	// AutoThreshold is the reflection confidence below which a hypothesis
	// is generated (default 0.6).
	AutoThreshold float64
	// TopMemoryLimit is passed through to hypothesis generation (default 5).
	TopMemoryLimit int
	Logger         logging.Logger
}

// Service wraps an Engine with the post-turn cognition pipeline.
type Service struct {
	engine     Engine
	reflection *reflection.Ledger
	hypothesis *hypothesis.Ledger
	opts       Options
}

// NewService constructs the orchestrator over an engine and the two ledgers
// the pipeline writes to.
func NewService(engine Engine, refl *reflection.Ledger, hyp *hypothesis.Ledger, optFns ...func(o *Options)) *Service {
	opts := Options{AutoThreshold: 0.6, TopMemoryLimit: 5, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Service{engine: engine, reflection: refl, hypothesis: hyp, opts: opts}
}

// SplitMessages separates a message list into the leading system prompt,
// the trailing user message and the history in between. Absent parts come
// back empty.
func SplitMessages(messages []core.Message) (systemPrompt, lastUserMessage string, history []core.Message) {
	msgs := messages
	if len(msgs) > 0 && msgs[0].Role == core.RoleSystem {
		systemPrompt = msgs[0].Content
		msgs = msgs[1:]
	}
	if len(msgs) > 0 && msgs[len(msgs)-1].Role == core.RoleUser {
		lastUserMessage = msgs[len(msgs)-1].Content
		msgs = msgs[:len(msgs)-1]
	}
	history = msgs
	return systemPrompt, lastUserMessage, history
}

// Chat performs a batch turn: the engine response is returned to the caller
// and the cognition pipeline runs synchronously afterwards. Engine errors
// propagate; pipeline errors never do.
func (s *Service) Chat(ctx context.Context, req Request) (*Completion, error) {
	comp, err := s.engine.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	systemPrompt, lastUserMessage, history := SplitMessages(req.Messages)
	s.runPipeline(ctx, systemPrompt, lastUserMessage, history, comp.Response, pipelineSources(comp.Sources))
	return comp, nil
}

// StreamChat performs a streaming turn. Every token from the engine is
// forwarded to the caller unmodified while the full text accumulates
// server-side; the pipeline runs only once the engine stream is exhausted,
// using the accumulated text as the assistant response. Cancelling ctx
// abandons forwarding and skips the pipeline.
func (s *Service) StreamChat(ctx context.Context, req Request) (*StreamCompletion, error) {
	sc, err := s.engine.StreamChat(ctx, req)
	if err != nil {
		return nil, err
	}
	systemPrompt, lastUserMessage, history := SplitMessages(req.Messages)
	sources := pipelineSources(sc.Sources)

	out := make(chan string)
	go func() {
		defer close(out)
		var full strings.Builder
		for tok := range sc.Tokens {
			full.WriteString(tok)
			select {
			case out <- tok:
			case <-ctx.Done():
				return
			}
		}
		s.runPipeline(ctx, systemPrompt, lastUserMessage, history, full.String(), sources)
	}()
	return &StreamCompletion{Tokens: out, Sources: sc.Sources}, nil
}

// runPipeline is the post-turn sequence: reflect, then auto-hypothesis when
// enabled and the just-recorded reflection is below the confidence
// threshold. All failures are logged and swallowed.
func (s *Service) runPipeline(ctx context.Context, systemPrompt, lastUserMessage string, history []core.Message, assistantResponse string, sources []core.Source) {
	if _, err := s.reflection.Reflect(ctx, reflection.TurnContext{
		SystemPrompt:      systemPrompt,
		LastUserMessage:   lastUserMessage,
		ChatHistory:       history,
		AssistantResponse: assistantResponse,
		Sources:           sources,
	}); err != nil {
		s.opts.Logger.Error("Reflection failed", "error", err)
	}

	if !s.opts.AutoHypothesis {
		return
	}
	latest, err := s.reflection.Latest()
	if err != nil {
		s.opts.Logger.Error("Auto-hypothesis failed", "error", err)
		return
	}
	if latest == nil || latest.Confidence >= s.opts.AutoThreshold {
		return
	}
	if _, err := s.hypothesis.Generate(ctx, hypothesis.GenerateInput{
		LastUserMessage:   lastUserMessage,
		AssistantResponse: assistantResponse,
		Reflection:        latest,
		TopMemoryLimit:    s.opts.TopMemoryLimit,
		Tags:              []string{"auto"},
	}); err != nil {
		s.opts.Logger.Error("Auto-hypothesis failed", "error", err)
	}
}

// pipelineSources reduces engine citations for the pipeline: first four
// sources, excerpts capped at 500 runes.
func pipelineSources(sources []core.Source) []core.Source {
	if sources == nil {
		return nil
	}
	out := make([]core.Source, 0, maxPipelineSources)
	for i, src := range sources {
		if i >= maxPipelineSources {
			break
		}
		src.Text = extract.Truncate(src.Text, maxSourceExcerpt)
		out = append(out, src)
	}
	return out
}
