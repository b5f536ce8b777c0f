package model

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/hupe1980/agentmind/core"
)

// MockCompleter is a lightweight in-memory Completer useful for tests &
// examples. Responses are keyed by the content of the last message; inputs
// without a registered response get a deterministic echo.
type MockCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	fallback  string
	err       error
	calls     [][]core.Message
}

// NewMockCompleter constructs an empty MockCompleter.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{responses: make(map[string]string)}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockCompleter) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetFallback sets the completion returned for unregistered prompts.
func (m *MockCompleter) SetFallback(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// SetError makes every Complete call fail with a CompletionError wrapping err.
// Pass nil to restore normal operation.
func (m *MockCompleter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns every message list Complete has been invoked with.
func (m *MockCompleter) Calls() [][]core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]core.Message, len(m.calls))
	copy(out, m.calls)
	return out
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, messages []core.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &CompletionError{Provider: "mock", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messages)
	if m.err != nil {
		return "", &CompletionError{Provider: "mock", Err: m.err}
	}
	if len(messages) == 0 {
		return "", &CompletionError{Provider: "mock", Err: errors.New("no messages provided")}
	}
	last := messages[len(messages)-1].Content
	if resp, ok := m.responses[last]; ok {
		return resp, nil
	}
	if m.fallback != "" {
		return m.fallback, nil
	}
	return "Mock response to: " + last, nil
}

// Info returns mock provider metadata.
func (m *MockCompleter) Info() Info { return Info{Name: "mock-completer", Provider: "mock"} }

// MockEmbedder is a deterministic in-memory Embedder. Identical inputs
// always map to identical vectors, so similarity assertions in tests are
// stable. Explicit vectors can be registered per input.
type MockEmbedder struct {
	mu      sync.Mutex
	dims    int
	vectors map[string][]float64
	err     error
}

// NewMockEmbedder constructs a MockEmbedder producing vectors of the given
// dimensionality (defaults to 8 when dims <= 0).
func NewMockEmbedder(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = 8
	}
	return &MockEmbedder{dims: dims, vectors: make(map[string][]float64)}
}

// AddVector registers an explicit vector for an input text.
func (m *MockEmbedder) AddVector(text string, vec []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vec
}

// SetError makes every Embed call fail with an EmbeddingError wrapping err.
// Pass nil to restore normal operation.
func (m *MockEmbedder) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Embed implements Embedder.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, &EmbeddingError{Provider: "mock", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, &EmbeddingError{Provider: "mock", Err: m.err}
	}
	if vec, ok := m.vectors[text]; ok {
		out := make([]float64, len(vec))
		copy(out, vec)
		return out, nil
	}
	return hashVector(text, m.dims), nil
}

// Info returns mock provider metadata.
func (m *MockEmbedder) Info() Info { return Info{Name: "mock-embedder", Provider: "mock"} }

// hashVector derives a pseudo-embedding from the fnv hash of text. Not
// semantically meaningful, just deterministic and rarely collinear.
func hashVector(text string, dims int) []float64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	vec := make([]float64, dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float64(int64(seed>>11))/float64(1<<52) - 1
	}
	return vec
}
