package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentmind/core"
)

// Completer is the text generation capability consumed by the ledgers. It
// takes an ordered list of role-based messages and returns the raw model
// text. Failures are reported as *CompletionError.
type Completer interface {
	Complete(ctx context.Context, messages []core.Message) (string, error)
}

// Embedder is the embedding capability consumed by the memory ledger.
// Failures are reported as *EmbeddingError.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Info contains metadata about a capability provider implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// CompletionError wraps a model or network failure during generation. The
// cognition pipeline never surfaces it to the chat caller; every ledger's
// generation path degrades to a documented fallback record instead.
type CompletionError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed (%s): %v", e.Provider, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *CompletionError) Unwrap() error { return e.Err }

// EmbeddingError wraps a failure of the embedding capability. Records are
// persisted without a vector when it occurs; search treats them as zero
// similarity.
type EmbeddingError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed (%s): %v", e.Provider, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *EmbeddingError) Unwrap() error { return e.Err }
