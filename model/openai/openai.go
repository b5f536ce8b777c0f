// Package openai provides Completer and Embedder implementations backed by
// the OpenAI Chat Completions and Embeddings APIs. It adapts AgentMind's
// role-based messages into the SDK's message format and back.
package openai

import (
	"context"
	"errors"

	"github.com/hupe1980/agentmind/core"
	"github.com/hupe1980/agentmind/model"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI capability adapter.
type Options struct {
	ChatModel           string
	EmbeddingModel      string
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI API behind the model.Completer and model.Embedder
// interfaces.
type Client struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI client using the official SDK with environment
// based credentials.
func New(optFns ...func(o *Options)) *Client {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI capability adapter from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		ChatModel:           openai.ChatModelGPT4oMini,
		EmbeddingModel:      openai.EmbeddingModelTextEmbedding3Small,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Complete implements model.Completer using the Chat Completions API.
func (c *Client) Complete(ctx context.Context, messages []core.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(messages),
		Model:               c.opts.ChatModel,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &model.CompletionError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &model.CompletionError{Provider: "openai", Err: errors.New("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed implements model.Embedder using the Embeddings API.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: c.opts.EmbeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, &model.EmbeddingError{Provider: "openai", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &model.EmbeddingError{Provider: "openai", Err: errors.New("no embedding returned")}
	}
	vec := make([]float64, len(resp.Data[0].Embedding))
	copy(vec, resp.Data[0].Embedding)
	return vec, nil
}

// Info returns provider metadata.
func (c *Client) Info() model.Info {
	return model.Info{Name: c.opts.ChatModel, Provider: "openai"}
}

// buildMessages converts role-based messages into OpenAI chat messages.
func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case core.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
