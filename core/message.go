package core

import "github.com/google/uuid"

// Message roles used across prompts and persisted chat history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-based chat turn. It doubles as the wire shape of
// persisted chat history entries, so the JSON tags are part of the storage
// contract.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage constructs a system role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage constructs a user role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage constructs an assistant role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Source is a document citation carried alongside a completion. Text is an
// optional excerpt; prompts only ever see File and Page.
type Source struct {
	File string `json:"file"`
	Page string `json:"page"`
	Text string `json:"text,omitempty"`
}

// NewID generates a unique identifier suitable for ledger records.
func NewID() string { return uuid.NewString() }
