// Package nlp provides the generative client used for LLM query
// expansion, plus a circuit-breaker wrapper for resilience.
package nlp

import (
	"context"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one turn of a chat exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Response is a model completion.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Client is a generative language model client.
type Client interface {
	Chat(ctx context.Context, messages []Message) (*Response, error)
	Close() error
}

// Config holds common model settings.
type Config struct {
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}
