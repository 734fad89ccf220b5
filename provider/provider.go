// Package provider defines the chat backend interface and common types.
package provider

import (
	"context"
	"sort"
	"strings"
)

// Provider is the interface for chat completion backends.
type Provider interface {
	// Chat sends the full ordered conversation and returns the next
	// assistant reply. One request, one result or one failure.
	Chat(ctx context.Context, req *Request) (*Response, error)
}

// Request is a chat completion request.
type Request struct {
	Messages []Message
}

// Message is a chat message in OpenAI wire format.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Response is a chat completion response.
type Response struct {
	Content string
	Usage   Usage
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// Options carries runtime settings shared by all providers.
type Options struct {
	APIKey      string
	APIBase     string
	ModelName   string
	MaxTokens   int
	Temperature float64
	ExtraBody   map[string]any // raw JSON paths merged into the request body
}

// Constructor builds a provider from runtime options.
type Constructor func(opts Options) Provider

// Registration holds provider metadata and its constructor.
type Registration struct {
	DefaultModel string
	EnvKey       string
	EnvBase      string
	KeyPortalURL string
	Constructor  Constructor
}

var registry = map[string]Registration{}

// Register adds a provider to the registry. Called from init.
func Register(name string, reg Registration) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	registry[name] = reg
}

// Lookup returns the registration for a provider name.
func Lookup(name string) (Registration, bool) {
	reg, ok := registry[name]
	return reg, ok
}

// Names returns all registered provider names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func inputChars(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Role) + len(m.Content)
	}
	return total
}
