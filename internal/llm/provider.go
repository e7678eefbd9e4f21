package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// ProviderID represents a unique provider identifier
type ProviderID string

const (
	// ProviderProxy talks OpenAI wire format to a notecompanion proxy
	ProviderProxy     ProviderID = "proxy"
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
)

// Provider is the interface all LLM providers must implement
type Provider interface {
	// ID returns the unique provider identifier
	ID() ProviderID

	// Name returns the human-readable provider name
	Name() string

	// Chat sends a message and returns the response
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// ChatWithToolResults continues a conversation after tools have been executed.
	ChatWithToolResults(ctx context.Context, req *ChatRequest, toolCalls []ToolCall, toolResults []ToolResult) (*ChatResponse, error)

	// Models returns available models for this provider
	Models() []Model

	// DefaultModel returns the active model for this provider
	DefaultModel() string

	// SetModel switches the active model. Returns error if model ID is not
	// in the provider's supported model list.
	SetModel(modelID string) error
}

// Model represents an available model
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextWindow int    `json:"context_window"`
	SupportsTools bool   `json:"supports_tools"`
}

// Message represents a conversation message
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ToolCall represents a tool call from the model
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolChoiceMode controls whether the model may call tools
type ToolChoiceMode int

const (
	ToolChoiceAuto ToolChoiceMode = iota
	ToolChoiceNone
	ToolChoiceForce
)

// ToolChoice selects a tool choice mode; Name is used with ToolChoiceForce
type ToolChoice struct {
	Mode ToolChoiceMode `json:"mode"`
	Name string         `json:"name,omitempty"`
}

// ChatRequest is a provider-agnostic chat request
type ChatRequest struct {
	SystemPrompt string     `json:"system_prompt"`
	Messages     []Message  `json:"messages"`
	Tools        []Tool     `json:"tools,omitempty"`
	Model        string     `json:"model,omitempty"` // Uses default if empty
	ToolChoice   ToolChoice `json:"tool_choice,omitempty"`
	MaxTokens    int        `json:"max_tokens,omitempty"`
}

// ChatResponse is a provider-agnostic chat response
type ChatResponse struct {
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason string     `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}

// Usage tracks token usage
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

const defaultMaxTokens = 4096

// EnvVarForProvider returns the environment variable holding a provider's credential
func EnvVarForProvider(id ProviderID) string {
	switch id {
	case ProviderProxy:
		return "NOTECOMPANION_TOKEN"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// AllProviderIDs returns all known provider IDs in priority order
func AllProviderIDs() []ProviderID {
	return []ProviderID{
		ProviderProxy,
		ProviderOpenAI,
		ProviderAnthropic,
	}
}

// ParseProviderID validates a provider name
func ParseProviderID(name string) (ProviderID, error) {
	for _, id := range AllProviderIDs() {
		if string(id) == name {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown provider: %s", name)
}

// ValidateModelID checks whether modelID exists in the given model list.
func ValidateModelID(modelID string, models []Model) error {
	for _, m := range models {
		if m.ID == modelID {
			return nil
		}
	}
	return fmt.Errorf("unknown model %q for this provider", modelID)
}
