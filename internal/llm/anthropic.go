package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// AnthropicModels lists available Anthropic models
var AnthropicModels = []Model{
	{
		ID:            "claude-sonnet-4-20250514",
		Name:          "Claude Sonnet 4",
		ContextWindow: 200000,
		SupportsTools: true,
	},
	{
		ID:            "claude-3-5-sonnet-20241022",
		Name:          "Claude 3.5 Sonnet",
		ContextWindow: 200000,
		SupportsTools: true,
	},
	{
		ID:            "claude-3-5-haiku-20241022",
		Name:          "Claude 3.5 Haiku",
		ContextWindow: 200000,
		SupportsTools: true,
	},
}

// AnthropicOption configures an AnthropicProvider
type AnthropicOption func(*[]anthropic.ClientOption)

// WithAnthropicBaseURL points the client at a different API host
func WithAnthropicBaseURL(baseURL string) AnthropicOption {
	return func(opts *[]anthropic.ClientOption) {
		if baseURL != "" {
			*opts = append(*opts, anthropic.WithBaseURL(baseURL))
		}
	}
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey string, model string, opts ...AnthropicOption) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	var clientOpts []anthropic.ClientOption
	for _, opt := range opts {
		opt(&clientOpts)
	}

	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey, clientOpts...),
		model:  model,
	}, nil
}

// ID returns the provider identifier
func (p *AnthropicProvider) ID() ProviderID {
	return ProviderAnthropic
}

// Name returns the human-readable provider name
func (p *AnthropicProvider) Name() string {
	return "Anthropic"
}

// Models returns available models
func (p *AnthropicProvider) Models() []Model {
	return AnthropicModels
}

// DefaultModel returns the default model
func (p *AnthropicProvider) DefaultModel() string {
	return p.model
}

// SetModel switches the active model after validating the ID
func (p *AnthropicProvider) SetModel(modelID string) error {
	if err := ValidateModelID(modelID, p.Models()); err != nil {
		return err
	}
	p.model = modelID
	return nil
}

// Chat sends a message and returns the response
func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return p.send(ctx, req, anthropicHistory(req.Messages))
}

// ChatWithToolResults continues a conversation with tool results
func (p *AnthropicProvider) ChatWithToolResults(ctx context.Context, req *ChatRequest, toolCalls []ToolCall, toolResults []ToolResult) (*ChatResponse, error) {
	messages := anthropicHistory(req.Messages)

	if len(toolCalls) > 0 {
		var toolUseContents []anthropic.MessageContent
		for _, tc := range toolCalls {
			toolUseContents = append(toolUseContents, anthropic.NewToolUseMessageContent(tc.ID, tc.Name, tc.Input))
		}
		messages = append(messages, anthropic.Message{
			Role:    anthropic.RoleAssistant,
			Content: toolUseContents,
		})
	}

	// Tool results go back as a single user turn
	if len(toolResults) > 0 {
		toolResultContents := make([]anthropic.MessageContent, len(toolResults))
		for i, result := range toolResults {
			toolResultContents[i] = anthropic.NewToolResultMessageContent(result.ToolUseID, result.Content, result.IsError)
		}
		messages = append(messages, anthropic.Message{
			Role:    anthropic.RoleUser,
			Content: toolResultContents,
		})
	}

	return p.send(ctx, req, messages)
}

func anthropicHistory(in []Message) []anthropic.Message {
	out := make([]anthropic.Message, 0, len(in)+2)
	for _, msg := range in {
		role := anthropic.RoleUser
		if msg.Role == "assistant" {
			role = anthropic.RoleAssistant
		}
		out = append(out, anthropic.Message{
			Role: role,
			Content: []anthropic.MessageContent{
				anthropic.NewTextMessageContent(msg.Content),
			},
		})
	}
	return out
}

func (p *AnthropicProvider) send(ctx context.Context, req *ChatRequest, messages []anthropic.Message) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	anthropicReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages:  messages,
	}
	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolDefinition, len(req.Tools))
		for i, tool := range req.Tools {
			tools[i] = anthropic.ToolDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			}
		}
		anthropicReq.Tools = tools
		anthropicReq.ToolChoice = anthropicToolChoice(req.ToolChoice)
	}

	resp, err := p.client.CreateMessages(ctx, anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	response := &ChatResponse{
		StopReason: string(resp.StopReason),
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}
	for _, content := range resp.Content {
		switch content.Type {
		case anthropic.MessagesContentTypeText:
			if content.Text != nil {
				response.Content += *content.Text
			}
		case anthropic.MessagesContentTypeToolUse:
			if content.MessageContentToolUse != nil {
				response.ToolCalls = append(response.ToolCalls, ToolCall{
					ID:    content.ID,
					Name:  content.Name,
					Input: content.Input,
				})
			}
		}
	}
	return response, nil
}

func anthropicToolChoice(choice ToolChoice) *anthropic.ToolChoice {
	switch choice.Mode {
	case ToolChoiceNone:
		return &anthropic.ToolChoice{Type: "none"}
	case ToolChoiceForce:
		if choice.Name == "" {
			return &anthropic.ToolChoice{Type: "any"}
		}
		return &anthropic.ToolChoice{Type: "tool", Name: choice.Name}
	default:
		return nil
	}
}
