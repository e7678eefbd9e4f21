package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for the OpenAI chat
// completions API and anything that speaks it, including a notecompanion proxy.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	baseURL string
}

// OpenAIModels lists available OpenAI models
var OpenAIModels = []Model{
	{
		ID:            "gpt-4-turbo",
		Name:          "GPT-4 Turbo",
		ContextWindow: 128000,
		SupportsTools: true,
	},
	{
		ID:            "gpt-4o",
		Name:          "GPT-4o",
		ContextWindow: 128000,
		SupportsTools: true,
	},
	{
		ID:            "gpt-4o-mini",
		Name:          "GPT-4o Mini",
		ContextWindow: 128000,
		SupportsTools: true,
	},
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return newOpenAIProvider(apiKey, model, baseURL), nil
}

func newOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4-turbo"
	}
	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		baseURL: baseURL,
	}
}

// ID returns the provider identifier
func (p *OpenAIProvider) ID() ProviderID {
	return ProviderOpenAI
}

// Name returns the human-readable provider name
func (p *OpenAIProvider) Name() string {
	return "OpenAI"
}

// Models returns available models
func (p *OpenAIProvider) Models() []Model {
	return OpenAIModels
}

// DefaultModel returns the default model
func (p *OpenAIProvider) DefaultModel() string {
	return p.model
}

// SetModel switches the active model after validating the ID
func (p *OpenAIProvider) SetModel(modelID string) error {
	if err := ValidateModelID(modelID, p.Models()); err != nil {
		return err
	}
	p.model = modelID
	return nil
}

// Chat sends a message and returns the response
func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return p.complete(ctx, req, p.baseMessages(req))
}

// ChatWithToolResults continues a conversation with tool results
func (p *OpenAIProvider) ChatWithToolResults(ctx context.Context, req *ChatRequest, toolCalls []ToolCall, toolResults []ToolResult) (*ChatResponse, error) {
	messages := p.baseMessages(req)

	if len(toolCalls) > 0 {
		assistantMsg := openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
		}
		for _, tc := range toolCalls {
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Input),
				},
			})
		}
		messages = append(messages, assistantMsg)
	}

	for _, result := range toolResults {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    result.Content,
			ToolCallID: result.ToolUseID,
		})
	}

	return p.complete(ctx, req, messages)
}

func (p *OpenAIProvider) baseMessages(req *ChatRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, msg := range req.Messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return messages
}

// complete sends one non-streaming completion. The proxy relays whole JSON
// bodies, so streaming is never requested.
func (p *OpenAIProvider) complete(ctx context.Context, req *ChatRequest, messages []openai.ChatCompletionMessage) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	tools := toOpenAITools(req.Tools)
	openaiReq := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if len(tools) > 0 {
		openaiReq.Tools = tools
	}
	if tc := mapToolChoice(req.ToolChoice, len(tools) > 0); tc != nil {
		openaiReq.ToolChoice = tc
	}

	resp, err := p.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	response := &ChatResponse{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		if tc.Type == openai.ToolTypeFunction {
			response.ToolCalls = append(response.ToolCalls, ToolCall{
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: json.RawMessage(tc.Function.Arguments),
			})
		}
	}
	return response, nil
}

func toOpenAITools(in []Tool) []openai.Tool {
	var tools []openai.Tool
	for _, tool := range in {
		var params map[string]interface{}
		_ = json.Unmarshal(tool.InputSchema, &params) // schemas are static

		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

func mapToolChoice(choice ToolChoice, hasTools bool) any {
	if !hasTools {
		return nil
	}

	switch choice.Mode {
	case ToolChoiceNone:
		return "none"
	case ToolChoiceForce:
		if choice.Name == "" {
			return nil
		}
		return openai.ToolChoice{
			Type: openai.ToolTypeFunction,
			Function: openai.ToolFunction{
				Name: choice.Name,
			},
		}
	default:
		return "auto"
	}
}
