package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/yolodolo42/notecompanion/internal/llm"
	"github.com/yolodolo42/notecompanion/internal/vault"
)

// MaxToolRounds bounds how many times one user message may go back to the
// model with tool results.
const MaxToolRounds = 8

var ErrTooManyToolRounds = fmt.Errorf("model kept calling tools after %d rounds", MaxToolRounds)

// ChatEvent represents a single event in the chat flow (tool call, result, or content)
type ChatEvent struct {
	Type    string // "tool_call", "tool_result", "content"
	Tool    string // Tool name for tool_call/tool_result
	Args    string // Redacted tool arguments for tool_call
	Content string // Reported result for tool_result, text for content
	IsError bool   // True if the tool result is an error payload
	View    *View  // Rendered invocation for tool_call/tool_result
}

// Confirmer asks the user to pick one of a Pending view's actions
type Confirmer interface {
	Confirm(ctx context.Context, view View) (actionID string, err error)
}

// ConfirmerFunc adapts a function to Confirmer
type ConfirmerFunc func(ctx context.Context, view View) (string, error)

// Confirm calls f(ctx, view)
func (f ConfirmerFunc) Confirm(ctx context.Context, view View) (string, error) {
	return f(ctx, view)
}

// SystemPrompt is the default system prompt for the note assistant
const SystemPrompt = `You are Note Companion, an assistant that works inside the user's markdown notes.

## Tools
- getSearchQuery: find notes containing every word of a query
- getNotesForDateRange: load notes modified in a date range
- getLastModifiedFiles: see what the user worked on recently
- getYoutubeVideoId: fetch a video transcript to summarize or discuss
- askForConfirmation: ask before doing anything the user did not explicitly request

## Response Style
- Be concise and direct
- Cite the notes you used by title
- If a tool fails, say what went wrong and suggest a next step`

// Config wires an Agent
type Config struct {
	Provider    llm.Provider
	Vault       vault.Vault
	Transcripts TranscriptFetcher
	Confirmer   Confirmer
	// DataDir holds session logs; empty disables them.
	DataDir string
	Logger  *slog.Logger
	// OnEvent, when set, sees every event as it happens.
	OnEvent func(ChatEvent)
}

// Agent orchestrates a conversation: it sends messages to the provider,
// records the tool calls it gets back, and resolves each one through the
// dispatcher before continuing.
type Agent struct {
	// mu serializes ChatWithEvents so turns never interleave
	mu           sync.Mutex
	provider     llm.Provider
	dispatcher   *Dispatcher
	ledger       *Ledger
	tracker      *Tracker
	host         *HostTools
	confirmer    Confirmer
	logger       *slog.Logger
	session      *sessionLogger
	onEvent      func(ChatEvent)
	systemPrompt string
	conversation []llm.Message
}

// New creates an agent from cfg
func New(cfg Config) (*Agent, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("agent provider not initialized")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Agent{
		provider:     cfg.Provider,
		ledger:       NewLedger(logger),
		tracker:      NewTracker(),
		host:         NewHostTools(cfg.Vault),
		confirmer:    cfg.Confirmer,
		logger:       logger,
		onEvent:      cfg.OnEvent,
		systemPrompt: SystemPrompt,
		conversation: make([]llm.Message, 0),
	}

	opts := []Option{WithLogger(logger)}
	if cfg.Vault != nil {
		opts = append(opts, WithVault(cfg.Vault))
	}
	if cfg.Transcripts != nil {
		opts = append(opts, WithTranscripts(cfg.Transcripts))
	}
	a.dispatcher = NewDispatcher(ReporterFunc(a.recordResult), a.tracker, opts...)

	if cfg.DataDir != "" {
		session, err := newSessionLogger(cfg.DataDir, uuid.NewString())
		if err != nil {
			logger.Warn("session log disabled", "error", err)
		} else {
			a.session = session
			a.session.logRecord(sessionRecord{
				TS:       nowTS(),
				Type:     "session_start",
				Provider: string(cfg.Provider.ID()),
				Model:    cfg.Provider.DefaultModel(),
			})
		}
	}

	return a, nil
}

// recordResult attaches a reported result to the ledger
func (a *Agent) recordResult(result ToolResult) {
	a.ledger.ReportResult(result)
}

// Chat sends a user message and returns the agent's final text.
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	events, err := a.ChatWithEvents(ctx, userMessage)
	if err != nil {
		return "", err
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == "content" {
			return events[i].Content, nil
		}
	}
	return "", nil
}

// ChatWithEvents sends a user message and returns structured events for UI rendering.
func (a *Agent) ChatWithEvents(ctx context.Context, userMessage string) ([]ChatEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.conversation = append(a.conversation, llm.Message{Role: "user", Content: userMessage})
	a.logSession(sessionRecord{Type: "user", Content: userMessage})

	req := &llm.ChatRequest{
		SystemPrompt: a.systemPrompt,
		Messages:     a.conversation,
		Tools:        llm.NoteTools(),
	}

	response, err := a.provider.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	var events []ChatEvent
	emit := func(e ChatEvent) {
		events = append(events, e)
		a.emit(e)
	}

	var allCalls []llm.ToolCall
	var allResults []llm.ToolResult
	for rounds := 0; len(response.ToolCalls) > 0; rounds++ {
		if rounds >= MaxToolRounds {
			return events, ErrTooManyToolRounds
		}

		results, err := a.resolveRound(ctx, response.ToolCalls, emit)
		if err != nil {
			return events, err
		}
		allCalls = append(allCalls, response.ToolCalls...)
		allResults = append(allResults, results...)

		response, err = a.provider.ChatWithToolResults(ctx, req, allCalls, allResults)
		if err != nil {
			return events, fmt.Errorf("failed to continue conversation: %w", err)
		}
	}

	if response.Content != "" {
		a.conversation = append(a.conversation, llm.Message{Role: "assistant", Content: response.Content})
		a.logSession(sessionRecord{Type: "assistant", Content: response.Content})
		emit(ChatEvent{Type: "content", Content: response.Content})
	}

	return events, nil
}

// resolveRound renders every call of one model turn first, so actions run
// concurrently, then settles them in order.
func (a *Agent) resolveRound(ctx context.Context, calls []llm.ToolCall, emit func(ChatEvent)) ([]llm.ToolResult, error) {
	invs := make([]Invocation, len(calls))
	views := make([]View, len(calls))

	for i, tc := range calls {
		invs[i] = a.ledger.Add(Invocation{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Args:       a.decodeInput(tc),
		})
		views[i] = a.dispatcher.Render(ctx, invs[i])

		args := RedactJSONArgs(string(tc.Input))
		a.logSession(sessionRecord{Type: "tool_call", ToolName: tc.Name, Args: args})
		view := views[i]
		emit(ChatEvent{Type: "tool_call", Tool: tc.Name, Args: args, View: &view})
	}

	results := make([]llm.ToolResult, len(calls))
	for i, inv := range invs {
		if err := a.resolve(ctx, inv, views[i]); err != nil {
			return nil, err
		}

		settled, _ := a.ledger.Get(inv.ToolCallID)
		content := "null"
		if settled.Result != nil {
			content = *settled.Result
		}
		isError := IsErrorResult(content)
		view := a.dispatcher.Render(ctx, settled)

		a.logSession(sessionRecord{Type: "tool_result", ToolName: inv.ToolName, Text: view.Message, Blocks: view.Blocks, IsError: isError})
		emit(ChatEvent{Type: "tool_result", Tool: inv.ToolName, Content: content, IsError: isError, View: &view})

		results[i] = llm.ToolResult{ToolUseID: inv.ToolCallID, Content: content, IsError: isError}
	}
	return results, nil
}

// resolve makes sure inv has a result attached when it returns nil
func (a *Agent) resolve(ctx context.Context, inv Invocation, view View) error {
	if inv.Settled() {
		return nil
	}

	switch {
	case view.Done != nil:
		select {
		case <-view.Done:
		case <-ctx.Done():
			return ctx.Err()
		}

	case inv.ToolName == ToolAskForConfirmation:
		if a.confirmer == nil {
			_, err := a.dispatcher.Settle(inv, ErrorResult{Error: "no one is available to confirm"})
			return ignoreReported(err)
		}
		actionID, err := a.confirmer.Confirm(ctx, view)
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if _, err := a.dispatcher.Choose(inv, actionID); err != nil {
			if errors.Is(err, ErrUnknownAction) {
				_, err = a.dispatcher.Choose(inv, ActionCancel)
			}
			return ignoreReported(err)
		}

	case a.host.Handles(inv.ToolName):
		value, err := a.host.Execute(ctx, inv)
		if err != nil {
			a.logger.Warn("host tool failed", "tool", inv.ToolName, "tool_call_id", inv.ToolCallID, "error", err)
			value = ErrorResult{Error: err.Error()}
		}
		_, err = a.dispatcher.Settle(inv, value)
		return ignoreReported(err)

	default:
		_, err := a.dispatcher.Settle(inv, ErrorResult{
			Error: fmt.Sprintf("tool %s is not available in this client", inv.ToolName),
		})
		return ignoreReported(err)
	}
	return nil
}

// ignoreReported treats an already recorded result as success
func ignoreReported(err error) error {
	if errors.Is(err, ErrAlreadyReported) || errors.Is(err, ErrAlreadySettled) {
		return nil
	}
	return err
}

func (a *Agent) decodeInput(tc llm.ToolCall) map[string]any {
	if len(tc.Input) == 0 {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal(tc.Input, &args); err != nil {
		a.logger.Warn("tool arguments are not a JSON object", "tool", tc.Name, "tool_call_id", tc.ID, "error", err)
		return map[string]any{}
	}
	return args
}

func (a *Agent) emit(e ChatEvent) {
	if a.onEvent != nil {
		a.onEvent(e)
	}
}

func (a *Agent) logSession(rec sessionRecord) {
	if a.session == nil {
		return
	}
	rec.TS = nowTS()
	a.session.logRecord(rec)
}

// Invocations returns every tool call seen in this conversation
func (a *Agent) Invocations() []Invocation {
	return a.ledger.All()
}

// Dispatcher returns the dispatcher rendering this agent's tool calls
func (a *Agent) Dispatcher() *Dispatcher {
	return a.dispatcher
}

// GetProvider returns the current provider
func (a *Agent) GetProvider() llm.Provider {
	return a.provider
}

// SetModel switches the active model on the current provider.
// Clears conversation history since prior messages may be incompatible.
func (a *Agent) SetModel(modelID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.provider.SetModel(modelID); err != nil {
		return err
	}
	a.resetLocked()
	return nil
}

// CurrentModel returns the active model ID for the current provider.
func (a *Agent) CurrentModel() string {
	return a.provider.DefaultModel()
}

// ListModels returns the available models for the current provider.
func (a *Agent) ListModels() []llm.Model {
	return a.provider.Models()
}

// ProviderName returns the human-readable name of the current provider.
func (a *Agent) ProviderName() string {
	return a.provider.Name()
}

// Reset clears the conversation history and every recorded tool call.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
}

func (a *Agent) resetLocked() {
	a.conversation = make([]llm.Message, 0)
	a.ledger.Reset()
	a.tracker.Reset()
}

// Close flushes and closes the session log
func (a *Agent) Close() {
	if a.session != nil {
		a.session.Close()
	}
}
