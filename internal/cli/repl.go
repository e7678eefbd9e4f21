package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/notecompanion/internal/agent"
	"github.com/yolodolo42/notecompanion/internal/ui"
	"github.com/yolodolo42/notecompanion/internal/youtube"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat about your notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunREPL(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// chatMessage represents a message in the chat history
type chatMessage struct {
	role    string // "user", "assistant", "error", "system", "tool"
	content string
	view    *agent.View
	time    time.Time
}

// confirmPrompt is an open askForConfirmation waiting for the user
type confirmPrompt struct {
	selector ui.Selector
	reply    chan<- string
}

// model represents the REPL state
type model struct {
	ctx      context.Context
	agent    *agent.Agent
	textarea textarea.Model
	viewport viewport.Model
	messages []chatMessage
	spinner  spinner.Model
	markdown *glamour.TermRenderer
	confirm  *confirmPrompt
	loading  bool
	width    int
	height   int
	ready    bool
	quitting bool
}

// responseMsg is sent when the agent finishes a turn
type responseMsg struct {
	content string
	err     error
}

// toolEventMsg carries a tool_call or tool_result while a turn is running
type toolEventMsg struct {
	event agent.ChatEvent
}

// confirmRequestMsg asks the UI to show a confirmation and send the chosen action to reply
type confirmRequestMsg struct {
	view  agent.View
	reply chan<- string
}

// initialModel creates the initial model state
func initialModel(ctx context.Context, ag *agent.Agent) model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your notes..."
	ta.Focus()
	ta.CharLimit = 2000
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.TitleStyle

	return model{
		ctx:      ctx,
		agent:    ag,
		textarea: ta,
		spinner:  sp,
		messages: []chatMessage{
			{
				role:    "system",
				content: fmt.Sprintf("Welcome to Note Companion (%s, %s).\nType your questions below. Use /help for commands, /quit to exit.", ag.ProviderName(), ag.CurrentModel()),
				time:    time.Now(),
			},
		},
	}
}

// Init initializes the model
func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update handles messages and updates state
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}

		if msg.Type == tea.KeyEnter {
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				m.textarea.Reset()
				return m.handleCommand(input)
			}

			m.messages = append(m.messages, chatMessage{
				role:    "user",
				content: input,
				time:    time.Now(),
			})

			m.textarea.Reset()
			m.loading = true
			m.updateViewport()

			return m, m.sendToAgent(input)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-8)
			m.viewport.YPosition = 0
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 8
		}
		m.textarea.SetWidth(msg.Width - 4)
		m.markdown = newMarkdownRenderer(msg.Width - 4)
		m.updateViewport()

	case toolEventMsg:
		m.applyToolEvent(msg.event)
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil

	case confirmRequestMsg:
		items := make([]ui.SelectorItem, 0, len(msg.view.Actions))
		for _, a := range msg.view.Actions {
			items = append(items, ui.SelectorItem{ID: a.ID, Label: a.Label})
		}
		title := msg.view.Message
		if title == "" {
			title = msg.view.Title
		}
		sel := ui.NewSelector(title, items)
		sel.SetWidth(m.width)
		m.confirm = &confirmPrompt{selector: sel, reply: msg.reply}
		return m, nil

	case responseMsg:
		m.loading = false
		if msg.err != nil {
			m.messages = append(m.messages, chatMessage{
				role:    "error",
				content: msg.err.Error(),
				time:    time.Now(),
			})
		} else if msg.content != "" {
			m.messages = append(m.messages, chatMessage{
				role:    "assistant",
				content: msg.content,
				time:    time.Now(),
			})
		}
		m.updateViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, spCmd
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

// updateConfirm routes keys to the open confirmation and replies once it closes
func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := &m.confirm.selector
	sel.Update(msg)
	if sel.Active() {
		return m, nil
	}

	actionID := sel.Selected()
	if sel.Cancelled() || actionID == "" {
		actionID = agent.ActionCancel
	}
	m.confirm.reply <- actionID
	m.confirm = nil
	return m, nil
}

// applyToolEvent adds a tool_call view or replaces it with its settled form
func (m *model) applyToolEvent(e agent.ChatEvent) {
	if e.View == nil {
		return
	}
	if e.Type == "tool_result" {
		for i := len(m.messages) - 1; i >= 0; i-- {
			if v := m.messages[i].view; v != nil && v.ToolCallID == e.View.ToolCallID {
				m.messages[i].view = e.View
				return
			}
		}
	}
	m.messages = append(m.messages, chatMessage{role: "tool", view: e.View, time: time.Now()})
}

// View renders the UI
func (m model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if !m.ready {
		return "Initializing...\n"
	}

	var b strings.Builder

	b.WriteString(ui.TitleStyle.Render("  Note Companion"))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.confirm != nil:
		b.WriteString("\n")
		b.WriteString(m.confirm.selector.View())
	case m.loading:
		b.WriteString(fmt.Sprintf("\n  %s Thinking...\n\n", m.spinner.View()))
		b.WriteString(m.textarea.View())
	default:
		b.WriteString("\n")
		b.WriteString(m.textarea.View())
	}
	b.WriteString("\n")

	b.WriteString(ui.HelpStyle.Render("  /help • /model • /clear • /quit • Ctrl+C to exit"))

	return b.String()
}

// updateViewport updates the viewport content with messages
func (m *model) updateViewport() {
	var content strings.Builder

	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			content.WriteString(ui.UserStyle.Render("You: "))
			content.WriteString(msg.content)
		case "assistant":
			content.WriteString(ui.AssistantStyle.Render("Note Companion:"))
			content.WriteString("\n")
			content.WriteString(m.renderMarkdown(msg.content))
		case "tool":
			content.WriteString(renderView(m.width-2, *msg.view))
		case "error":
			content.WriteString(ui.ErrorStyle.Render("Error: "))
			content.WriteString(msg.content)
		case "system":
			content.WriteString(ui.SystemStyle.Render(msg.content))
		}
		content.WriteString("\n\n")
	}

	m.viewport.SetContent(content.String())
}

func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		slog.Debug("markdown rendering disabled", "error", err)
		return nil
	}
	return r
}

func (m *model) renderMarkdown(text string) string {
	if m.markdown == nil {
		return text
	}
	out, err := m.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// handleCommand handles slash commands
func (m model) handleCommand(input string) (tea.Model, tea.Cmd) {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "/quit", "/exit", "/q":
		m.quitting = true
		return m, tea.Quit

	case "/clear":
		m.messages = []chatMessage{
			{
				role:    "system",
				content: "Chat cleared. How can I help you?",
				time:    time.Now(),
			},
		}
		m.agent.Reset()
		m.updateViewport()
		return m, nil

	case "/model":
		return m.handleModelCommand(arg)

	case "/help", "/?":
		helpText := `Available commands:
  /help, /?       - Show this help
  /model          - List available models
  /model <id>     - Switch to a different model
  /clear          - Clear chat history
  /quit, /exit    - Exit

Example queries:
  "What did I write about the launch plan?"
  "Summarize my notes from last week"
  "What have I been working on recently?"
  "Summarize https://youtu.be/dQw4w9WgXcQ"`

		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: helpText,
			time:    time.Now(),
		})
		m.updateViewport()
		return m, nil

	default:
		m.messages = append(m.messages, chatMessage{
			role:    "error",
			content: fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd),
			time:    time.Now(),
		})
		m.updateViewport()
		return m, nil
	}
}

// handleModelCommand lists models or switches to a new one
func (m model) handleModelCommand(modelID string) (tea.Model, tea.Cmd) {
	if modelID == "" {
		current := m.agent.CurrentModel()

		var b strings.Builder
		b.WriteString(fmt.Sprintf("Models for %s:\n", m.agent.ProviderName()))
		for _, md := range m.agent.ListModels() {
			marker := "  "
			if md.ID == current {
				marker = ui.SymbolArrow + " "
			}
			toolTag := ""
			if !md.SupportsTools {
				toolTag = " (no tool support)"
			}
			b.WriteString(fmt.Sprintf("  %s%-30s %s%s\n", marker, md.ID, md.Name, toolTag))
		}
		b.WriteString(fmt.Sprintf("\nActive: %s", current))
		b.WriteString("\nUsage: /model <id>")

		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: b.String(),
			time:    time.Now(),
		})
		m.updateViewport()
		return m, nil
	}

	if err := m.agent.SetModel(modelID); err != nil {
		m.messages = append(m.messages, chatMessage{
			role:    "error",
			content: fmt.Sprintf("Failed to switch model: %v", err),
			time:    time.Now(),
		})
		m.updateViewport()
		return m, nil
	}

	m.messages = append(m.messages, chatMessage{
		role:    "system",
		content: fmt.Sprintf("Switched to %s. Conversation history cleared.", modelID),
		time:    time.Now(),
	})
	m.updateViewport()
	return m, nil
}

// sendToAgent runs one turn; tool events arrive separately as toolEventMsg
func (m model) sendToAgent(input string) tea.Cmd {
	ctx := m.ctx
	ag := m.agent
	return func() tea.Msg {
		response, err := ag.Chat(ctx, input)
		return responseMsg{
			content: response,
			err:     err,
		}
	}
}

// RunREPL starts the interactive REPL
func RunREPL(ctx context.Context) error {
	if !ui.IsInteractive() {
		return fmt.Errorf("chat needs an interactive terminal; try 'notecompanion search <query>'")
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}
	provider, err := agent.ResolveProvider(manager, viper.GetString("provider"))
	if err != nil {
		return err
	}
	v, err := openVault()
	if err != nil {
		return err
	}
	dir, err := dataDir()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var p *tea.Program
	ag, err := agent.New(agent.Config{
		Provider:    provider,
		Vault:       v,
		Transcripts: youtube.NewClient(nil),
		DataDir:     dir,
		Logger:      slog.Default(),
		Confirmer: agent.ConfirmerFunc(func(ctx context.Context, view agent.View) (string, error) {
			reply := make(chan string, 1)
			p.Send(confirmRequestMsg{view: view, reply: reply})
			select {
			case actionID := <-reply:
				return actionID, nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}),
		OnEvent: func(e agent.ChatEvent) {
			if e.Type == "tool_call" || e.Type == "tool_result" {
				p.Send(toolEventMsg{event: e})
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	defer ag.Close()

	p = tea.NewProgram(
		initialModel(ctx, ag),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err = p.Run()
	return err
}
