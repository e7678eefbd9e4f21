package agent

// Tool names the assistant may request. The set is fixed; anything else is
// rendered as an unknown tool.
const (
	ToolNotesForDateRange   = "getNotesForDateRange"
	ToolSearchNotes         = "getSearchQuery"
	ToolAskForConfirmation  = "askForConfirmation"
	ToolYouTubeTranscript   = "getYoutubeVideoId"
	ToolModifyCurrentNote   = "modifyCurrentNote"
	ToolLastModifiedFiles   = "getLastModifiedFiles"
	ToolQueryScreenpipe     = "queryScreenpipe"
	ToolAnalyzeProductivity = "analyzeProductivity"
	ToolSummarizeMeeting    = "summarizeMeeting"
	ToolTrackProjectTime    = "trackProjectTime"
)

// Invocation is a single tool call as seen by the renderer. It is owned by the
// caller: the dispatcher never mutates it. A nil Result means Pending.
type Invocation struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Args       map[string]any `json:"args"`
	Result     *string        `json:"result,omitempty"`
}

// Settled reports whether a result has been attached
func (inv Invocation) Settled() bool {
	return inv.Result != nil
}

// State returns the lifecycle state derived from result presence
func (inv Invocation) State() State {
	if inv.Settled() {
		return StateSettled
	}
	return StatePending
}

// ToolResult is what gets reported upstream once per tool call
type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

// Reporter receives tool results. Implementations must be safe for concurrent
// use: actions finish on their own goroutines.
type Reporter interface {
	ReportResult(result ToolResult)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(result ToolResult)

// ReportResult calls f(result)
func (f ReporterFunc) ReportResult(result ToolResult) {
	f(result)
}
