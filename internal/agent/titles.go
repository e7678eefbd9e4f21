package agent

// FallbackTitle is shown for tool names outside the known set
const FallbackTitle = "Tool Invocation"

var toolTitles = map[string]string{
	ToolNotesForDateRange:   "Fetching Notes",
	ToolSearchNotes:         "Searching Notes",
	ToolAskForConfirmation:  "Confirmation Required",
	ToolYouTubeTranscript:   "YouTube Transcript",
	ToolModifyCurrentNote:   "Note Modification",
	ToolLastModifiedFiles:   "Recent File Activity",
	ToolQueryScreenpipe:     "Querying Screenpipe Data",
	ToolAnalyzeProductivity: "Analyzing Productivity",
	ToolSummarizeMeeting:    "Summarizing Meeting",
	ToolTrackProjectTime:    "Tracking Project Time",
}

// Title returns the human-readable heading for a tool
func Title(toolName string) string {
	if title, ok := toolTitles[toolName]; ok {
		return title
	}
	return FallbackTitle
}

// KnownTool reports whether toolName belongs to the fixed tool set
func KnownTool(toolName string) bool {
	_, ok := toolTitles[toolName]
	return ok
}
