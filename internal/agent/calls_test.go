package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, inv Invocation) View {
	t.Helper()
	d := NewDispatcher(nil, nil)
	return d.Render(context.Background(), inv)
}

func TestDecode(t *testing.T) {
	t.Run("typed args", func(t *testing.T) {
		call := Decode(pending("1", ToolTrackProjectTime, map[string]any{"projectKeyword": "apollo", "days": 7}))
		assert.Equal(t, TrackProjectTime{ProjectKeyword: "apollo", Days: 7}, call)
	})

	t.Run("weakly typed numbers", func(t *testing.T) {
		call := Decode(pending("1", ToolAnalyzeProductivity, map[string]any{"days": "14"}))
		assert.Equal(t, AnalyzeProductivity{Days: 14}, call)

		call = Decode(pending("1", ToolLastModifiedFiles, map[string]any{"count": float64(3)}))
		assert.Equal(t, LastModifiedFiles{Count: 3}, call)
	})

	t.Run("mismatched args give zero value", func(t *testing.T) {
		call := Decode(pending("1", ToolAnalyzeProductivity, map[string]any{"days": map[string]any{"x": 1}}))
		assert.Equal(t, AnalyzeProductivity{}, call)
	})

	t.Run("unknown tool", func(t *testing.T) {
		call := Decode(pending("1", "launchRocket", nil))
		assert.Equal(t, Unknown{Name: "launchRocket"}, call)
		assert.Equal(t, "launchRocket", call.ToolName())
	})
}

func TestRenderPendingMessages(t *testing.T) {
	tests := []struct {
		tool string
		args map[string]any
		want string
	}{
		{ToolNotesForDateRange, nil, "Retrieving your notes for the specified time period..."},
		{ToolModifyCurrentNote, nil, "Applying changes to your note..."},
		{ToolLastModifiedFiles, nil, "Checking your recent file activity..."},
		{ToolQueryScreenpipe, nil, "Querying Screenpipe data..."},
		{ToolAnalyzeProductivity, map[string]any{"days": 5}, "Analyzing productivity for the last 5 days..."},
		{ToolSummarizeMeeting, nil, "Summarizing meeting audio..."},
		{ToolTrackProjectTime, map[string]any{"projectKeyword": "apollo", "days": 3}, `Tracking time for project "apollo" over the last 3 days...`},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			v := render(t, pending("1", tt.tool, tt.args))
			assert.Equal(t, StatePending, v.State)
			assert.Equal(t, Title(tt.tool), v.Title)
			assert.Equal(t, tt.want, v.Message)
			assert.Nil(t, v.Done)
		})
	}
}

func TestRenderSettledMessages(t *testing.T) {
	tests := []struct {
		name   string
		tool   string
		args   map[string]any
		result string
		want   string
	}{
		{"notes plain period", ToolNotesForDateRange, nil, "last week", "All notes modified within the following time period were added to the AI context: last week"},
		{"notes payload", ToolNotesForDateRange, nil, `{"period":"2024-01-01 to 2024-01-07","notes":[]}`, "All notes modified within the following time period were added to the AI context: 2024-01-01 to 2024-01-07"},
		{"modify", ToolModifyCurrentNote, nil, "added a heading", "Changes applied: added a heading"},
		{"recent one", ToolLastModifiedFiles, nil, "1", "You've modified 1 file recently"},
		{"recent many", ToolLastModifiedFiles, nil, `[{"path":"a.md"},{"path":"b.md"}]`, "You've modified 2 files recently"},
		{"recent none", ToolLastModifiedFiles, nil, "0", "Hmm, I couldn't determine your recent file activity"},
		{"recent garbage", ToolLastModifiedFiles, nil, "lots", "Hmm, I couldn't determine your recent file activity"},
		{"screenpipe", ToolQueryScreenpipe, nil, "anything", "Screenpipe data successfully queried and added to context"},
		{"productivity", ToolAnalyzeProductivity, map[string]any{"days": 7}, "x", "Productivity analysis completed for the last 7 days"},
		{"meeting", ToolSummarizeMeeting, nil, "x", "Meeting summary generated"},
		{"project", ToolTrackProjectTime, map[string]any{"projectKeyword": "apollo", "days": 30}, "x", `Project time tracked for "apollo" over the last 30 days`},
		{"search none", ToolSearchNotes, nil, "[]", "No files matching that criteria were found"},
		{"search error", ToolSearchNotes, nil, `{"error":"disk on fire"}`, "Couldn't search your notes: disk on fire"},
		{"transcript ok", ToolYouTubeTranscript, nil, `{"transcript":"hello world","title":"T","videoId":"abc123def45"}`, "YouTube transcript successfully retrieved"},
		{"transcript error", ToolYouTubeTranscript, nil, `{"error":"no captions"}`, "Oops! Couldn't fetch the transcript: no captions"},
		{"transcript garbage", ToolYouTubeTranscript, nil, "not json", "Error parsing the transcript result"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := render(t, settled("1", tt.tool, tt.args, tt.result))
			assert.Equal(t, StateSettled, v.State)
			assert.Equal(t, tt.want, v.Message)
			assert.Nil(t, v.Done)
		})
	}
}

func TestRenderSearchResultsTable(t *testing.T) {
	v := render(t, settled("1", ToolSearchNotes, map[string]any{"query": "alpha"},
		`[{"title":"a","content":"alpha","reference":"Search query: alpha","path":"a.md"},{"title":"b","content":"alpha","reference":"Search query: alpha","path":"sub/b.md"}]`))

	assert.Equal(t, "Found 2 matching notes", v.Message)
	require.Len(t, v.Blocks, 1)
	require.NotNil(t, v.Blocks[0].Table)
	assert.Equal(t, [][]string{{"a", "a.md"}, {"b", "sub/b.md"}}, v.Blocks[0].Table.Rows)
}

func TestRenderConfirmation(t *testing.T) {
	args := map[string]any{"message": "Delete the draft?"}

	t.Run("pending offers both actions", func(t *testing.T) {
		v := render(t, pending("1", ToolAskForConfirmation, args))
		assert.Equal(t, "Delete the draft?", v.Message)
		assert.True(t, v.Interactive())
		assert.Equal(t, []Action{{ID: ActionConfirm, Label: "Confirm"}, {ID: ActionCancel, Label: "Cancel"}}, v.Actions)
		assert.Nil(t, v.Done)
	})

	t.Run("settled shows the answer", func(t *testing.T) {
		v := render(t, settled("1", ToolAskForConfirmation, args, ConfirmedResult))
		assert.Equal(t, "Delete the draft?", v.Message)
		assert.Equal(t, ConfirmedResult, v.Emphasis)
		assert.Empty(t, v.Actions)
		assert.False(t, v.Interactive())
	})
}

func TestRenderUnknownTool(t *testing.T) {
	for _, inv := range []Invocation{
		pending("1", "launchRocket", map[string]any{"target": "moon"}),
		settled("1", "launchRocket", nil, "done"),
	} {
		v := render(t, inv)
		assert.Equal(t, FallbackTitle, v.Title)
		assert.True(t, v.Empty())
		assert.Nil(t, v.Done)
	}
}

func TestParseFileActivity(t *testing.T) {
	n, files := parseFileActivity(`{"count":2,"files":[{"path":"a.md","modified":"2024-01-01 10:00"},{"path":"b.md","modified":"2024-01-02 10:00"}]}`)
	assert.Equal(t, 2, n)
	assert.Len(t, files, 2)

	n, _ = parseFileActivity(" 4 ")
	assert.Equal(t, 4, n)
}
