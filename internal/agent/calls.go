package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Call is the typed form of an invocation: one variant per known tool plus
// Unknown. Each variant knows how to describe itself while Pending and how to
// summarize its result once Settled.
type Call interface {
	ToolName() string
	renderPending(v *View)
	renderSettled(result string, v *View)
}

// actionCall is implemented by variants that do their own I/O while Pending
type actionCall interface {
	Call
	perform(ctx context.Context, d *Dispatcher) (any, error)
}

// Decode converts an invocation into its typed variant. Args that do not fit
// the variant's shape leave it zero-valued so rendering never fails.
func Decode(inv Invocation) Call {
	switch inv.ToolName {
	case ToolNotesForDateRange:
		return decodeArgs[NotesForDateRange](inv.Args)
	case ToolSearchNotes:
		return decodeArgs[SearchNotes](inv.Args)
	case ToolAskForConfirmation:
		return decodeArgs[Confirmation](inv.Args)
	case ToolYouTubeTranscript:
		return decodeArgs[YouTubeTranscript](inv.Args)
	case ToolModifyCurrentNote:
		return decodeArgs[ModifyNote](inv.Args)
	case ToolLastModifiedFiles:
		return decodeArgs[LastModifiedFiles](inv.Args)
	case ToolQueryScreenpipe:
		return decodeArgs[QueryScreenpipe](inv.Args)
	case ToolAnalyzeProductivity:
		return decodeArgs[AnalyzeProductivity](inv.Args)
	case ToolSummarizeMeeting:
		return decodeArgs[SummarizeMeeting](inv.Args)
	case ToolTrackProjectTime:
		return decodeArgs[TrackProjectTime](inv.Args)
	default:
		return Unknown{Name: inv.ToolName}
	}
}

func decodeArgs[T any](args map[string]any) T {
	var out T
	if len(args) == 0 {
		return out
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out
	}
	if err := decoder.Decode(args); err != nil {
		var zero T
		return zero
	}
	return out
}

// NotesForDateRange asks the host to add notes from a period to the context
type NotesForDateRange struct {
	StartDate string `mapstructure:"startDate"`
	EndDate   string `mapstructure:"endDate"`
}

func (NotesForDateRange) ToolName() string { return ToolNotesForDateRange }

func (NotesForDateRange) renderPending(v *View) {
	v.Message = "Retrieving your notes for the specified time period..."
}

func (NotesForDateRange) renderSettled(result string, v *View) {
	period := result
	var payload NotesForDateRangeResult
	if err := json.Unmarshal([]byte(result), &payload); err == nil && payload.Period != "" {
		period = payload.Period
		if len(payload.Notes) > 0 {
			rows := make([][]string, 0, len(payload.Notes))
			for _, n := range payload.Notes {
				rows = append(rows, []string{n.Title, n.Path})
			}
			v.Blocks = []UIBlock{{Kind: UIBlockTable, Table: &UITable{Headers: []string{"Note", "Path"}, Rows: rows}}}
		}
	}
	v.Message = "All notes modified within the following time period were added to the AI context: " + period
}

// SearchNotes scans the vault for notes containing every query term
type SearchNotes struct {
	Query string `mapstructure:"query"`
}

func (SearchNotes) ToolName() string { return ToolSearchNotes }

func (SearchNotes) renderPending(v *View) {
	v.Message = "Searching through your notes..."
}

func (SearchNotes) renderSettled(result string, v *View) {
	if msg, ok := parseErrorResult(result); ok {
		v.Message = "Couldn't search your notes: " + msg
		return
	}
	var results []SearchResult
	if err := json.Unmarshal([]byte(result), &results); err != nil || len(results) == 0 {
		v.Message = "No files matching that criteria were found"
		return
	}
	v.Message = fmt.Sprintf("Found %d matching notes", len(results))

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Title, r.Path})
	}
	v.Blocks = []UIBlock{{Kind: UIBlockTable, Table: &UITable{Headers: []string{"Note", "Path"}, Rows: rows}}}
}

func (c SearchNotes) perform(ctx context.Context, d *Dispatcher) (any, error) {
	results, err := SearchNotesIn(ctx, d.vault, c.Query)
	if err != nil {
		return nil, err
	}
	if d.onSearchResults != nil {
		d.onSearchResults(results)
	}
	return results, nil
}

// Confirmation asks the user to confirm or cancel. It never resolves itself.
type Confirmation struct {
	Message string `mapstructure:"message"`
}

func (Confirmation) ToolName() string { return ToolAskForConfirmation }

func (c Confirmation) renderPending(v *View) {
	v.Message = c.Message
	v.Actions = []Action{
		{ID: ActionConfirm, Label: "Confirm"},
		{ID: ActionCancel, Label: "Cancel"},
	}
}

func (c Confirmation) renderSettled(result string, v *View) {
	v.Message = c.Message
	v.Emphasis = result
}

// YouTubeTranscript fetches the transcript and title of a video
type YouTubeTranscript struct {
	VideoID string `mapstructure:"videoId"`
}

// TranscriptResult is the payload reported by YouTubeTranscript
type TranscriptResult struct {
	Transcript string `json:"transcript"`
	Title      string `json:"title"`
	VideoID    string `json:"videoId"`
}

func (YouTubeTranscript) ToolName() string { return ToolYouTubeTranscript }

func (YouTubeTranscript) renderPending(v *View) {
	v.Message = "Fetching the video transcript..."
}

func (YouTubeTranscript) renderSettled(result string, v *View) {
	if msg, ok := parseErrorResult(result); ok {
		v.Message = "Oops! Couldn't fetch the transcript: " + msg
		return
	}
	var tr TranscriptResult
	if err := json.Unmarshal([]byte(result), &tr); err != nil {
		v.Message = "Error parsing the transcript result"
		return
	}
	v.Message = "YouTube transcript successfully retrieved"
	if tr.Title != "" || tr.VideoID != "" {
		v.Blocks = []UIBlock{{Kind: UIBlockKV, KV: &UIKV{Items: []KVItem{
			{Key: "Title", Value: tr.Title},
			{Key: "Video", Value: tr.VideoID},
			{Key: "Words", Value: strconv.Itoa(len(strings.Fields(tr.Transcript)))},
		}}}}
	}
}

func (c YouTubeTranscript) perform(ctx context.Context, d *Dispatcher) (any, error) {
	if d.transcripts == nil {
		return nil, fmt.Errorf("transcript fetching is not configured")
	}
	transcript, err := d.transcripts.Transcript(ctx, c.VideoID)
	if err != nil {
		return nil, err
	}
	title, err := d.transcripts.Title(ctx, c.VideoID)
	if err != nil {
		return nil, err
	}
	tr := TranscriptResult{Transcript: transcript, Title: title, VideoID: c.VideoID}
	if d.onTranscript != nil {
		d.onTranscript(tr)
	}
	return tr, nil
}

// ModifyNote is applied by the host; we only show progress
type ModifyNote struct {
	Content string `mapstructure:"content"`
}

func (ModifyNote) ToolName() string { return ToolModifyCurrentNote }

func (ModifyNote) renderPending(v *View) {
	v.Message = "Applying changes to your note..."
}

func (ModifyNote) renderSettled(result string, v *View) {
	v.Message = "Changes applied: " + result
}

// LastModifiedFiles reports recent file activity
type LastModifiedFiles struct {
	Count int `mapstructure:"count"`
}

func (LastModifiedFiles) ToolName() string { return ToolLastModifiedFiles }

func (LastModifiedFiles) renderPending(v *View) {
	v.Message = "Checking your recent file activity..."
}

func (LastModifiedFiles) renderSettled(result string, v *View) {
	count, files := parseFileActivity(result)
	if count <= 0 {
		v.Message = "Hmm, I couldn't determine your recent file activity"
		return
	}
	plural := ""
	if count > 1 {
		plural = "s"
	}
	v.Message = fmt.Sprintf("You've modified %d file%s recently", count, plural)
	if len(files) > 0 {
		rows := make([][]string, 0, len(files))
		for _, f := range files {
			rows = append(rows, []string{f.Path, f.Modified})
		}
		v.Blocks = []UIBlock{{Kind: UIBlockTable, Table: &UITable{Headers: []string{"File", "Modified"}, Rows: rows}}}
	}
}

// parseFileActivity accepts a bare count, a JSON array or a LastModifiedFilesResult
func parseFileActivity(result string) (int, []FileActivity) {
	trimmed := strings.TrimSpace(result)
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n, nil
	}
	var payload LastModifiedFilesResult
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		if payload.Count == 0 {
			payload.Count = len(payload.Files)
		}
		return payload.Count, payload.Files
	}
	var list []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		return len(list), nil
	}
	return 0, nil
}

// QueryScreenpipe is answered by the host's screen recorder integration
type QueryScreenpipe struct {
	Query     string `mapstructure:"q"`
	StartTime string `mapstructure:"startTime"`
	EndTime   string `mapstructure:"endTime"`
}

func (QueryScreenpipe) ToolName() string { return ToolQueryScreenpipe }

func (QueryScreenpipe) renderPending(v *View) {
	v.Message = "Querying Screenpipe data..."
}

func (QueryScreenpipe) renderSettled(_ string, v *View) {
	v.Message = "Screenpipe data successfully queried and added to context"
}

// AnalyzeProductivity summarizes the user's activity over a number of days
type AnalyzeProductivity struct {
	Days int `mapstructure:"days"`
}

func (AnalyzeProductivity) ToolName() string { return ToolAnalyzeProductivity }

func (c AnalyzeProductivity) renderPending(v *View) {
	v.Message = fmt.Sprintf("Analyzing productivity for the last %d days...", c.Days)
}

func (c AnalyzeProductivity) renderSettled(_ string, v *View) {
	v.Message = fmt.Sprintf("Productivity analysis completed for the last %d days", c.Days)
}

// SummarizeMeeting condenses recent meeting audio
type SummarizeMeeting struct {
	Duration int `mapstructure:"duration"`
}

func (SummarizeMeeting) ToolName() string { return ToolSummarizeMeeting }

func (SummarizeMeeting) renderPending(v *View) {
	v.Message = "Summarizing meeting audio..."
}

func (SummarizeMeeting) renderSettled(_ string, v *View) {
	v.Message = "Meeting summary generated"
}

// TrackProjectTime estimates time spent on a project
type TrackProjectTime struct {
	ProjectKeyword string `mapstructure:"projectKeyword"`
	Days           int    `mapstructure:"days"`
}

func (TrackProjectTime) ToolName() string { return ToolTrackProjectTime }

func (c TrackProjectTime) renderPending(v *View) {
	v.Message = fmt.Sprintf("Tracking time for project \"%s\" over the last %d days...", c.ProjectKeyword, c.Days)
}

func (c TrackProjectTime) renderSettled(_ string, v *View) {
	v.Message = fmt.Sprintf("Project time tracked for \"%s\" over the last %d days", c.ProjectKeyword, c.Days)
}

// Unknown is any tool name outside the known set. It renders nothing.
type Unknown struct {
	Name string
}

func (u Unknown) ToolName() string { return u.Name }

func (Unknown) renderPending(*View) {}

func (Unknown) renderSettled(string, *View) {}
