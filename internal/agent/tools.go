package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yolodolo42/notecompanion/internal/vault"
)

const (
	defaultRecentFiles = 10
	recentWindow       = 7 * 24 * time.Hour
	maxNoteChars       = 20000
)

// NoteContent is one note added to the model's context
type NoteContent struct {
	Title   string `json:"title"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// NotesForDateRangeResult is reported for getNotesForDateRange
type NotesForDateRangeResult struct {
	Period string        `json:"period"`
	Notes  []NoteContent `json:"notes"`
}

// FileActivity is one recently modified file
type FileActivity struct {
	Path     string `json:"path"`
	Modified string `json:"modified"`
}

// LastModifiedFilesResult is reported for getLastModifiedFiles
type LastModifiedFilesResult struct {
	Count int            `json:"count"`
	Files []FileActivity `json:"files"`
}

// HostHandler executes a tool on behalf of the host application
type HostHandler func(ctx context.Context, call Call) (any, error)

// HostTools runs the tools whose results the embedding application produces
// (the dispatcher only renders them).
type HostTools struct {
	handlers map[string]HostHandler
	vault    vault.Vault
	now      func() time.Time
}

// NewHostTools creates the host tool set backed by v
func NewHostTools(v vault.Vault) *HostTools {
	h := &HostTools{
		handlers: make(map[string]HostHandler),
		vault:    v,
		now:      time.Now,
	}

	h.handlers[ToolNotesForDateRange] = h.handleNotesForDateRange
	h.handlers[ToolLastModifiedFiles] = h.handleLastModifiedFiles

	return h
}

// Handles reports whether the host can execute toolName
func (h *HostTools) Handles(toolName string) bool {
	_, ok := h.handlers[toolName]
	return ok
}

// Names returns the tool names the host executes, sorted
func (h *HostTools) Names() []string {
	names := make([]string, 0, len(h.handlers))
	for name := range h.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the host handler for inv
func (h *HostTools) Execute(ctx context.Context, inv Invocation) (any, error) {
	handler, ok := h.handlers[inv.ToolName]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", inv.ToolName)
	}
	if h.vault == nil {
		return nil, fmt.Errorf("no vault configured")
	}
	return handler(ctx, Decode(inv))
}

func (h *HostTools) handleNotesForDateRange(ctx context.Context, call Call) (any, error) {
	params, _ := call.(NotesForDateRange)

	start, err := parseDate(params.StartDate, false)
	if err != nil {
		return nil, fmt.Errorf("invalid startDate: %w", err)
	}
	end := h.now()
	if params.EndDate != "" {
		end, err = parseDate(params.EndDate, true)
		if err != nil {
			return nil, fmt.Errorf("invalid endDate: %w", err)
		}
	}
	if end.Before(start) {
		return nil, fmt.Errorf("endDate is before startDate")
	}

	docs, err := h.vault.List(ctx)
	if err != nil {
		return nil, err
	}

	result := NotesForDateRangeResult{
		Period: fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		Notes:  make([]NoteContent, 0),
	}
	for _, doc := range vault.ModifiedBetween(docs, start, end) {
		content, err := h.vault.Read(ctx, doc)
		if err != nil {
			return nil, err
		}
		if len(content) > maxNoteChars {
			content = content[:maxNoteChars]
		}
		result.Notes = append(result.Notes, NoteContent{Title: doc.Basename, Path: doc.Path, Content: content})
	}
	return result, nil
}

func (h *HostTools) handleLastModifiedFiles(ctx context.Context, call Call) (any, error) {
	params, _ := call.(LastModifiedFiles)
	limit := params.Count
	if limit <= 0 {
		limit = defaultRecentFiles
	}

	docs, err := h.vault.List(ctx)
	if err != nil {
		return nil, err
	}

	recent := vault.ModifiedSince(docs, h.now().Add(-recentWindow))
	if len(recent) > limit {
		recent = recent[:limit]
	}

	result := LastModifiedFilesResult{Count: len(recent), Files: make([]FileActivity, 0, len(recent))}
	for _, doc := range recent {
		result.Files = append(result.Files, FileActivity{
			Path:     doc.Path,
			Modified: doc.ModTime.Format("2006-01-02 15:04"),
		})
	}
	return result, nil
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
