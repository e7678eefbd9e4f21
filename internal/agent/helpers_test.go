package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yolodolo42/notecompanion/internal/vault"
)

// memVault is an in-memory vault.Vault
type memVault struct {
	docs    []vault.Document
	content map[string]string
	readErr error
}

func newMemVault() *memVault {
	return &memVault{content: make(map[string]string)}
}

func (m *memVault) add(path, content string, modTime time.Time) *memVault {
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			base = path[i+1:]
			break
		}
	}
	if len(base) > 3 && base[len(base)-3:] == ".md" {
		base = base[:len(base)-3]
	}
	m.docs = append(m.docs, vault.Document{Path: path, Basename: base, ModTime: modTime})
	m.content[path] = content
	return m
}

func (m *memVault) List(ctx context.Context) ([]vault.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]vault.Document, len(m.docs))
	copy(out, m.docs)
	return out, nil
}

func (m *memVault) Read(ctx context.Context, doc vault.Document) (string, error) {
	if m.readErr != nil {
		return "", m.readErr
	}
	c, ok := m.content[doc.Path]
	if !ok {
		return "", fmt.Errorf("no such note: %s", doc.Path)
	}
	return c, nil
}

// recordingReporter collects every reported result
type recordingReporter struct {
	mu      sync.Mutex
	results []ToolResult
}

func (r *recordingReporter) ReportResult(result ToolResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recordingReporter) all() []ToolResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ToolResult, len(r.results))
	copy(out, r.results)
	return out
}

// fakeTranscripts is a TranscriptFetcher with canned answers
type fakeTranscripts struct {
	transcript string
	title      string
	err        error
	panicWith  any
	block      chan struct{}
	calls      int
	mu         sync.Mutex
}

func (f *fakeTranscripts) Transcript(ctx context.Context, videoID string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.transcript, nil
}

func (f *fakeTranscripts) Title(ctx context.Context, videoID string) (string, error) {
	return f.title, nil
}

func (f *fakeTranscripts) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func strPtr(s string) *string { return &s }

func pending(id, tool string, args map[string]any) Invocation {
	return Invocation{ToolCallID: id, ToolName: tool, Args: args}
}

func settled(id, tool string, args map[string]any, result string) Invocation {
	return Invocation{ToolCallID: id, ToolName: tool, Args: args, Result: strPtr(result)}
}
