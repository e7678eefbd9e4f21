package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func await(t *testing.T, v View) Outcome {
	t.Helper()
	require.NotNil(t, v.Done, "expected the render to start an action")
	select {
	case out, ok := <-v.Done:
		require.True(t, ok, "Done closed without an outcome")
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("action did not finish")
		return Outcome{}
	}
}

func TestDispatcher_SearchAction(t *testing.T) {
	v := newMemVault().
		add("alpha.md", "alpha beta", time.Now()).
		add("only-alpha.md", "alpha only", time.Now()).
		add("reversed.md", "Beta then ALPHA", time.Now())

	reporter := &recordingReporter{}
	var seen []SearchResult
	d := NewDispatcher(reporter, nil, WithVault(v), OnSearchResults(func(r []SearchResult) { seen = r }))

	inv := pending("call-1", ToolSearchNotes, map[string]any{"query": "alpha beta"})
	view := d.Render(context.Background(), inv)
	assert.Equal(t, "Searching through your notes...", view.Message)

	out := await(t, view)
	require.False(t, out.Failed())
	results, ok := out.Value.([]SearchResult)
	require.True(t, ok)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Title)
	assert.Equal(t, "reversed", results[1].Title)
	assert.Equal(t, "Search query: alpha beta", results[0].Reference)
	assert.Equal(t, results, seen)

	reported := reporter.all()
	require.Len(t, reported, 1)
	assert.Equal(t, "call-1", reported[0].ToolCallID)
	assert.Equal(t, out.Result, reported[0].Result)

	var decoded []SearchResult
	require.NoError(t, json.Unmarshal([]byte(reported[0].Result), &decoded))
	assert.Equal(t, results, decoded)
}

func TestDispatcher_SearchNoMatchesReportsEmptyList(t *testing.T) {
	v := newMemVault().add("a.md", "nothing here", time.Now())
	reporter := &recordingReporter{}
	d := NewDispatcher(reporter, nil, WithVault(v))

	out := await(t, d.Render(context.Background(), pending("1", ToolSearchNotes, map[string]any{"query": "zebra"})))
	assert.Equal(t, "[]", out.Result)

	view := d.Render(context.Background(), settled("1", ToolSearchNotes, nil, out.Result))
	assert.Equal(t, "No files matching that criteria were found", view.Message)
}

func TestDispatcher_RerenderDoesNotRestart(t *testing.T) {
	fetcher := &fakeTranscripts{transcript: "hi", title: "T", block: make(chan struct{})}
	reporter := &recordingReporter{}
	tracker := NewTracker()
	d := NewDispatcher(reporter, tracker, WithTranscripts(fetcher))

	inv := pending("vid-1", ToolYouTubeTranscript, map[string]any{"videoId": "abc123def45"})
	first := d.Render(context.Background(), inv)
	require.NotNil(t, first.Done)

	for i := 0; i < 5; i++ {
		again := d.Render(context.Background(), inv)
		assert.Nil(t, again.Done)
		assert.Equal(t, "Fetching the video transcript...", again.Message)
	}

	close(fetcher.block)
	out := await(t, first)
	assert.False(t, out.Failed())
	assert.Equal(t, 1, fetcher.callCount())
	assert.Len(t, reporter.all(), 1)

	// A second dispatcher sharing the tracker also leaves it alone
	other := NewDispatcher(reporter, tracker, WithTranscripts(fetcher))
	assert.Nil(t, other.Render(context.Background(), inv).Done)
	assert.Equal(t, 1, fetcher.callCount())
}

func TestDispatcher_TranscriptResult(t *testing.T) {
	fetcher := &fakeTranscripts{transcript: "never gonna give you up", title: "Rick"}
	var got TranscriptResult
	d := NewDispatcher(nil, nil, WithTranscripts(fetcher), OnTranscript(func(tr TranscriptResult) { got = tr }))

	out := await(t, d.Render(context.Background(), pending("1", ToolYouTubeTranscript, map[string]any{"videoId": "dQw4w9WgXcQ"})))
	want := TranscriptResult{Transcript: "never gonna give you up", Title: "Rick", VideoID: "dQw4w9WgXcQ"}
	assert.Equal(t, want, out.Value)
	assert.Equal(t, want, got)
	assert.JSONEq(t, `{"transcript":"never gonna give you up","title":"Rick","videoId":"dQw4w9WgXcQ"}`, out.Result)

	view := d.Render(context.Background(), settled("1", ToolYouTubeTranscript, nil, out.Result))
	require.Len(t, view.Blocks, 1)
	assert.Equal(t, UIBlockKV, view.Blocks[0].Kind)
}

func TestDispatcher_ActionErrorBecomesErrorPayload(t *testing.T) {
	fetcher := &fakeTranscripts{err: errors.New("captions disabled")}
	reporter := &recordingReporter{}
	d := NewDispatcher(reporter, nil, WithTranscripts(fetcher))

	out := await(t, d.Render(context.Background(), pending("1", ToolYouTubeTranscript, map[string]any{"videoId": "abc123def45"})))
	assert.True(t, out.Failed())
	assert.JSONEq(t, `{"error":"captions disabled"}`, out.Result)
	assert.True(t, IsErrorResult(reporter.all()[0].Result))

	view := d.Render(context.Background(), settled("1", ToolYouTubeTranscript, nil, out.Result))
	assert.Equal(t, "Oops! Couldn't fetch the transcript: captions disabled", view.Message)
}

func TestDispatcher_ActionPanicIsRecovered(t *testing.T) {
	fetcher := &fakeTranscripts{panicWith: "boom"}
	reporter := &recordingReporter{}
	d := NewDispatcher(reporter, nil, WithTranscripts(fetcher))

	out := await(t, d.Render(context.Background(), pending("1", ToolYouTubeTranscript, map[string]any{"videoId": "abc123def45"})))
	assert.JSONEq(t, `{"error":"boom"}`, out.Result)
	assert.Len(t, reporter.all(), 1)
}

func TestDispatcher_MissingCollaborators(t *testing.T) {
	d := NewDispatcher(nil, nil)

	out := await(t, d.Render(context.Background(), pending("s", ToolSearchNotes, map[string]any{"query": "x"})))
	assert.JSONEq(t, `{"error":"no vault configured"}`, out.Result)

	out = await(t, d.Render(context.Background(), pending("y", ToolYouTubeTranscript, map[string]any{"videoId": "x"})))
	assert.True(t, out.Failed())
}

func TestDispatcher_CancelledContextStillFinishes(t *testing.T) {
	v := newMemVault().add("a.md", "alpha", time.Now())
	d := NewDispatcher(nil, nil, WithVault(v))

	ctx, cancel := context.WithCancel(context.Background())
	view := d.Render(ctx, pending("1", ToolSearchNotes, map[string]any{"query": "alpha"}))
	cancel()

	out := await(t, view)
	assert.False(t, out.Failed())
}

func TestDispatcher_Choose(t *testing.T) {
	inv := pending("c-1", ToolAskForConfirmation, map[string]any{"message": "Proceed?"})

	t.Run("confirm", func(t *testing.T) {
		reporter := &recordingReporter{}
		d := NewDispatcher(reporter, nil)
		result, err := d.Choose(inv, ActionConfirm)
		require.NoError(t, err)
		assert.Equal(t, ConfirmedResult, result)
		assert.Equal(t, []ToolResult{{ToolCallID: "c-1", Result: ConfirmedResult}}, reporter.all())
	})

	t.Run("cancel", func(t *testing.T) {
		d := NewDispatcher(nil, nil)
		result, err := d.Choose(inv, ActionCancel)
		require.NoError(t, err)
		assert.Equal(t, CancelledResult, result)
	})

	t.Run("second choice is rejected", func(t *testing.T) {
		reporter := &recordingReporter{}
		d := NewDispatcher(reporter, nil)
		_, err := d.Choose(inv, ActionConfirm)
		require.NoError(t, err)
		_, err = d.Choose(inv, ActionCancel)
		assert.ErrorIs(t, err, ErrAlreadyReported)
		assert.Len(t, reporter.all(), 1)
	})

	t.Run("unknown action", func(t *testing.T) {
		d := NewDispatcher(nil, nil)
		_, err := d.Choose(inv, "maybe")
		assert.ErrorIs(t, err, ErrUnknownAction)
	})

	t.Run("settled invocation", func(t *testing.T) {
		d := NewDispatcher(nil, nil)
		_, err := d.Choose(settled("c-1", ToolAskForConfirmation, nil, ConfirmedResult), ActionCancel)
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})

	t.Run("non-interactive tool", func(t *testing.T) {
		d := NewDispatcher(nil, nil)
		_, err := d.Choose(pending("x", ToolModifyCurrentNote, nil), ActionConfirm)
		assert.ErrorIs(t, err, ErrNotInteractive)
	})
}

func TestDispatcher_Settle(t *testing.T) {
	reporter := &recordingReporter{}
	d := NewDispatcher(reporter, nil)
	inv := pending("h-1", ToolLastModifiedFiles, nil)

	out, err := d.Settle(inv, LastModifiedFilesResult{Count: 1, Files: []FileActivity{{Path: "a.md", Modified: "2024-01-01 10:00"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":1,"files":[{"path":"a.md","modified":"2024-01-01 10:00"}]}`, out.Result)

	_, err = d.Settle(inv, "again")
	assert.ErrorIs(t, err, ErrAlreadyReported)

	_, err = d.Settle(settled("h-2", ToolLastModifiedFiles, nil, "1"), "again")
	assert.ErrorIs(t, err, ErrAlreadySettled)

	assert.Len(t, reporter.all(), 1)
}

func TestDispatcher_DuplicateActionResultDropped(t *testing.T) {
	fetcher := &fakeTranscripts{transcript: "t", title: "T", block: make(chan struct{})}
	reporter := &recordingReporter{}
	d := NewDispatcher(reporter, nil, WithTranscripts(fetcher))

	inv := pending("1", ToolYouTubeTranscript, map[string]any{"videoId": "abc123def45"})
	view := d.Render(context.Background(), inv)

	// The host settles first; the action's later result must not be reported
	_, err := d.Settle(inv, ErrorResult{Error: "superseded"})
	require.NoError(t, err)

	close(fetcher.block)
	await(t, view)

	reported := reporter.all()
	require.Len(t, reported, 1)
	assert.JSONEq(t, `{"error":"superseded"}`, reported[0].Result)
}

func TestEncodeResult(t *testing.T) {
	assert.Equal(t, "plain", encodeResult("plain"))
	assert.Equal(t, "null", encodeResult(nil))
	assert.Equal(t, `{"error":"x"}`, encodeResult(ErrorResult{Error: "x"}))
	assert.True(t, IsErrorResult(encodeResult(make(chan int))))
	assert.False(t, IsErrorResult(`{"result":"ok"}`))
	assert.False(t, IsErrorResult("error"))
}
