package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Lifecycle(t *testing.T) {
	l := NewLedger(nil)

	inv := l.Add(pending("1", ToolSearchNotes, map[string]any{"query": "q"}))
	assert.Equal(t, StatePending, inv.State())
	assert.Len(t, l.Pending(), 1)

	require.NoError(t, l.Attach("1", "[]"))
	got, ok := l.Get("1")
	require.True(t, ok)
	assert.Equal(t, StateSettled, got.State())
	assert.Equal(t, "[]", *got.Result)
	assert.Empty(t, l.Pending())

	assert.ErrorIs(t, l.Attach("1", "other"), ErrAlreadySettled)
	assert.ErrorIs(t, l.Attach("missing", "x"), ErrUnknownInvocation)

	got, _ = l.Get("1")
	assert.Equal(t, "[]", *got.Result)
}

func TestLedger_AddKeepsExistingRecord(t *testing.T) {
	l := NewLedger(nil)
	l.Add(pending("1", ToolSearchNotes, nil))
	require.NoError(t, l.Attach("1", "done"))

	again := l.Add(pending("1", ToolSearchNotes, nil))
	assert.True(t, again.Settled())
	assert.Equal(t, "done", *again.Result)
	assert.Len(t, l.All(), 1)
}

func TestLedger_AddCopiesResult(t *testing.T) {
	l := NewLedger(nil)
	result := "original"
	l.Add(Invocation{ToolCallID: "1", ToolName: ToolModifyCurrentNote, Result: &result})
	result = "mutated"

	got, _ := l.Get("1")
	assert.Equal(t, "original", *got.Result)
}

func TestLedger_OrderAndReset(t *testing.T) {
	l := NewLedger(nil)
	for _, id := range []string{"c", "a", "b"} {
		l.Add(pending(id, ToolSearchNotes, nil))
	}

	ids := []string{}
	for _, inv := range l.All() {
		ids = append(ids, inv.ToolCallID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	l.Reset()
	assert.Empty(t, l.All())
}

func TestLedger_AsReporter(t *testing.T) {
	l := NewLedger(nil)
	l.Add(pending("1", ToolAskForConfirmation, map[string]any{"message": "ok?"}))

	d := NewDispatcher(l, nil)
	inv, _ := l.Get("1")
	_, err := d.Choose(inv, ActionConfirm)
	require.NoError(t, err)

	got, _ := l.Get("1")
	assert.Equal(t, ConfirmedResult, *got.Result)

	// Unknown ids are logged, not attached
	l.ReportResult(ToolResult{ToolCallID: "ghost", Result: "x"})
	_, ok := l.Get("ghost")
	assert.False(t, ok)
}
