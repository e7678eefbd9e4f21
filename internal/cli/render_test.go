package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yolodolo42/notecompanion/internal/agent"
)

func TestRenderView_Pending(t *testing.T) {
	out := renderView(80, agent.View{
		Title:   "Searching Notes",
		State:   agent.StatePending,
		Message: "Searching through your notes...",
	})

	assert.Contains(t, out, "Searching Notes")
	assert.Contains(t, out, "Searching through your notes...")
}

func TestRenderView_Actions(t *testing.T) {
	v := agent.View{
		Title:   "Confirmation Required",
		State:   agent.StatePending,
		Message: "Delete the draft?",
		Actions: []agent.Action{
			{ID: agent.ActionConfirm, Label: "Confirm"},
			{ID: agent.ActionCancel, Label: "Cancel"},
		},
	}

	out := renderView(80, v)
	assert.Contains(t, out, "[Confirm] [Cancel]")

	v.State = agent.StateSettled
	v.Emphasis = agent.ConfirmedResult
	out = renderView(80, v)
	assert.NotContains(t, out, "[Confirm]")
	assert.Contains(t, out, agent.ConfirmedResult)
}

func TestRenderView_Blocks(t *testing.T) {
	out := renderView(80, agent.View{
		Title:   "Searching Notes",
		State:   agent.StateSettled,
		Message: "Found 2 matching notes",
		Blocks: []agent.UIBlock{{
			Kind: agent.UIBlockTable,
			Table: &agent.UITable{
				Headers: []string{"Note", "Path"},
				Rows:    [][]string{{"alpha", "alpha.md"}, {"beta", "dir/beta.md"}},
			},
		}},
	})

	lines := strings.Split(out, "\n")
	var tableLines []string
	for _, l := range lines {
		if strings.Contains(l, "|") {
			tableLines = append(tableLines, l)
		}
	}
	assert.Len(t, tableLines, 3)
	for _, l := range tableLines {
		assert.True(t, strings.HasPrefix(l, "  "), "table line not indented: %q", l)
	}
	assert.Contains(t, out, "dir/beta.md")
}

func TestRenderTable_ShrinksToWidth(t *testing.T) {
	out := renderTable(30, &agent.UITable{
		Headers: []string{"Note", "Path"},
		Rows:    [][]string{{"a very long note title indeed", "some/deeply/nested/path.md"}},
	})

	for _, l := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(l), 30, "line too wide: %q", l)
	}
	assert.Contains(t, out, "...")
}

func TestRenderKV(t *testing.T) {
	out := renderKV(80, &agent.UIKV{Items: []agent.KVItem{
		{Key: "Title", Value: "Talk"},
		{Key: "Video", Value: "abc123"},
	}})

	assert.Equal(t, "Title  Talk\nVideo  abc123", out)
}

func TestRenderBlocks_SkipsUnknownKinds(t *testing.T) {
	out := renderBlocks(80, []agent.UIBlock{{Kind: "chart"}})
	assert.Empty(t, out)
}
