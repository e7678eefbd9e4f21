package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteTools(t *testing.T) {
	tools := NoteTools()

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)

		var schema map[string]any
		require.NoError(t, json.Unmarshal(tool.InputSchema, &schema), tool.Name)
		assert.Equal(t, "object", schema["type"], tool.Name)
		assert.Contains(t, schema, "properties", tool.Name)
	}

	assert.ElementsMatch(t, []string{
		"getSearchQuery",
		"getYoutubeVideoId",
		"askForConfirmation",
		"getNotesForDateRange",
		"getLastModifiedFiles",
	}, names)
}

func TestNoteToolsRequiredFields(t *testing.T) {
	required := map[string][]string{}
	for _, tool := range NoteTools() {
		var schema JSONSchema
		require.NoError(t, json.Unmarshal(tool.InputSchema, &schema))
		required[tool.Name] = schema.Required
	}

	assert.Equal(t, []string{"query"}, required["getSearchQuery"])
	assert.Equal(t, []string{"videoId"}, required["getYoutubeVideoId"])
	assert.Equal(t, []string{"startDate"}, required["getNotesForDateRange"])
	assert.Empty(t, required["getLastModifiedFiles"])
}
