package llm

import (
	"encoding/json"
)

// Tool represents a tool that can be called by the LLM
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolResult represents the result of a tool call
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error"`
}

// NewTool creates a new tool definition
func NewTool(name, description string, schema interface{}) Tool {
	schemaBytes, _ := json.Marshal(schema)
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: schemaBytes,
	}
}

// JSONSchema is the subset of JSON Schema used for tool parameters
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

func stringProp(description string) Property {
	return Property{Type: "string", Description: description}
}

// NoteTools returns the tools offered to the model during a chat. Names
// match the tool names the dispatcher renders.
func NoteTools() []Tool {
	return []Tool{
		NewTool("getSearchQuery",
			"Search the user's notes for documents containing every word of the query",
			JSONSchema{
				Type:       "object",
				Properties: map[string]Property{"query": stringProp("Words to search for")},
				Required:   []string{"query"},
			}),
		NewTool("getYoutubeVideoId",
			"Fetch the transcript of a YouTube video so it can be summarized or discussed",
			JSONSchema{
				Type:       "object",
				Properties: map[string]Property{"videoId": stringProp("YouTube video id, e.g. dQw4w9WgXcQ")},
				Required:   []string{"videoId"},
			}),
		NewTool("askForConfirmation",
			"Ask the user to confirm before doing something they did not explicitly request",
			JSONSchema{
				Type:       "object",
				Properties: map[string]Property{"message": stringProp("Question shown to the user")},
				Required:   []string{"message"},
			}),
		NewTool("getNotesForDateRange",
			"Load the notes modified within a date range into the conversation",
			JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"startDate": stringProp("Start date, YYYY-MM-DD or RFC 3339"),
					"endDate":   stringProp("End date, YYYY-MM-DD or RFC 3339; defaults to now"),
				},
				Required: []string{"startDate"},
			}),
		NewTool("getLastModifiedFiles",
			"List the notes modified most recently during the last week",
			JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"count": {Type: "integer", Description: "Maximum number of files", Default: 10},
				},
			}),
	}
}
