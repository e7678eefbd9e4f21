package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome is the dual-channel result of a tool action:
// - Result: the text reported upstream (what the model sees)
// - Value: the typed payload for in-process callers, no re-render needed
type Outcome struct {
	Result string `json:"result"`
	Value  any    `json:"-"`
}

// ErrorResult is the payload reported when a tool action fails
type ErrorResult struct {
	Error string `json:"error"`
}

// Failed reports whether the outcome carries an ErrorResult
func (o Outcome) Failed() bool {
	_, ok := o.Value.(ErrorResult)
	return ok
}

// encodeResult serializes a payload for reporting: strings go through as-is,
// everything else as JSON.
func encodeResult(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "null"
	}
	b, err := json.Marshal(value)
	if err != nil {
		fallback, _ := json.Marshal(ErrorResult{Error: fmt.Sprintf("failed to encode result: %v", err)})
		return string(fallback)
	}
	return string(b)
}

// IsErrorResult reports whether a reported result is an {"error": ...} payload
func IsErrorResult(result string) bool {
	_, ok := parseErrorResult(result)
	return ok
}

func parseErrorResult(result string) (string, bool) {
	trimmed := strings.TrimSpace(result)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var payload struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil || payload.Error == nil {
		return "", false
	}
	return *payload.Error, true
}
