package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	redactedValue = "***REDACTED***"
	// maxLoggedString caps argument strings such as whole note bodies
	maxLoggedString = 512
)

var redactKeys = map[string]struct{}{
	"api_key":       {},
	"apikey":        {},
	"key":           {},
	"token":         {},
	"access_token":  {},
	"authorization": {},
	"password":      {},
	"secret":        {},
	"rootkey":       {},
}

// RedactJSONArgs returns raw with credential-like fields masked and long
// strings shortened. Input that is not JSON is returned unchanged.
func RedactJSONArgs(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}

	b, err := json.Marshal(redactValue(v))
	if err != nil {
		return raw
	}
	return string(b)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			if _, ok := redactKeys[strings.ToLower(k)]; ok {
				out[k] = redactedValue
				continue
			}
			out[k] = redactValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = redactValue(t[i])
		}
		return out
	case string:
		if len(t) > maxLoggedString {
			return fmt.Sprintf("%s... (%d bytes)", t[:maxLoggedString], len(t))
		}
		return t
	default:
		return v
	}
}
