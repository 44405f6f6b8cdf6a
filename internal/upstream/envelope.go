package upstream

import (
	"encoding/json"
	"io"
	"strings"
)

// envelope is the platform's response shape: {ok, message?, ...payload}.
type envelope map[string]any

func decodeEnvelope(r io.Reader) (envelope, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return envelope{}, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return env, nil
}

// ok treats a missing flag as success; only an explicit false is a business failure.
func (e envelope) ok() bool {
	flag, present := e["ok"]
	if !present {
		return true
	}
	b, isBool := flag.(bool)
	return !isBool || b
}

func (e envelope) message() string {
	if msg, ok := e["message"].(string); ok {
		return strings.TrimSpace(msg)
	}
	if msg, ok := e["error"].(string); ok {
		return strings.TrimSpace(msg)
	}
	return ""
}

func (e envelope) str(key string) string {
	switch v := e[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		raw, _ := json.Marshal(v)
		return strings.Trim(string(raw), `"`)
	}
}

// list returns the array under key, falling back to "data".
func (e envelope) list(key string) []any {
	if items, ok := e[key].([]any); ok {
		return items
	}
	if items, ok := e["data"].([]any); ok {
		return items
	}
	return nil
}

// object returns the map under key, falling back to "data".
func (e envelope) object(key string) map[string]any {
	if obj, ok := e[key].(map[string]any); ok {
		return obj
	}
	if obj, ok := e["data"].(map[string]any); ok {
		return obj
	}
	return nil
}

// total prefers the server count and falls back to the page length.
func (e envelope) total(fallback int) int {
	if n, ok := e["total"].(float64); ok && n > 0 {
		return int(n)
	}
	return fallback
}
