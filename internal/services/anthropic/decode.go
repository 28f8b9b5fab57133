package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON parses a model response into target, tolerating code fences and
// surrounding prose. Models are told to emit bare JSON but do not always obey.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}
	sanitized := sanitizePayload(trimmed)
	if sanitized != "" {
		if err := json.Unmarshal([]byte(sanitized), target); err == nil {
			return nil
		}
	}
	return fmt.Errorf("parse payload %q", snippet(trimmed))
}

func sanitizePayload(payload string) string {
	cleaned := strings.TrimSpace(payload)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}
	if start := strings.IndexAny(cleaned, "{["); start >= 0 {
		open := cleaned[start]
		var close byte = '}'
		if open == '[' {
			close = ']'
		}
		if end := strings.LastIndexByte(cleaned, close); end > start {
			return strings.TrimSpace(cleaned[start : end+1])
		}
	}
	return ""
}

func snippet(payload string) string {
	const max = 120
	if len(payload) <= max {
		return payload
	}
	return payload[:max] + "..."
}
