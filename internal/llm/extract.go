package llm

import (
	"encoding/json"
	"strings"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
)

// ExtractObject decodes a JSON object from model output that may be wrapped
// in prose or markdown fences. It tries, in order: the whole string, a fenced
// code block, and the outermost brace span.
func ExtractObject(s string, v any) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return apperrors.New(apperrors.CodeParseFailed, "empty model output")
	}

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	if fenced := stripFence(trimmed); fenced != "" {
		if err := json.Unmarshal([]byte(fenced), v); err == nil {
			return nil
		}
	}

	open := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if open >= 0 && end > open {
		if err := json.Unmarshal([]byte(trimmed[open:end+1]), v); err == nil {
			return nil
		}
	}

	return apperrors.New(apperrors.CodeParseFailed, "no JSON object found in model output")
}

// ExtractObjectAnchored locates the JSON object containing the given quoted
// key and decodes it. Useful for reasoning-channel output where the object
// is buried in chain-of-thought prose with stray braces around it.
func ExtractObjectAnchored(s, key string, v any) error {
	anchor := strings.Index(s, `"`+key+`"`)
	if anchor < 0 {
		return ExtractObject(s, v)
	}

	open := strings.LastIndex(s[:anchor], "{")
	if open < 0 {
		return ExtractObject(s, v)
	}

	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				if err := json.Unmarshal([]byte(s[open:i+1]), v); err == nil {
					return nil
				}
				return ExtractObject(s, v)
			}
		}
	}

	return ExtractObject(s, v)
}

func stripFence(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Skip the language tag on the fence line.
		if lang := strings.TrimSpace(rest[:nl]); lang == "json" || lang == "" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
