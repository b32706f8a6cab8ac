package llm

import (
	"encoding/json"
	"strings"

	cferrors "github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/errors"
)

// DecodeJSON decodes the JSON object in content into v.
//
// Models often wrap structured output in a markdown fence or add a short
// preamble, so decoding falls back to the outermost {...} span before
// giving up with *errors.JSONParseError.
func DecodeJSON(content string, v any) error {
	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return &cferrors.JSONParseError{Input: content, Message: "no JSON object in response"}
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), v); err != nil {
		return &cferrors.JSONParseError{Input: content, Message: err.Error()}
	}
	return nil
}
