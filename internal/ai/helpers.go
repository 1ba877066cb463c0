package ai

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

//go:embed prompts/anti_spoofing_system.txt
var antiSpoofingSystemPrompt string

//go:embed prompts/anti_spoofing_instruction.txt
var antiSpoofingInstruction string

// verdictMaxTokens caps the reply length; a verdict is one small JSON object.
const verdictMaxTokens = 100

// ErrMalformedReply is returned when a model reply is not the expected JSON.
var ErrMalformedReply = errors.New("malformed anti-spoofing reply")

// SpoofReply is the verdict returned by the model.
type SpoofReply struct {
	// Success is true for a genuine selfie.
	Success bool `json:"success"`
	// Confidence that the image shows a screen, 0-1. Only meaningful when Success is false.
	Confidence float64 `json:"confidence"`
}

// ParseSpoofReply decodes a model reply. Markdown code fences and text around
// the JSON object are tolerated; a missing "success" key is malformed.
func ParseSpoofReply(content string) (*SpoofReply, error) {
	jsonContent := extractJSON(content)

	var raw struct {
		Success    *bool    `json:"success"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w (response: %s)", ErrMalformedReply, err, strings.TrimSpace(content))
	}
	if raw.Success == nil {
		return nil, fmt.Errorf("%w: missing \"success\" (response: %s)", ErrMalformedReply, strings.TrimSpace(content))
	}

	reply := &SpoofReply{Success: *raw.Success}
	if raw.Confidence != nil {
		reply.Confidence = *raw.Confidence
	}
	return reply, nil
}

// ScreenDetected reports whether the reply flags a screen with at least the
// given confidence.
func (r *SpoofReply) ScreenDetected(threshold float64) bool {
	return !r.Success && r.Confidence >= threshold
}

// extractJSON attempts to extract JSON from a response that may contain extra text
func extractJSON(content string) string {
	// Try to find JSON object boundaries
	start := strings.Index(content, "{")
	if start == -1 {
		return content
	}

	// Find matching closing brace
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}

	// If no matching brace found, return from start
	return content[start:]
}
