package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// FormatArray and FormatObject describe the shape a structured response
// is expected to take.
const (
	FormatArray  = "array"
	FormatObject = "object"
)

var (
	fenceRe       = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	embeddedArrRe = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
)

// ParseStructured turns a raw model response into structured content. Models
// wrap JSON in markdown fences, prepend prose, or emit slightly broken JSON;
// each of those is recovered in turn. When nothing parses the raw text is
// wrapped so the caller always gets usable content: a single-element list
// with a neutral score for array formats, a bare content object otherwise.
func ParseStructured(raw, formatType string) any {
	cleaned := stripFences(raw)

	if v, ok := tryDecode(cleaned); ok {
		return v
	}

	// The model sometimes narrates around the JSON. Pull out the first
	// embedded array of objects and try that alone.
	if m := embeddedArrRe.FindString(cleaned); m != "" {
		if v, ok := tryDecode(m); ok {
			return v
		}
	}

	// Last structured attempt: repair truncated or malformed JSON.
	if repaired, err := jsonrepair.JSONRepair(cleaned); err == nil {
		if v, ok := tryDecode(repaired); ok {
			return v
		}
	}

	if formatType == FormatArray {
		return []any{map[string]any{"content": raw, "score": 7.5}}
	}
	return map[string]any{"content": raw}
}

// ParseStrict decodes a response into v, applying fence stripping and JSON
// repair but no content fallback. Used where a wrapped-text fallback would
// be worse than an error.
func ParseStrict(raw string, v any) error {
	cleaned := stripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return fmt.Errorf("repair structured response: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode structured response: %w", err)
	}
	return nil
}

// stripFences removes a surrounding markdown code fence and any stray
// leading/trailing backticks or quotes left by the model.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	s = strings.Trim(s, "`")
	// Quoted-JSON responses: the whole payload wrapped in a single pair of
	// quotes without being a valid JSON string.
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && !json.Valid([]byte(s)) {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func tryDecode(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	default:
		// Bare strings and numbers decode but are not structured content.
		return nil, false
	}
}
