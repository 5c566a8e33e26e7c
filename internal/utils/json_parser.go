package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedJSONRe     = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	trailingCommaRe  = regexp.MustCompile(`,\s*([}\]])`)
	controlCharsRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	errEmptyAIOutput = errors.New("empty input")
)

// ParseAIJSON decodes a JSON object from model output. It accepts, in order:
// - pure JSON
// - JSON inside a markdown code fence
// - the first balanced {...} in surrounding prose
// - the above with trailing commas, a BOM or control characters removed
func ParseAIJSON(input string, target any) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return errEmptyAIOutput
	}

	candidates := []string{input}
	if m := fencedJSONRe.FindStringSubmatch(input); len(m) > 1 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if obj := ExtractJSONObject(input); obj != "" {
		candidates = append(candidates, obj)
	}

	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), target); err == nil {
			return nil
		}
	}
	for _, c := range candidates {
		if err := json.Unmarshal([]byte(cleanJSON(c)), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", Truncate(input, 100))
}

// ExtractJSONObject returns the first balanced {...} in input, ignoring braces inside strings
func ExtractJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escape := false
	for i := start; i < len(input); i++ {
		ch := input[i]
		switch {
		case escape:
			escape = false
		case ch == '\\' && inString:
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}

func cleanJSON(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\ufeff")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return controlCharsRe.ReplaceAllString(s, "")
}

// Truncate shortens s to maxLen bytes, marking the cut
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
