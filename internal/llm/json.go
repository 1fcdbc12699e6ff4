package llm

import (
	"errors"
	"strings"
)

// ErrNoJSON is returned when no JSON value can be located in model output
var ErrNoJSON = errors.New("no JSON found in response")

// ExtractObject returns the first balanced JSON object in text. Models often
// wrap JSON in markdown fences or surround it with prose.
func ExtractObject(text string) (string, error) {
	return extract(text, '{', '}')
}

// ExtractArray returns the first balanced JSON array in text
func ExtractArray(text string) (string, error) {
	return extract(text, '[', ']')
}

func extract(text string, open, close byte) (string, error) {
	text = stripFences(text)
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", ErrNoJSON
	}
	if end := balancedEnd(text, start); end > 0 {
		return text[start : end+1], nil
	}

	// Unbalanced output: fall back to the last closing delimiter
	if end := strings.LastIndexByte(text, close); end > start {
		return text[start : end+1], nil
	}
	return "", ErrNoJSON
}

// Candidates returns up to limit balanced JSON objects and arrays found in
// text, in order of appearance. Spans nested inside an earlier candidate are
// not reported separately.
func Candidates(text string, limit int) []string {
	text = stripFences(text)
	var out []string
	for i := 0; i < len(text) && len(out) < limit; i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		end := balancedEnd(text, i)
		if end < 0 {
			continue
		}
		out = append(out, text[i:end+1])
		i = end
	}
	return out
}

// balancedEnd returns the index closing the object or array opened at
// start, or -1 when it never closes
func balancedEnd(text string, start int) int {
	open := text[start]
	close := byte('}')
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return text
}
