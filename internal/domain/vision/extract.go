package vision

import "strings"

// extractJSONObject returns the first balanced {...} substring of text, or ""
// when none exists. Braces inside JSON strings are skipped, so surrounding
// prose and markdown fences are tolerated. This is a best-effort heuristic:
// callers must still handle a parse failure of the returned text.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
