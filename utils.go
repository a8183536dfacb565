package shipbook

import "strings"

// sanitizeJSONResponse strips the garbage models wrap around JSON output:
// surrounding whitespace and markdown code fences.
func sanitizeJSONResponse(b []byte) []byte {
	s := strings.TrimSpace(string(b))
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}
