package llm

import "strings"

// unwrapJSONFence strips a markdown code fence around a JSON payload, if
// present. Some providers wrap structured responses in ```json ... ``` or
// plain ``` ... ``` blocks despite being asked for raw JSON.
func unwrapJSONFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(s[:nl])
		if firstLine == "" || strings.EqualFold(firstLine, "json") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
