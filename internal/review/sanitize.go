package review

import "strings"

const fence = "```"

// EmptyObject is what Sanitize returns when there is nothing to decode.
const EmptyObject = "{}"

// Sanitize strips markdown code fences from raw model output.
//
//	"```json\n{\"a\":1}\n```"  →  {"a":1}
//
// Empty input becomes EmptyObject so the parser always receives JSON text.
// A fence that is opened but never closed is left alone: the text is
// returned trimmed but otherwise unchanged.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return EmptyObject
	}

	if !strings.HasPrefix(s, fence) {
		return s
	}

	firstLineEnd := strings.Index(s, "\n")
	closing := strings.LastIndex(s, fence)
	if firstLineEnd < 0 || closing <= firstLineEnd {
		return s
	}

	inner := strings.TrimSpace(s[firstLineEnd+1 : closing])
	if inner == "" {
		return EmptyObject
	}
	return inner
}
