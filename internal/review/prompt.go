package review

import (
	"fmt"
	"strings"

	"github.com/sakif/code-review-assistant/internal/model"
)

// UnknownExtension is reported when a filename has no extension.
const UnknownExtension = "unknown"

// FileExtension returns the extension of filename including the leading dot
// (".java" for "a.b.java"). An empty filename or one without a dot yields
// UnknownExtension.
func FileExtension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return UnknownExtension
	}
	return filename[i:]
}

const promptHeader = `You are an expert code analysis tool. Your ONLY output must be a single, valid JSON object. Do not add any text before or after the JSON.
---
CRITICAL INSTRUCTIONS FOR COMPLEXITY:
1. For the "%s" and "%s" keys, the value MUST be a string containing ONLY the Big O notation for the single, overall worst-case complexity of the entire code.
2. DO NOT include explanations, method names, or descriptive text in the complexity value.

- CORRECT Example for the value: "O(n^2)"
- INCORRECT Example for the value: "The function has a complexity of O(n^2) because of the nested loop."
---
Analyze the following source code from a file with extension '%s':
` + "```" + `
%s
` + "```" + `

Generate a single JSON object with the exact keys and structure shown below.

JSON Structure to use:
`

// BuildPrompt renders the review instructions around source. The output is
// a pure function of its inputs.
//
// The JSON skeleton at the end lists model.ReviewKeys in order, so adding a
// key to the schema adds it to the prompt as well.
func BuildPrompt(source, extension string) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptHeader,
		model.KeyTimeComplexity, model.KeySpaceComplexity, extension, source)

	b.WriteString("{\n")
	for i, key := range model.ReviewKeys {
		empty := `""`
		if model.IsListKey(key) {
			empty = "[]"
		}
		fmt.Fprintf(&b, "  %q: %s", key, empty)
		if i < len(model.ReviewKeys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")

	return b.String()
}
