package util

import (
	"regexp"
	"strings"
)

// Precompiled at package init; matches fenced code blocks with an optional
// yaml/yml language tag.
var yamlCodeBlockRegex = regexp.MustCompile("```(?:yaml|yml)?\\s*\\n([\\s\\S]*?)```")

// ExtractYAML extracts YAML content from a model response that may wrap it
// in a markdown code fence. Models frequently prepend prose before the
// fence, so the first fenced block wins; if no fence is present the
// response is returned trimmed as-is.
func ExtractYAML(s string) string {
	matches := yamlCodeBlockRegex.FindStringSubmatch(s)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return strings.TrimSpace(s)
}
