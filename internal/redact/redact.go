// Package redact scrubs likely secrets from text before it is persisted to
// attempt artifacts or echoed into logs.
package redact

import (
	"fmt"
	"regexp"
)

var (
	// key=value and key: value assignments for common credential names.
	keyValuePattern = regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret|password)\b(\s*[:=]\s*)([^\s"'` + "`" + `]+)`)

	// Authorization-style bearer tokens.
	bearerPattern = regexp.MustCompile(`(?i)\b(Bearer)\s+([A-Za-z0-9._-]+)`)

	// Bare sk-... API keys.
	skKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9]{16,}\b`)
)

// Text returns s with recognizable secrets replaced. The key names and
// separators are kept so the output stays diagnosable.
func Text(s string) string {
	out := keyValuePattern.ReplaceAllString(s, "${1}${2}***")
	out = bearerPattern.ReplaceAllString(out, "${1} ***")
	out = skKeyPattern.ReplaceAllString(out, "sk-***")
	return out
}

const truncateLimit = 8000

// TruncateForLog caps s for warn-level log echoes. The cut is pulled in a
// little so the marker keeps the result near the limit.
func TruncateForLog(s string) string {
	if len(s) <= truncateLimit {
		return s
	}
	return s[:truncateLimit-20] + fmt.Sprintf("\n...[truncated %d chars]", len(s)-truncateLimit)
}
