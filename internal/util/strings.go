// Package util provides small string helpers shared by the output and gh
// packages.
package util

import "strings"

// TruncateString shortens s to at most maxLen runes, ending in "..." when
// anything was cut. Multi-byte characters are never split.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// Indent prefixes every line of s with prefix. Trailing newlines are
// dropped and blank lines stay blank.
func Indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
