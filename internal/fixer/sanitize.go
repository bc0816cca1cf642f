package fixer

import (
	"regexp"
	"strings"
)

const cursorMarker = ">>>"

// Context lines injected by the editor around the reported snippet. Lines
// starting with these prefixes are presentation only and never part of the
// original source.
var contextMarkerPrefixes = []string{
	"# File imports:",
	"# Function context:",
}

// cursorIndentOffset is the number of columns the cursor marker pads onto a
// line. Subtracting it from the original leading-whitespace count recovers
// the plausible original alignment.
const cursorIndentOffset = 4

var lineNumberPrefix = regexp.MustCompile(`^\s*\d+:\s*`)

// Sanitize strips presentation artifacts (injected context comments, cursor
// markers, line-number prefixes) from a code snippet, recovering the
// plausible original source text. Pure and idempotent.
func Sanitize(snippet string) string {
	lines := strings.Split(snippet, "\n")
	clean := make([]string, 0, len(lines))

	for _, line := range lines {
		if isContextMarker(line) {
			continue
		}

		cleanLine := line
		if strings.Contains(cleanLine, cursorMarker) {
			cleanLine = strings.TrimSpace(strings.ReplaceAll(cleanLine, cursorMarker, ""))
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			cleanLine = strings.Repeat(" ", max(indent-cursorIndentOffset, 0)) + cleanLine
		}

		cleanLine = lineNumberPrefix.ReplaceAllString(cleanLine, "")

		// Drop lines that were nothing but a line-number marker, but keep
		// genuinely blank original lines.
		if strings.TrimSpace(cleanLine) != "" || strings.TrimSpace(line) == "" {
			clean = append(clean, cleanLine)
		}
	}

	return strings.TrimSpace(strings.Join(clean, "\n"))
}

func isContextMarker(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range contextMarkerPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
