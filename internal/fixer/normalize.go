package fixer

import (
	"regexp"
	"strings"
)

// classifierRule pairs a pattern with how its match is turned into a kind
// and detail. Bracket rules keep the full error line as the detail; suffix
// rules take the kind from the captured identifier and strip the token.
type classifierRule struct {
	pattern *regexp.Regexp
	bracket bool
}

// Rule order is significant: the bracket patterns must run before the
// generic Error-suffix rule, since bracket messages can also end in a word
// ending in "Error". First match wins.
var classifierRules = []classifierRule{
	{pattern: regexp.MustCompile(`"(\[|\(|\{)" was not closed`), bracket: true},
	{pattern: regexp.MustCompile(`"(\]|\)|\})" was never opened`), bracket: true},
	{pattern: regexp.MustCompile(`(\w*Error):`)},
	{pattern: regexp.MustCompile(`(\w*Exception):`)},
	{pattern: regexp.MustCompile(`(\w*Warning):`)},
}

// Normalize classifies a raw error message into a kind plus a cleaned
// detail string. The last non-empty line of the message is taken as the
// canonical error line; if no rule matches, the error is treated as a
// SyntaxError with the line verbatim.
func Normalize(rawMessage string) NormalizedError {
	errorLine := lastNonEmptyLine(rawMessage)

	kind := "SyntaxError"
	detail := errorLine

	for _, rule := range classifierRules {
		m := rule.pattern.FindStringSubmatch(errorLine)
		if m == nil {
			continue
		}
		if rule.bracket {
			kind = "SyntaxError"
			detail = errorLine
		} else {
			kind = m[1]
			detail = strings.TrimSpace(rule.pattern.ReplaceAllString(errorLine, ""))
		}
		break
	}

	return NormalizedError{
		Kind:       kind,
		Detail:     detail,
		RawMessage: rawMessage,
	}
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
