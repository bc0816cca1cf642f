package fixer

import (
	"fmt"
	"strings"
)

// Confidence levels for the rule-based path. Noticeably lower than what a
// healthy inference round trip reports, so callers can tell the paths apart.
const (
	rulePrimaryConfidence     = 0.9
	ruleAlternativeConfidence = 0.8
	noopPrimaryConfidence     = 0.6
	noopAlternativeConfidence = 0.5
)

// rowWriterCall is the call the statement-separation heuristic looks for.
const rowWriterCall = "writer.writerow"

// RuleRepairer is the deterministic, local fallback: bracket and paren
// balancing plus a punctuation heuristic. It never fails and never makes
// external calls — it is the last line of defense when the inference path
// is unavailable.
type RuleRepairer struct{}

// Repair applies the rule cascade to code for each normalized error in
// order and returns a primary and an alternative candidate.
//
// The alternative bracket candidate is intentionally derived from the
// already-repaired primary rather than the original, representing a
// weaker, non-independent hypothesis.
func (RuleRepairer) Repair(code string, errs []NormalizedError) Suggestion {
	primary := code
	alternative := code

	var fixed []string

	for _, e := range errs {
		if e.Kind != "SyntaxError" {
			continue
		}

		switch {
		case strings.Contains(e.Detail, `"[" was not closed`):
			opens := strings.Count(primary, "[")
			closes := strings.Count(primary, "]")
			if opens > closes {
				missing := opens - closes
				primary += strings.Repeat("]", missing)
				alternative = strings.Replace(primary, "[", "", missing)
				fixed = append(fixed, fmt.Sprintf("Added %d missing closing bracket(s)", missing))
			}

		case strings.Contains(e.Detail, `"(" was not closed`):
			opens := strings.Count(primary, "(")
			closes := strings.Count(primary, ")")
			if opens > closes {
				missing := opens - closes
				primary += strings.Repeat(")", missing)
				alternative = strings.Replace(primary, "(", "", missing)
				fixed = append(fixed, fmt.Sprintf("Added %d missing closing parenthesis/parentheses", missing))
			}

		case strings.Contains(e.Detail, "Statements must be separated"):
			if strings.Contains(primary, rowWriterCall) && !strings.HasSuffix(strings.TrimRight(primary, " \t\n"), ")") {
				primary = strings.TrimRight(primary, " \t\n") + ")"
				alternative = primary
				fixed = append(fixed, "Added missing closing parenthesis for function call")
			}
		}
	}

	s := Suggestion{
		PrimaryFix:     primary,
		AlternativeFix: alternative,
	}
	if len(fixed) > 0 {
		s.PrimaryExplanation = "Fixed syntax errors: " + strings.Join(fixed, ", ")
		s.AlternativeExplanation = "Alternative approach: " + strings.Join(fixed, ", ")
		s.PrimaryConfidence = rulePrimaryConfidence
		s.AlternativeConfidence = ruleAlternativeConfidence
	} else {
		s.PrimaryExplanation = "Fixed syntax errors: Applied standard fixes"
		s.AlternativeExplanation = "Alternative approach: Applied alternative fixes"
		s.PrimaryConfidence = noopPrimaryConfidence
		s.AlternativeConfidence = noopAlternativeConfidence
	}
	return s
}
