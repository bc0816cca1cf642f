package inference

import (
	"fmt"
	"strings"

	"github.com/sajidashaik44/AI-error-fixer/internal/fixer"
)

// buildPrompt enumerates every error and the sanitized code, requesting
// the six-field labeled layout that parseSuggestion expects.
func buildPrompt(code string, errs []fixer.NormalizedError) string {
	var summary strings.Builder
	for i, e := range errs {
		fmt.Fprintf(&summary, "Error %d: %s - %s\n", i+1, e.Kind, e.Detail)
	}

	return fmt.Sprintf(`You are an expert Python debugger. Fix ALL the following errors in this code.

ERRORS TO FIX:
%s
CURRENT CODE:
`+"```python\n%s\n```"+`

Provide EXACTLY this format with clean, executable Python code:

PRIMARY_FIX:
`+"```python\n[Complete fixed code - ready to copy-paste and run]\n```"+`

PRIMARY_EXPLANATION:
[Brief explanation of all fixes applied]

PRIMARY_CONFIDENCE: [0.0 to 1.0]

ALTERNATIVE_FIX:
`+"```python\n[Alternative approach to fix the same issues]\n```"+`

ALTERNATIVE_EXPLANATION:
[Brief explanation of alternative approach]

ALTERNATIVE_CONFIDENCE: [0.0 to 1.0]

Requirements:
- Provide complete, clean, executable Python code
- Fix ALL syntax errors
- No line numbers or comments in the code
- Ready to copy-paste and run
`, summary.String(), code)
}
