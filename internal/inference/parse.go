package inference

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sajidashaik44/AI-error-fixer/internal/fixer"
)

// Default confidences reported when the model response omits them.
const (
	defaultPrimaryConfidence     = 0.8
	defaultAlternativeConfidence = 0.7
)

// Tolerant extraction patterns for the six labeled response fields. Each
// field is independently defaulted when its label is missing, so a partial
// or sloppy model response still yields a usable suggestion.
var (
	primaryFixRe  = regexp.MustCompile("(?s)PRIMARY_FIX:\\s*```python\\n(.*?)```")
	primaryExpRe  = regexp.MustCompile(`(?s)PRIMARY_EXPLANATION:\s*(.*?)(?:PRIMARY_CONFIDENCE:|ALTERNATIVE_FIX:|$)`)
	primaryConfRe = regexp.MustCompile(`PRIMARY_CONFIDENCE:\s*(-?[0-9.]+)`)
	altFixRe      = regexp.MustCompile("(?s)ALTERNATIVE_FIX:\\s*```python\\n(.*?)```")
	altExpRe      = regexp.MustCompile(`(?s)ALTERNATIVE_EXPLANATION:\s*(.*?)(?:ALTERNATIVE_CONFIDENCE:|$)`)
	altConfRe     = regexp.MustCompile(`ALTERNATIVE_CONFIDENCE:\s*(-?[0-9.]+)`)
)

// parseSuggestion extracts the six labeled fields from a model response.
// Missing code blocks default to the original code; missing explanations
// to generic placeholders; confidences are clamped to [0,1].
func parseSuggestion(response, originalCode string) fixer.Suggestion {
	s := fixer.Suggestion{
		PrimaryFix:             originalCode,
		PrimaryExplanation:     "Model provided fixes",
		PrimaryConfidence:      defaultPrimaryConfidence,
		AlternativeFix:         originalCode,
		AlternativeExplanation: "Alternative model fixes",
		AlternativeConfidence:  defaultAlternativeConfidence,
	}

	if m := primaryFixRe.FindStringSubmatch(response); m != nil {
		s.PrimaryFix = strings.TrimSpace(m[1])
	}
	if m := primaryExpRe.FindStringSubmatch(response); m != nil && strings.TrimSpace(m[1]) != "" {
		s.PrimaryExplanation = strings.TrimSpace(m[1])
	}
	if m := primaryConfRe.FindStringSubmatch(response); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			s.PrimaryConfidence = clamp(v)
		}
	}
	if m := altFixRe.FindStringSubmatch(response); m != nil {
		s.AlternativeFix = strings.TrimSpace(m[1])
	}
	if m := altExpRe.FindStringSubmatch(response); m != nil && strings.TrimSpace(m[1]) != "" {
		s.AlternativeExplanation = strings.TrimSpace(m[1])
	}
	if m := altConfRe.FindStringSubmatch(response); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			s.AlternativeConfidence = clamp(v)
		}
	}

	return s
}

func clamp(v float64) float64 {
	return min(1.0, max(0.0, v))
}
