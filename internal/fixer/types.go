// Package fixer implements the consolidated error-repair pipeline: error
// normalization, snippet sanitization, the fix cache, the rule-based
// fallback repairer, and the orchestrator that ties them together.
package fixer

// ErrorReport is one raw error delivered by the request boundary.
// Immutable once received.
type ErrorReport struct {
	Message string         `json:"error_message"`
	Snippet string         `json:"code_snippet"`
	Line    int            `json:"line_number"`
	ID      string         `json:"error_id"`
	Context map[string]any `json:"context,omitempty"`
}

// Batch is an ordered list of error reports that share one source file.
type Batch struct {
	Errors   []ErrorReport `json:"errors"`
	FilePath string        `json:"file_path"`
}

// NormalizedError is the classified form of a raw error message.
// Derived, never mutated after creation.
type NormalizedError struct {
	Kind       string // e.g. "SyntaxError", "NameError"
	Detail     string
	RawMessage string
}

// ConsolidatedFix is the single repair covering every error in a batch.
type ConsolidatedFix struct {
	PrimaryFix             string   `json:"primary_fix"`
	PrimaryExplanation     string   `json:"primary_explanation"`
	PrimaryConfidence      float64  `json:"primary_confidence"`
	AlternativeFix         string   `json:"alternative_fix"`
	AlternativeExplanation string   `json:"alternative_explanation"`
	AlternativeConfidence  float64  `json:"alternative_confidence"`
	ErrorsFixed            []string `json:"errors_fixed"`
	TotalErrors            int      `json:"total_errors"`
}

// Response is what FixBatch hands back to the boundary. It is always
// well-formed; Success is false only on the degraded path.
type Response struct {
	ConsolidatedFix ConsolidatedFix `json:"consolidated_fix"`
	ProcessingTime  float64         `json:"processing_time"`
	Success         bool            `json:"success"`
}

// Suggestion is one primary+alternative candidate pair as produced by
// either repair path, before it is assembled into a ConsolidatedFix.
type Suggestion struct {
	PrimaryFix             string
	PrimaryExplanation     string
	PrimaryConfidence      float64
	AlternativeFix         string
	AlternativeExplanation string
	AlternativeConfidence  float64
}
