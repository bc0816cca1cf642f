package fixer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// InferenceEngine is the external text-generation boundary the
// orchestrator consults. Probe must never block past its internal timeout;
// GenerateFix signals failure through its error return so the caller can
// route to the rule-based fallback.
type InferenceEngine interface {
	Probe(ctx context.Context) bool
	GenerateFix(ctx context.Context, code string, errs []NormalizedError, filePath string) (Suggestion, error)
}

// Confidence reported on the degraded path, when orchestration itself
// failed and the sanitized input is returned unmodified.
const degradedConfidence = 0.1

// Orchestrator turns a batch of raw error reports into one consolidated
// fix: fingerprint, cache lookup, inference or rule-based repair, cache
// store. The cache is injected and owned by the caller; there are no
// hidden process-wide singletons.
type Orchestrator struct {
	cache    *Cache
	engine   InferenceEngine
	repairer RuleRepairer
	logger   *zap.Logger
	group    singleflight.Group

	// normalize is swappable so tests can force internal failures.
	normalize func(string) NormalizedError
}

// NewOrchestrator wires an orchestrator. engine may be nil, in which case
// every batch takes the rule-based path. A nil logger is replaced with a
// no-op logger.
func NewOrchestrator(cache *Cache, engine InferenceEngine, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cache:     cache,
		engine:    engine,
		logger:    logger,
		normalize: Normalize,
	}
}

// Fingerprint computes the deterministic cache key input for a batch: the
// ordered sequence of (message, line) pairs. Reordering the errors is a
// different fingerprint by design.
func Fingerprint(batch Batch) string {
	parts := make([]string, len(batch.Errors))
	for i, e := range batch.Errors {
		parts[i] = fmt.Sprintf("%s:%d", e.Message, e.Line)
	}
	return strings.Join(parts, "|")
}

// FixBatch processes a batch end to end and always returns a well-formed
// response: no code path terminates the request abnormally. Unexpected
// internal failures are converted into a degraded low-confidence response
// with Success=false.
func (o *Orchestrator) FixBatch(ctx context.Context, batch Batch) Response {
	start := time.Now()

	fix, err := o.consolidate(ctx, batch)
	if err != nil {
		o.logger.Error("consolidated processing failed", zap.Error(err))
		return Response{
			ConsolidatedFix: o.degradedFix(batch, err),
			ProcessingTime:  time.Since(start).Seconds(),
			Success:         false,
		}
	}

	return Response{
		ConsolidatedFix: fix,
		ProcessingTime:  time.Since(start).Seconds(),
		Success:         true,
	}
}

// consolidate runs fingerprint → cache → repair → store. Panics anywhere
// in the pipeline are recovered into errors so FixBatch can degrade.
func (o *Orchestrator) consolidate(ctx context.Context, batch Batch) (fix ConsolidatedFix, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal failure: %v", r)
		}
	}()

	fingerprint := Fingerprint(batch)

	if cached, ok := o.cache.Get(fingerprint); ok {
		o.logger.Debug("cache hit", zap.Int("errors", len(batch.Errors)))
		return cached, nil
	}

	// Coalesce concurrent misses on the same fingerprint: compute once,
	// store once, share the result.
	v, err, _ := o.group.Do(fingerprint, func() (any, error) {
		computed, cerr := o.compute(ctx, batch)
		if cerr != nil {
			return ConsolidatedFix{}, cerr
		}
		o.cache.Put(fingerprint, computed)
		return computed, nil
	})
	if err != nil {
		return ConsolidatedFix{}, err
	}
	return v.(ConsolidatedFix), nil
}

// compute builds a fresh consolidated fix for a cache miss. All reports in
// a batch are assumed to share one code snippet, so only the first is
// sanitized; divergent snippets within a batch are a known limitation.
func (o *Orchestrator) compute(ctx context.Context, batch Batch) (fix ConsolidatedFix, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal failure: %v", r)
		}
	}()

	code := Sanitize(batch.Errors[0].Snippet)

	normalized := make([]NormalizedError, len(batch.Errors))
	descriptions := make([]string, len(batch.Errors))
	for i, e := range batch.Errors {
		normalized[i] = o.normalize(e.Message)
		descriptions[i] = fmt.Sprintf("Line %d: %s", e.Line, normalized[i].Detail)
	}

	suggestion := o.generate(ctx, code, normalized, batch.FilePath)

	return ConsolidatedFix{
		PrimaryFix:             suggestion.PrimaryFix,
		PrimaryExplanation:     suggestion.PrimaryExplanation,
		PrimaryConfidence:      suggestion.PrimaryConfidence,
		AlternativeFix:         suggestion.AlternativeFix,
		AlternativeExplanation: suggestion.AlternativeExplanation,
		AlternativeConfidence:  suggestion.AlternativeConfidence,
		ErrorsFixed:            descriptions,
		TotalErrors:            len(batch.Errors),
	}, nil
}

// generate tries the inference path when the endpoint is reachable and
// falls back to the rule-based repairer on any failure. The fallback is
// silent to the caller except for different confidence and explanations.
func (o *Orchestrator) generate(ctx context.Context, code string, errs []NormalizedError, filePath string) Suggestion {
	if o.engine != nil && o.engine.Probe(ctx) {
		suggestion, err := o.engine.GenerateFix(ctx, code, errs, filePath)
		if err == nil {
			return suggestion
		}
		o.logger.Warn("inference path failed, falling back to rules", zap.Error(err))
	}
	return o.repairer.Repair(code, errs)
}

// degradedFix is the last-resort result: the sanitized input as the
// primary candidate and a manual-review copy as the alternative.
func (o *Orchestrator) degradedFix(batch Batch, cause error) ConsolidatedFix {
	var code string
	if len(batch.Errors) > 0 {
		code = Sanitize(batch.Errors[0].Snippet)
	}

	return ConsolidatedFix{
		PrimaryFix:             code,
		PrimaryExplanation:     fmt.Sprintf("Processing failed: %v", cause),
		PrimaryConfidence:      degradedConfidence,
		AlternativeFix:         "# TODO: Fix errors manually\n" + code,
		AlternativeExplanation: "Manual review required",
		AlternativeConfidence:  degradedConfidence,
		ErrorsFixed:            []string{fmt.Sprintf("Error processing: %v", cause)},
		TotalErrors:            len(batch.Errors),
	}
}

// CacheStats exposes the injected cache's counters.
func (o *Orchestrator) CacheStats() CacheStats {
	return o.cache.Stats()
}

// ResetCache discards all cached fixes, keeping the capacity.
func (o *Orchestrator) ResetCache() {
	o.cache.Reset()
}
