// Package inference wraps the local Ollama endpoint used to generate
// consolidated fixes: a liveness probe against /api/tags and a single
// generate-and-parse round trip against /api/generate.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sajidashaik44/AI-error-fixer/internal/fixer"
)

// Defaults for the local Ollama endpoint.
const (
	DefaultEndpoint        = "http://localhost:11434"
	DefaultModel           = "codellama:latest"
	DefaultProbeTimeout    = 5 * time.Second
	DefaultGenerateTimeout = 60 * time.Second
)

// Config holds client settings.
type Config struct {
	Endpoint        string
	Model           string
	ProbeTimeout    time.Duration
	GenerateTimeout time.Duration
}

// Client talks to an Ollama-compatible text-generation endpoint.
type Client struct {
	endpoint        string
	model           string
	probeTimeout    time.Duration
	generateTimeout time.Duration
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewClient creates a client, filling unset config fields with defaults.
// A nil logger is replaced with a no-op logger.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = DefaultGenerateTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint:        strings.TrimRight(cfg.Endpoint, "/"),
		model:           cfg.Model,
		probeTimeout:    cfg.ProbeTimeout,
		generateTimeout: cfg.GenerateTimeout,
		// Per-call deadlines are set via context; no client-wide timeout.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Probe reports whether the endpoint is reachable. Any transport error or
// non-200 status yields false; it never returns an error to the caller.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("inference probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// GenerateFix asks the model for a consolidated fix and parses its textual
// response. Transport errors, timeouts, and non-200 statuses are returned
// as errors; the caller routes those to the rule-based fallback. A
// malformed response body is not an error — every field is independently
// defaulted during parsing.
func (c *Client) GenerateFix(ctx context.Context, code string, errs []fixer.NormalizedError, filePath string) (fixer.Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: buildPrompt(code, errs),
		Stream: false,
		Options: map[string]any{
			"temperature":    0.1,
			"top_p":          0.8,
			"num_predict":    500,
			"num_thread":     6,
			"repeat_penalty": 1.2,
		},
	})
	if err != nil {
		return fixer.Suggestion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return fixer.Suggestion{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fixer.Suggestion{}, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fixer.Suggestion{}, fmt.Errorf("generate returned status %d: %s", resp.StatusCode, string(raw))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fixer.Suggestion{}, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("generate round trip complete",
		zap.String("model", c.model),
		zap.String("file", filePath),
		zap.Duration("elapsed", time.Since(start)))

	return parseSuggestion(result.Response, code), nil
}
