package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/sajidashaik44/AI-error-fixer/internal/fixer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// offlineProber simulates an unreachable inference endpoint, forcing the
// rule-based path without touching the network.
type offlineProber struct{}

func (offlineProber) Probe(ctx context.Context) bool { return false }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	orch := fixer.NewOrchestrator(fixer.NewCache(10), nil, nil)
	srv := New("127.0.0.1:0", orch, offlineProber{}, DefaultMaxBatchSize, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(http.DefaultClient.CloseIdleConnections)
	return ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func batchBody(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{
			"error_message": "\"[\" was not closed",
			"code_snippet": "  1: x = [1, 2, 3",
			"line_number": %d,
			"error_id": "e%d"
		}`, i+1, i+1)
	}
	return fmt.Sprintf(`{"errors": [%s], "file_path": "script.py"}`, strings.Join(items, ","))
}

func TestFixBatch_Success(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/fix-errors-consolidated", batchBody(2))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out fixer.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success {
		t.Error("expected success=true")
	}
	if out.ConsolidatedFix.PrimaryFix != "x = [1, 2, 3]" {
		t.Errorf("primary fix = %q", out.ConsolidatedFix.PrimaryFix)
	}
	if out.ConsolidatedFix.TotalErrors != 2 {
		t.Errorf("total errors = %d, want 2", out.ConsolidatedFix.TotalErrors)
	}
	if len(out.ConsolidatedFix.ErrorsFixed) != 2 {
		t.Errorf("errors fixed = %v", out.ConsolidatedFix.ErrorsFixed)
	}
}

func TestFixBatch_RejectsEmptyBatch(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/fix-errors-consolidated", `{"errors": [], "file_path": "x.py"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFixBatch_RejectsOversizedBatch(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/fix-errors-consolidated", batchBody(51))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFixBatch_RejectsMalformedJSON(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/fix-errors-consolidated", `{"errors": [`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFixSingle_WrapsIntoBatch(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/fix-error", `{
		"error_message": "\"(\" was not closed",
		"code_snippet": "print(1, 2",
		"file_path": "x.py",
		"line_number": 1
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out fixer.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ConsolidatedFix.TotalErrors != 1 {
		t.Errorf("total errors = %d, want 1", out.ConsolidatedFix.TotalErrors)
	}
	if out.ConsolidatedFix.PrimaryFix != "print(1, 2)" {
		t.Errorf("primary fix = %q", out.ConsolidatedFix.PrimaryFix)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Status             string           `json:"status"`
		InferenceAvailable bool             `json:"inference_available"`
		CacheStats         fixer.CacheStats `json:"cache_stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "healthy" {
		t.Errorf("status = %q", out.Status)
	}
	if out.InferenceAvailable {
		t.Error("offline prober should report unavailable")
	}
	if out.CacheStats.MaxSize != 10 {
		t.Errorf("cache max size = %d", out.CacheStats.MaxSize)
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	ts := newTestServer(t)

	// Same batch twice: second pass is a cache hit.
	postJSON(t, ts.URL+"/fix-errors-consolidated", batchBody(1))
	postJSON(t, ts.URL+"/fix-errors-consolidated", batchBody(1))

	resp, err := http.Get(ts.URL + "/cache/stats")
	if err != nil {
		t.Fatalf("GET /cache/stats: %v", err)
	}
	defer resp.Body.Close()

	var stats struct {
		CacheStats fixer.CacheStats `json:"cache_stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.CacheStats.HitCount != 1 {
		t.Errorf("hit count = %d, want 1", stats.CacheStats.HitCount)
	}

	clearResp := postJSON(t, ts.URL+"/cache/clear", "")
	if clearResp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d", clearResp.StatusCode)
	}

	resp2, err := http.Get(ts.URL + "/cache/stats")
	if err != nil {
		t.Fatalf("GET /cache/stats: %v", err)
	}
	defer resp2.Body.Close()
	if err := json.NewDecoder(resp2.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.CacheStats.Size != 0 || stats.CacheStats.TotalRequests != 0 {
		t.Errorf("stats after clear = %+v, want empty", stats.CacheStats)
	}
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	unknown, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer unknown.Body.Close()
	if unknown.StatusCode != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", unknown.StatusCode)
	}
}
