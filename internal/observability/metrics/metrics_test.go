package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RowanDark/0xcrack/internal/observability/tracing"
)

func scrape(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, req)
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	return rr.Body.String()
}

func TestHandlerExportsMetrics(t *testing.T) {
	body := scrape(t)
	required := []string{
		"# HELP oxcrack_analyses_total",
		"# HELP oxcrack_analysis_errors_total",
		"# TYPE oxcrack_analysis_duration_seconds histogram",
		"# HELP oxcrack_rpc_requests_total",
		"# HELP oxcrack_batch_jobs_total",
		"# TYPE oxcrack_batch_inflight gauge",
		"# HELP oxcrack_auth_failures_total",
	}
	for _, metric := range required {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected metric %q to be exported, got %q", metric, body)
		}
	}
}

func TestObserveAnalysis(t *testing.T) {
	before := analyses.value("metrics_test_op", "error")
	beforeKind := analysisErrors.value("metrics_test_op", "pairing")
	beforeCount := analysisDuration.count("metrics_test_op")

	ObserveAnalysis(context.Background(), "metrics_test_op", "", nil, time.Millisecond)
	ObserveAnalysis(context.Background(), "Metrics_Test_Op", "pairing", errors.New("odd"), time.Millisecond)

	if got := analyses.value("metrics_test_op", "error"); got != before+1 {
		t.Fatalf("expected one error outcome, got %g", got-before)
	}
	if got := analysisErrors.value("metrics_test_op", "pairing"); got != beforeKind+1 {
		t.Fatalf("expected kind counter to increase, got %g", got-beforeKind)
	}
	if got := analysisDuration.count("metrics_test_op"); got != beforeCount+2 {
		t.Fatalf("expected two latency samples, got %d", got-beforeCount)
	}

	body := scrape(t)
	if !strings.Contains(body, `oxcrack_analyses_total{operation="metrics_test_op",outcome="success"}`) {
		t.Fatalf("missing labelled series:\n%s", body)
	}
	if !strings.Contains(body, `oxcrack_analysis_duration_seconds_bucket{operation="metrics_test_op",le="+Inf"}`) {
		t.Fatalf("missing +Inf bucket:\n%s", body)
	}
}

func TestHistogramExemplarFromTraceContext(t *testing.T) {
	sc := tracing.SpanContext{
		TraceID: "4bf92f3577b34da6a3ce929d0e0e4736",
		SpanID:  "00f067aa0ba902b7",
		Sampled: true,
	}
	ctx := tracing.WithSpanContext(context.Background(), sc)
	ObserveRPCLatency(ctx, "api", "exemplar_test", "200", 20*time.Millisecond)

	body := scrape(t)
	if !strings.Contains(body, `# {trace_id="4bf92f3577b34da6a3ce929d0e0e4736"}`) {
		t.Fatalf("expected exemplar in output:\n%s", body)
	}
}

func TestBatchInflightGauge(t *testing.T) {
	start := BatchInflight()
	BatchJobStarted()
	BatchJobStarted()
	if got := BatchInflight(); got != start+2 {
		t.Fatalf("expected %d in flight, got %d", start+2, got)
	}
	BatchJobFinished()
	BatchJobFinished()
	if got := BatchInflight(); got != start {
		t.Fatalf("expected gauge to return to %d, got %d", start, got)
	}
}

func TestEscapeLabel(t *testing.T) {
	if got := escapeLabel("a\"b\\c\nd"); got != `a\"b\\c\nd` {
		t.Fatalf("unexpected escape %q", got)
	}
}

func TestLabelCountMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for wrong label count")
		}
	}()
	authFailures.IncWith("a", "b")
}
