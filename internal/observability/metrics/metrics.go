// Package metrics keeps an in-process registry of counters, gauges and
// histograms and renders it in the Prometheus text exposition format.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RowanDark/0xcrack/internal/observability/tracing"
)

type collector interface {
	write(sb *strings.Builder)
}

type counterVec struct {
	name   string
	help   string
	labels []string

	mu     sync.RWMutex
	values map[string]float64
}

type gaugeVec struct {
	name   string
	help   string
	labels []string

	mu     sync.RWMutex
	values map[string]float64
}

type histogramVec struct {
	name    string
	help    string
	labels  []string
	buckets []float64

	mu     sync.RWMutex
	values map[string]*histogramValue
}

type histogramValue struct {
	counts   []uint64
	sum      float64
	total    uint64
	exemplar *metricExemplar
}

type metricExemplar struct {
	traceID string
	value   float64
}

var (
	collectors []collector

	analyses         = newCounterVec("oxcrack_analyses_total", "Total number of cipher operations executed.", []string{"operation", "outcome"})
	analysisErrors   = newCounterVec("oxcrack_analysis_errors_total", "Cipher operations rejected by a precondition, by error kind.", []string{"operation", "kind"})
	analysisDuration = newHistogramVec("oxcrack_analysis_duration_seconds", "Time spent executing cipher operations.", []string{"operation"})
	rpcRequests      = newCounterVec("oxcrack_rpc_requests_total", "Total number of API and gRPC requests handled.", []string{"component", "method"})
	rpcErrors        = newCounterVec("oxcrack_rpc_errors_total", "Total number of API and gRPC requests that failed.", []string{"component", "method", "code"})
	rpcLatency       = newHistogramVec("oxcrack_rpc_duration_seconds", "Latency of API and gRPC handlers.", []string{"component", "method", "code"})
	batchJobs        = newCounterVec("oxcrack_batch_jobs_total", "Batch jobs processed, by outcome.", []string{"outcome"})
	batchInflight    = newGaugeVec("oxcrack_batch_inflight", "Batch jobs currently executing.", nil)
	authFailures     = newCounterVec("oxcrack_auth_failures_total", "Rejected authentication attempts, by reason.", []string{"reason"})

	totalRequests uint64
	inflight      int64
)

func init() {
	collectors = []collector{analyses, analysisErrors, analysisDuration, rpcRequests, rpcErrors, rpcLatency, batchJobs, batchInflight, authFailures}
}

func newCounterVec(name, help string, labels []string) *counterVec {
	return &counterVec{name: name, help: help, labels: labels, values: make(map[string]float64)}
}

func newGaugeVec(name, help string, labels []string) *gaugeVec {
	return &gaugeVec{name: name, help: help, labels: labels, values: make(map[string]float64)}
}

func newHistogramVec(name, help string, labels []string) *histogramVec {
	buckets := []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	return &histogramVec{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: buckets,
		values:  make(map[string]*histogramValue),
	}
}

func labelKey(labels, values []string) string {
	if len(values) != len(labels) {
		panic(fmt.Sprintf("expected %d labels, got %d", len(labels), len(values)))
	}
	return strings.Join(values, "\x1f")
}

func (cv *counterVec) add(delta float64, values ...string) {
	key := labelKey(cv.labels, values)
	cv.mu.Lock()
	cv.values[key] += delta
	cv.mu.Unlock()
}

func (cv *counterVec) IncWith(values ...string) {
	cv.add(1, values...)
}

func (cv *counterVec) value(values ...string) float64 {
	key := labelKey(cv.labels, values)
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.values[key]
}

func (cv *counterVec) write(sb *strings.Builder) {
	writeHeader(sb, cv.name, cv.help, "counter")
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	for _, key := range sortedKeys(cv.values) {
		sb.WriteString(cv.name)
		writeLabels(sb, cv.labels, key, "")
		fmt.Fprintf(sb, " %g\n", cv.values[key])
	}
}

func (gv *gaugeVec) Add(values []string, delta float64) {
	key := labelKey(gv.labels, values)
	gv.mu.Lock()
	gv.values[key] += delta
	gv.mu.Unlock()
}

func (gv *gaugeVec) write(sb *strings.Builder) {
	writeHeader(sb, gv.name, gv.help, "gauge")
	gv.mu.RLock()
	defer gv.mu.RUnlock()
	if len(gv.labels) == 0 && len(gv.values) == 0 {
		fmt.Fprintf(sb, "%s 0\n", gv.name)
		return
	}
	for _, key := range sortedKeys(gv.values) {
		sb.WriteString(gv.name)
		writeLabels(sb, gv.labels, key, "")
		fmt.Fprintf(sb, " %g\n", gv.values[key])
	}
}

func (hv *histogramVec) ObserveWithContext(ctx context.Context, values []string, sample float64) {
	key := labelKey(hv.labels, values)
	ex := exemplarFromContext(ctx, sample)

	hv.mu.Lock()
	defer hv.mu.Unlock()
	entry, ok := hv.values[key]
	if !ok {
		entry = &histogramValue{counts: make([]uint64, len(hv.buckets)+1)}
		hv.values[key] = entry
	}
	entry.sum += sample
	entry.total++
	idx := sort.SearchFloat64s(hv.buckets, sample)
	entry.counts[idx]++
	if ex != nil {
		entry.exemplar = ex
	}
}

func (hv *histogramVec) count(values ...string) uint64 {
	key := labelKey(hv.labels, values)
	hv.mu.RLock()
	defer hv.mu.RUnlock()
	if entry, ok := hv.values[key]; ok {
		return entry.total
	}
	return 0
}

func (hv *histogramVec) write(sb *strings.Builder) {
	writeHeader(sb, hv.name, hv.help, "histogram")
	hv.mu.RLock()
	defer hv.mu.RUnlock()
	keys := make([]string, 0, len(hv.values))
	for k := range hv.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry := hv.values[key]
		cumulative := uint64(0)
		for i, upper := range hv.buckets {
			cumulative += entry.counts[i]
			sb.WriteString(hv.name)
			sb.WriteString("_bucket")
			writeLabels(sb, hv.labels, key, fmt.Sprintf("le=%q", fmt.Sprintf("%g", upper)))
			fmt.Fprintf(sb, " %d\n", cumulative)
		}
		cumulative += entry.counts[len(hv.buckets)]
		sb.WriteString(hv.name)
		sb.WriteString("_bucket")
		writeLabels(sb, hv.labels, key, `le="+Inf"`)
		fmt.Fprintf(sb, " %d\n", cumulative)

		sb.WriteString(hv.name)
		sb.WriteString("_sum")
		writeLabels(sb, hv.labels, key, "")
		fmt.Fprintf(sb, " %g", entry.sum)
		if entry.exemplar != nil {
			fmt.Fprintf(sb, " # {trace_id=\"%s\"} %g", escapeLabel(entry.exemplar.traceID), entry.exemplar.value)
		}
		sb.WriteString("\n")

		sb.WriteString(hv.name)
		sb.WriteString("_count")
		writeLabels(sb, hv.labels, key, "")
		fmt.Fprintf(sb, " %d\n", entry.total)
	}
}

func sortedKeys(values map[string]float64) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeLabels(sb *strings.Builder, labels []string, key, extra string) {
	if len(labels) == 0 && extra == "" {
		return
	}
	sb.WriteString("{")
	if len(labels) > 0 {
		parts := strings.Split(key, "\x1f")
		for i, label := range labels {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(sb, "%s=\"%s\"", label, escapeLabel(parts[i]))
		}
	}
	if extra != "" {
		if len(labels) > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(extra)
	}
	sb.WriteString("}")
}

func writeHeader(sb *strings.Builder, name, help, metricType string) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, metricType)
}

func exemplarFromContext(ctx context.Context, sample float64) *metricExemplar {
	if ctx == nil {
		return nil
	}
	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		return nil
	}
	return &metricExemplar{traceID: traceID, value: sample}
}

func escapeLabel(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\n", "\\n")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return value
}

// Handler exposes the metrics registry as an http.Handler compatible with Prometheus.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var sb strings.Builder
		for _, collector := range collectors {
			collector.write(&sb)
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(sb.String()))
	})
}

// ObserveAnalysis records the outcome and latency of a cipher operation.
// kind is the error kind for failures and empty otherwise.
func ObserveAnalysis(ctx context.Context, operation, kind string, err error, dur time.Duration) {
	operation = normalise(operation, "unknown")
	outcome := "success"
	if err != nil {
		outcome = "error"
		analysisErrors.IncWith(operation, normalise(kind, "internal"))
	}
	analyses.IncWith(operation, outcome)
	analysisDuration.ObserveWithContext(ctx, []string{operation}, dur.Seconds())
}

// RecordRPCRequest increments the request counter for a component and method.
func RecordRPCRequest(component, method string) {
	rpcRequests.IncWith(component, method)
	atomic.AddUint64(&totalRequests, 1)
}

// RecordRPCError increments the error counter for a component, method, and error code.
func RecordRPCError(component, method, code string) {
	rpcErrors.IncWith(component, method, code)
}

// ObserveRPCLatency records the duration spent serving a request and tags it by status code.
func ObserveRPCLatency(ctx context.Context, component, method, code string, dur time.Duration) {
	rpcLatency.ObserveWithContext(ctx, []string{component, method, code}, dur.Seconds())
}

// RecordBatchJob counts a finished batch job.
func RecordBatchJob(outcome string) {
	batchJobs.IncWith(normalise(outcome, "unknown"))
}

// BatchJobStarted and BatchJobFinished track the in-flight gauge.
func BatchJobStarted() {
	atomic.AddInt64(&inflight, 1)
	batchInflight.Add(nil, 1)
}

func BatchJobFinished() {
	atomic.AddInt64(&inflight, -1)
	batchInflight.Add(nil, -1)
}

// BatchInflight returns the number of batch jobs currently executing.
func BatchInflight() int64 {
	return atomic.LoadInt64(&inflight)
}

// RecordAuthFailure counts a rejected credential.
func RecordAuthFailure(reason string) {
	authFailures.IncWith(normalise(reason, "unspecified"))
}

// TotalRequests returns the total number of requests served since process start.
func TotalRequests() uint64 {
	return atomic.LoadUint64(&totalRequests)
}

func normalise(value, fallback string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return fallback
	}
	return value
}
