package tracing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// jsonlExporter is an sdktrace.SpanExporter that writes one SpanSnapshot per
// line.
type jsonlExporter struct {
	mu      sync.Mutex
	enc     *json.Encoder
	closer  io.Closer
	stopped bool
}

var _ sdktrace.SpanExporter = (*jsonlExporter)(nil)

func newJSONLExporter(cfg Config) (*jsonlExporter, error) {
	var writers []io.Writer
	var closer io.Closer
	if path := strings.TrimSpace(cfg.FilePath); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create trace directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	if cfg.Writer != nil {
		writers = append(writers, cfg.Writer)
	}
	if len(writers) == 0 {
		return nil, nil
	}
	enc := json.NewEncoder(io.MultiWriter(writers...))
	enc.SetEscapeHTML(false)
	return &jsonlExporter{enc: enc, closer: closer}, nil
}

func (e *jsonlExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return nil
	}
	var errs []error
	for _, span := range spans {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := snapshotFromReadOnly(span)
		if snap == nil {
			continue
		}
		if err := e.enc.Encode(snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *jsonlExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return nil
	}
	e.stopped = true
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}

type spanEvent struct {
	Name       string         `json:"name"`
	Time       time.Time      `json:"time"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// SpanSnapshot captures the immutable span data written by the exporter.
type SpanSnapshot struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	Name         string         `json:"name"`
	Kind         SpanKind       `json:"kind"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	Events       []spanEvent    `json:"events,omitempty"`
	Status       SpanStatus     `json:"status"`
	StatusMsg    string         `json:"status_message,omitempty"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	ServiceName  string         `json:"service_name,omitempty"`
}

// Duration returns the elapsed time recorded by the span.
func (s *SpanSnapshot) Duration() time.Duration {
	if s == nil || s.EndTime.IsZero() || s.StartTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

func snapshotFromReadOnly(span sdktrace.ReadOnlySpan) *SpanSnapshot {
	if span == nil {
		return nil
	}
	sc := span.SpanContext()
	if !sc.IsValid() {
		return nil
	}

	events := make([]spanEvent, 0, len(span.Events()))
	for _, event := range span.Events() {
		events = append(events, spanEvent{Name: event.Name, Time: event.Time, Attributes: attributesToMap(event.Attributes)})
	}

	status := StatusUnset
	switch span.Status().Code {
	case codes.Ok:
		status = StatusOK
	case codes.Error:
		status = StatusError
	}

	parentID := ""
	if parent := span.Parent(); parent.IsValid() {
		parentID = parent.SpanID().String()
	}

	serviceName := ""
	if resource := span.Resource(); resource != nil {
		if v, ok := resource.Set().Value(semconv.ServiceNameKey); ok {
			serviceName = v.AsString()
		}
	}

	return &SpanSnapshot{
		TraceID:      sc.TraceID().String(),
		SpanID:       sc.SpanID().String(),
		ParentSpanID: parentID,
		Name:         span.Name(),
		Kind:         fromOTELSpanKind(span.SpanKind()),
		Attributes:   attributesToMap(span.Attributes()),
		Events:       events,
		Status:       status,
		StatusMsg:    span.Status().Description,
		StartTime:    span.StartTime(),
		EndTime:      span.EndTime(),
		ServiceName:  serviceName,
	}
}

func attributesToMap(attrs []attribute.KeyValue) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}
