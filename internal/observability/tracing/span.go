package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span represents an in-flight trace span.
type Span interface {
	Context() SpanContext
	End()
	EndWithStatus(status SpanStatus, description string)
	SetAttribute(key string, value any)
	RecordError(err error)
}

// SpanContext holds distributed tracing identity information.
type SpanContext struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// Valid returns true when the context contains identifiers.
func (sc SpanContext) Valid() bool {
	return len(sc.TraceID) == 32 && len(sc.SpanID) == 16
}

// SpanStatus represents the outcome of a span.
type SpanStatus string

const (
	StatusUnset SpanStatus = "unset"
	StatusOK    SpanStatus = "ok"
	StatusError SpanStatus = "error"
)

// SpanKind describes the role of the span relative to external systems.
type SpanKind string

const (
	SpanKindInternal SpanKind = "internal"
	SpanKindServer   SpanKind = "server"
	SpanKindClient   SpanKind = "client"
)

type spanConfig struct {
	kind       SpanKind
	attributes map[string]any
}

// SpanStartOption configures start behaviour for spans.
type SpanStartOption func(*spanConfig)

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanStartOption {
	return func(cfg *spanConfig) { cfg.kind = kind }
}

// WithAttributes attaches attributes to the span on start.
func WithAttributes(attrs map[string]any) SpanStartOption {
	return func(cfg *spanConfig) {
		if len(attrs) == 0 {
			return
		}
		if cfg.attributes == nil {
			cfg.attributes = make(map[string]any, len(attrs))
		}
		for k, v := range attrs {
			cfg.attributes[k] = v
		}
	}
}

// StartSpan begins a new span derived from ctx. Without a configured tracer
// it returns a noop span that still carries any inbound span context.
func StartSpan(ctx context.Context, name string, opts ...SpanStartOption) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := spanConfig{kind: SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}
	tracer := CurrentTracer()
	if tracer == nil || tracer.tracer == nil {
		return ctx, noopSpan{ctx: SpanContextFromContext(ctx)}
	}

	options := []trace.SpanStartOption{trace.WithSpanKind(toOTELSpanKind(cfg.kind))}
	if len(cfg.attributes) > 0 {
		options = append(options, trace.WithAttributes(mapToAttributes(cfg.attributes)...))
	}
	ctx, otelSpan := tracer.tracer.Start(ctx, name, options...)
	return ctx, &otelSpanWrapper{span: otelSpan}
}

// StartAnalysisSpan opens the span that wraps one cipher operation. Only the
// operation name and input size are attached.
func StartAnalysisSpan(ctx context.Context, operation string, inputLen int) (context.Context, Span) {
	return StartSpan(ctx, "cipher."+operation, WithAttributes(map[string]any{
		"cipher.operation": operation,
		"cipher.input_len": inputLen,
	}))
}

// SpanContextFromContext returns the span context stored on ctx.
func SpanContextFromContext(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	return fromOTELSpanContext(trace.SpanContextFromContext(ctx))
}

// TraceIDFromContext extracts the trace identifier, or "" when unavailable.
func TraceIDFromContext(ctx context.Context) string {
	sc := SpanContextFromContext(ctx)
	if !sc.Valid() {
		return ""
	}
	return sc.TraceID
}

// WithSpanContext returns a new context carrying sc as the remote parent.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	otelCtx, err := toOTELSpanContext(sc)
	if err != nil {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, otelCtx)
}

func fromOTELSpanContext(sc trace.SpanContext) SpanContext {
	if !sc.IsValid() {
		return SpanContext{}
	}
	return SpanContext{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
		Sampled: sc.IsSampled(),
	}
}

func toOTELSpanContext(sc SpanContext) (trace.SpanContext, error) {
	if !sc.Valid() {
		return trace.SpanContext{}, fmt.Errorf("invalid span context")
	}
	traceID, err := trace.TraceIDFromHex(sc.TraceID)
	if err != nil {
		return trace.SpanContext{}, fmt.Errorf("parse trace id: %w", err)
	}
	spanID, err := trace.SpanIDFromHex(sc.SpanID)
	if err != nil {
		return trace.SpanContext{}, fmt.Errorf("parse span id: %w", err)
	}
	config := trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
		Remote:  true,
	}
	if sc.Sampled {
		config.TraceFlags = trace.FlagsSampled
	}
	return trace.NewSpanContext(config), nil
}

type otelSpanWrapper struct {
	span trace.Span
}

func (s *otelSpanWrapper) Context() SpanContext {
	return fromOTELSpanContext(s.span.SpanContext())
}

func (s *otelSpanWrapper) End() {
	s.span.End()
}

func (s *otelSpanWrapper) EndWithStatus(status SpanStatus, description string) {
	switch status {
	case StatusError:
		s.span.SetStatus(codes.Error, description)
	case StatusOK:
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

func (s *otelSpanWrapper) SetAttribute(key string, value any) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	s.span.SetAttributes(attribute.KeyValue{Key: attribute.Key(key), Value: attributeValue(value)})
}

func (s *otelSpanWrapper) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

type noopSpan struct {
	ctx SpanContext
}

func (n noopSpan) Context() SpanContext           { return n.ctx }
func (noopSpan) End()                             {}
func (noopSpan) EndWithStatus(SpanStatus, string) {}
func (noopSpan) SetAttribute(string, any)         {}
func (noopSpan) RecordError(error)                {}

func mapToAttributes(attrs map[string]any) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.KeyValue{Key: attribute.Key(k), Value: attributeValue(v)})
	}
	return kvs
}

func attributeValue(value any) attribute.Value {
	switch v := value.(type) {
	case string:
		return attribute.StringValue(v)
	case bool:
		return attribute.BoolValue(v)
	case int:
		return attribute.IntValue(v)
	case int64:
		return attribute.Int64Value(v)
	case float64:
		return attribute.Float64Value(v)
	case []string:
		return attribute.StringSliceValue(v)
	case fmt.Stringer:
		return attribute.StringValue(v.String())
	default:
		return attribute.StringValue(fmt.Sprintf("%v", v))
	}
}

func toOTELSpanKind(kind SpanKind) trace.SpanKind {
	switch kind {
	case SpanKindServer:
		return trace.SpanKindServer
	case SpanKindClient:
		return trace.SpanKindClient
	default:
		return trace.SpanKindInternal
	}
}

func fromOTELSpanKind(kind trace.SpanKind) SpanKind {
	switch kind {
	case trace.SpanKindServer:
		return SpanKindServer
	case trace.SpanKindClient:
		return SpanKindClient
	default:
		return SpanKindInternal
	}
}
