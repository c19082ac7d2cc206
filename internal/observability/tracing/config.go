// Package tracing wraps the OpenTelemetry SDK with a small span API and a
// JSON-lines span exporter.
package tracing

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/RowanDark/0xcrack"

// Config controls how tracing is initialised for the process.
type Config struct {
	// ServiceName is recorded on exported spans to identify the emitting service.
	ServiceName string
	// SampleRatio controls probabilistic sampling for root spans. Values are
	// clamped to [0,1]; 0 disables tracing.
	SampleRatio float64
	// FilePath receives a JSONL copy of every finished span. Empty disables it.
	FilePath string
	// Writer receives the same JSONL stream as FilePath.
	Writer io.Writer
	// Synchronous exports each span as it ends instead of batching.
	Synchronous bool
}

var (
	globalMu     sync.RWMutex
	globalTracer *Tracer
)

// Setup configures the global tracer. The returned shutdown function must be invoked when
// the process exits to ensure spans are flushed.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	tracer, err := newTracer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if tracer == nil {
		return func(context.Context) error { return nil }, nil
	}

	globalMu.Lock()
	if globalTracer != nil {
		_ = globalTracer.Shutdown(ctx)
	}
	globalTracer = tracer
	globalMu.Unlock()

	otel.SetTracerProvider(tracer.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		globalMu.Lock()
		if globalTracer == tracer {
			globalTracer = nil
		}
		globalMu.Unlock()
		return tracer.Shutdown(ctx)
	}, nil
}

// CurrentTracer returns the active tracer, or nil if tracing is disabled.
func CurrentTracer() *Tracer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalTracer
}

// Tracer represents the process level tracing configuration.
type Tracer struct {
	provider    *sdktrace.TracerProvider
	tracer      trace.Tracer
	serviceName string
}

func newTracer(ctx context.Context, cfg Config) (*Tracer, error) {
	ratio := math.Max(0, math.Min(1, cfg.SampleRatio))
	if ratio == 0 {
		return nil, nil
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "0xcrack"
	}

	resource, err := sdkresource.New(ctx,
		sdkresource.WithTelemetrySDK(),
		sdkresource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}

	exporter, err := newJSONLExporter(cfg)
	if err != nil {
		return nil, err
	}
	if exporter != nil {
		if cfg.Synchronous {
			providerOpts = append(providerOpts, sdktrace.WithSyncer(exporter))
		} else {
			providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
		}
	}

	provider := sdktrace.NewTracerProvider(providerOpts...)
	return &Tracer{
		provider:    provider,
		tracer:      provider.Tracer(instrumentationName),
		serviceName: serviceName,
	}, nil
}

// Shutdown flushes exporters and releases resources.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return t.provider.Shutdown(shutdownCtx)
}

// ServiceName returns the configured service name.
func (t *Tracer) ServiceName() string {
	if t == nil {
		return ""
	}
	return t.serviceName
}
