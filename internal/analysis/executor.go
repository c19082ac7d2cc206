// Package analysis runs registered cipher operations with the audit, metrics
// and tracing instrumentation shared by every front end.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/logging"
	"github.com/RowanDark/0xcrack/internal/observability/metrics"
	"github.com/RowanDark/0xcrack/internal/observability/tracing"
)

// Error kinds reported for failures that are not cipher preconditions.
const (
	KindUnknownOperation = "unknown_operation"
	KindCanceled         = "canceled"
	KindDeadline         = "deadline_exceeded"
	KindInternal         = "internal"
)

// UnknownOperationError is returned when a name is not in the registry.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation: %s", e.Name)
}

func (e *UnknownOperationError) Kind() string { return KindUnknownOperation }

// Kind classifies err for status mapping and metric labels.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindDeadline
	}
	var kinded cipher.KindedError
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	var unknown *UnknownOperationError
	if errors.As(err, &unknown) {
		return unknown.Kind()
	}
	return KindInternal
}

// IsPrecondition reports whether err is a cipher precondition failure.
func IsPrecondition(err error) bool {
	var kinded cipher.KindedError
	return errors.As(err, &kinded)
}

// Executor runs operations by name.
type Executor struct {
	logger *logging.AuditLogger
}

// NewExecutor returns an executor that audits through logger. A nil logger
// disables auditing.
func NewExecutor(logger *logging.AuditLogger) *Executor {
	return &Executor{logger: logger}
}

// Execute looks up name and runs it on input.
func (e *Executor) Execute(ctx context.Context, requestID, name, input string, params map[string]any) (*cipher.Report, error) {
	op, ok := cipher.GetOperation(name)
	if !ok {
		err := &UnknownOperationError{Name: name}
		e.audit(requestID, name, len(input), params, 0, err)
		return nil, err
	}
	return e.run(ctx, requestID, op, input, params)
}

// Pipeline validates every step name before running p on input. Each step
// is instrumented like a single Execute call.
func (e *Executor) Pipeline(ctx context.Context, requestID string, p *cipher.Pipeline, input string) (*cipher.Report, error) {
	if err := validateSteps(p); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "cipher.pipeline", tracing.WithAttributes(map[string]any{
		"cipher.steps":     len(p.Operations),
		"cipher.input_len": len(input),
	}))
	report, err := p.Run(ctx, input, func(ctx context.Context, op cipher.Operation, text string, params map[string]any) (*cipher.Report, error) {
		return e.run(ctx, requestID, op, text, params)
	})
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}
	span.EndWithStatus(tracing.StatusOK, "")
	return report, nil
}

// ReversePipeline runs the inverse of p on input.
func (e *Executor) ReversePipeline(ctx context.Context, requestID string, p *cipher.Pipeline, input string) (*cipher.Report, error) {
	if err := validateSteps(p); err != nil {
		return nil, err
	}
	reversed, err := p.Reverse()
	if err != nil {
		return nil, err
	}
	return e.Pipeline(ctx, requestID, reversed, input)
}

func validateSteps(p *cipher.Pipeline) error {
	if p == nil || len(p.Operations) == 0 {
		return errors.New("pipeline has no operations")
	}
	for _, step := range p.Operations {
		if _, ok := cipher.GetOperation(step.Name); !ok {
			return &UnknownOperationError{Name: step.Name}
		}
	}
	return nil
}

func (e *Executor) run(ctx context.Context, requestID string, op cipher.Operation, input string, params map[string]any) (*cipher.Report, error) {
	ctx, span := tracing.StartAnalysisSpan(ctx, op.Name(), len(input))
	if requestID != "" {
		span.SetAttribute("request.id", requestID)
	}
	start := time.Now()
	report, err := op.Execute(ctx, input, params)
	elapsed := time.Since(start)

	metrics.ObserveAnalysis(ctx, op.Name(), Kind(err), err, elapsed)
	e.audit(requestID, op.Name(), len(input), params, elapsed, err)
	if err != nil {
		span.SetAttribute("cipher.error_kind", Kind(err))
		span.RecordError(err)
		span.End()
		return nil, err
	}
	span.EndWithStatus(tracing.StatusOK, "")
	return report, nil
}

func (e *Executor) audit(requestID, name string, inputLen int, params map[string]any, elapsed time.Duration, err error) {
	if e == nil || e.logger == nil {
		return
	}
	_ = e.logger.Analysis(requestID, name, inputLen, params, elapsed, err)
}
