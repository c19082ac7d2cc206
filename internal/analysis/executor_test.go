package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/logging"
)

func newTestExecutor(t *testing.T) (*Executor, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger, err := logging.NewAuditLogger("analysis-test", logging.WithWriter(buf), logging.WithoutStdout())
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	return NewExecutor(logger), buf
}

func decodeEvents(t *testing.T, buf *bytes.Buffer) []logging.AuditEvent {
	t.Helper()
	var events []logging.AuditEvent
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var ev logging.AuditEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestExecute(t *testing.T) {
	exec, buf := newTestExecutor(t)

	report, err := exec.Execute(context.Background(), "req-1", "vigenere_decrypt", "LXFOPVEFRNHR", map[string]any{"key": "LEMON"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if report.Plaintext != "ATTACKATDAWN" {
		t.Fatalf("unexpected plaintext %q", report.Plaintext)
	}

	events := decodeEvents(t, buf)
	if len(events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventType != logging.EventAnalysisExecuted || ev.RequestID != "req-1" || ev.Operation != "vigenere_decrypt" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if strings.Contains(buf.String(), "LEMON") || strings.Contains(buf.String(), "LXFOPVEFRNHR") {
		t.Fatalf("key or input leaked into audit log: %s", buf.String())
	}
}

func TestExecuteErrors(t *testing.T) {
	exec, buf := newTestExecutor(t)

	_, err := exec.Execute(context.Background(), "req-2", "rot47", "abc", nil)
	var unknown *UnknownOperationError
	if !errors.As(err, &unknown) || Kind(err) != KindUnknownOperation {
		t.Fatalf("expected unknown operation error, got %v", err)
	}

	_, err = exec.Execute(context.Background(), "req-3", "playfair_decrypt", "ABC", map[string]any{"key": "KEY"})
	if Kind(err) != cipher.KindPairing || !IsPrecondition(err) {
		t.Fatalf("expected pairing error, got %v", err)
	}

	events := decodeEvents(t, buf)
	if len(events) != 2 {
		t.Fatalf("expected two audit events, got %d", len(events))
	}
	if events[1].EventType != logging.EventAnalysisFailed || events[1].Metadata["kind"] != cipher.KindPairing {
		t.Fatalf("unexpected failure event %+v", events[1])
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.Canceled, KindCanceled},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), KindDeadline},
		{&cipher.EmptyInputError{}, cipher.KindEmptyInput},
		{fmt.Errorf("step: %w", &cipher.GridLookupError{Char: 'J'}), cipher.KindGridLookup},
		{errors.New("other"), KindInternal},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestPipeline(t *testing.T) {
	exec := NewExecutor(nil)
	p := &cipher.Pipeline{Operations: []cipher.OperationConfig{
		{Name: "caesar_encrypt", Parameters: map[string]any{"key": 3}},
		{Name: "vigenere_encrypt", Parameters: map[string]any{"key": "KEY"}},
		{Name: "vigenere_decrypt", Parameters: map[string]any{"key": "KEY"}},
		{Name: "caesar_decrypt", Parameters: map[string]any{"key": 3}},
	}}

	report, err := exec.Pipeline(context.Background(), "", p, "HELLO WORLD")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if report.Plaintext != "HELLO WORLD" {
		t.Fatalf("unexpected output %q", report.Plaintext)
	}
}

func TestPipelineRejects(t *testing.T) {
	exec := NewExecutor(nil)
	ctx := context.Background()

	if _, err := exec.Pipeline(ctx, "", &cipher.Pipeline{}, "abc"); err == nil {
		t.Fatal("expected error for empty pipeline")
	}

	unknown := &cipher.Pipeline{Operations: []cipher.OperationConfig{{Name: "caesar_encrypt", Parameters: map[string]any{"key": 1}}, {Name: "nope"}}}
	if _, err := exec.Pipeline(ctx, "", unknown, "abc"); Kind(err) != KindUnknownOperation {
		t.Fatalf("expected unknown operation before any step runs, got %v", err)
	}

	noText := &cipher.Pipeline{Operations: []cipher.OperationConfig{{Name: "kasiski"}, {Name: "frequency"}}}
	if _, err := exec.Pipeline(ctx, "", noText, "ABCXXABCYYABC"); err == nil || Kind(err) != KindInternal {
		t.Fatalf("expected chaining error, got %v", err)
	}

	failing := &cipher.Pipeline{Operations: []cipher.OperationConfig{{Name: "playfair_decrypt", Parameters: map[string]any{"key": "KEY"}}}}
	_, err := exec.Pipeline(ctx, "", failing, "ABC")
	var pairing *cipher.PairingError
	if !errors.As(err, &pairing) {
		t.Fatalf("expected wrapped PairingError, got %v", err)
	}
}

func TestPipelineAuditsEachStep(t *testing.T) {
	exec, buf := newTestExecutor(t)
	p := &cipher.Pipeline{Operations: []cipher.OperationConfig{
		{Name: "caesar_decrypt", Parameters: map[string]any{"key": 3}},
		{Name: "frequency"},
	}}

	if _, err := exec.Pipeline(context.Background(), "req-p", p, "KHOOR"); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	events := decodeEvents(t, buf)
	if len(events) != 2 || events[0].Operation != "caesar_decrypt" || events[1].Operation != "frequency" {
		t.Fatalf("expected one event per step, got %+v", events)
	}
	for _, ev := range events {
		if ev.RequestID != "req-p" {
			t.Errorf("step event lost the request id: %+v", ev)
		}
	}
}

func TestReversePipeline(t *testing.T) {
	exec := NewExecutor(nil)
	ctx := context.Background()
	p := &cipher.Pipeline{
		Operations: []cipher.OperationConfig{
			{Name: "vigenere_encrypt", Parameters: map[string]any{"key": "LEMON"}},
			{Name: "affine_encrypt", Parameters: map[string]any{"a": 5, "b": 8}},
		},
		Reversible: true,
	}

	forward, err := exec.Pipeline(ctx, "", p, "ATTACK AT DAWN")
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	back, err := exec.ReversePipeline(ctx, "", p, forward.Plaintext)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if back.Plaintext != "ATTACK AT DAWN" {
		t.Fatalf("expected the original text, got %q", back.Plaintext)
	}

	counting := &cipher.Pipeline{Operations: []cipher.OperationConfig{{Name: "frequency"}}, Reversible: true}
	_, err = exec.ReversePipeline(ctx, "", counting, "abc")
	if Kind(err) != cipher.KindNotReversible || !IsPrecondition(err) {
		t.Fatalf("expected not_reversible, got %v", err)
	}

	unknown := &cipher.Pipeline{Operations: []cipher.OperationConfig{{Name: "nope"}}, Reversible: true}
	if _, err := exec.ReversePipeline(ctx, "", unknown, "abc"); Kind(err) != KindUnknownOperation {
		t.Fatalf("expected unknown operation, got %v", err)
	}
}
