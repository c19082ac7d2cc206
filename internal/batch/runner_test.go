package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/logging"
)

func TestRunnerPreservesOrder(t *testing.T) {
	var jobs []Job
	for i := 0; i < 40; i++ {
		jobs = append(jobs, Job{
			ID:        fmt.Sprintf("job-%d", i),
			Line:      i + 1,
			Operation: "caesar_encrypt",
			Input:     "HELLO",
			Params:    map[string]any{"key": i % cipher.AlphabetSize},
		})
	}

	runner := NewRunner(Options{Workers: 4, JobTimeout: time.Second})
	results, summary := runner.Run(context.Background(), jobs)

	if summary.Total != 40 || summary.Succeeded != 40 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for i, res := range results {
		if res.JobID != jobs[i].ID || res.Index != i {
			t.Fatalf("result %d out of order: %+v", i, res)
		}
		want := cipher.EncryptCaesar("HELLO", i%cipher.AlphabetSize)
		if res.Report == nil || res.Report.Plaintext != want {
			t.Fatalf("job %d: expected %q, got %+v", i, want, res.Report)
		}
	}
}

func TestRunnerReportsFailures(t *testing.T) {
	audit := &bytes.Buffer{}
	logger, err := logging.NewAuditLogger("batch-test", logging.WithWriter(audit), logging.WithoutStdout())
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	jobs := []Job{
		{ID: "ok", Line: 1, Operation: "vigenere_decrypt", Input: "LXFOPVEFRNHR", Params: map[string]any{"key": "LEMON"}},
		{ID: "unknown", Line: 2, Operation: "rot13", Input: "abc"},
		{ID: "pairing", Line: 3, Operation: "playfair_decrypt", Input: "ABC", Params: map[string]any{"key": "KEY"}},
	}
	runner := NewRunner(Options{Workers: 2, Logger: logger})
	results, summary := runner.Run(context.Background(), jobs)

	if summary.Succeeded != 1 || summary.Failed != 2 || summary.Canceled != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if results[0].Report.Plaintext != "ATTACKATDAWN" {
		t.Errorf("unexpected plaintext %q", results[0].Report.Plaintext)
	}

	out := &bytes.Buffer{}
	if err := WriteResults(out, jobs, results); err != nil {
		t.Fatalf("write: %v", err)
	}
	scanner := bufio.NewScanner(out)
	var records []Record
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode record: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[1].Kind != "unknown_operation" || records[2].Kind != cipher.KindPairing {
		t.Errorf("unexpected kinds %q %q", records[1].Kind, records[2].Kind)
	}
	if records[0].Report == nil || records[0].Error != "" {
		t.Errorf("unexpected success record %+v", records[0])
	}

	if got := strings.Count(audit.String(), `"event_type":"batch_job"`); got != 3 {
		t.Errorf("expected 3 batch_job events, got %d", got)
	}
}

func TestRunnerCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{
		{ID: "a", Operation: "frequency", Input: "abc"},
		{ID: "b", Operation: "frequency", Input: "def"},
	}
	results, summary := NewRunner(Options{Workers: 1}).Run(ctx, jobs)
	if summary.Canceled != 2 {
		t.Fatalf("expected all jobs canceled, got %+v", summary)
	}
	for _, res := range results {
		if res.Error == nil {
			t.Errorf("job %s should carry an error", res.JobID)
		}
	}
}

func TestRunnerEmpty(t *testing.T) {
	results, summary := NewRunner(Options{}).Run(context.Background(), nil)
	if len(results) != 0 || summary.Total != 0 {
		t.Fatalf("unexpected output %v %+v", results, summary)
	}
}

func TestWriteResultsLengthMismatch(t *testing.T) {
	if err := WriteResults(&bytes.Buffer{}, []Job{{ID: "a"}}, nil); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestWorkerPoolDrainsOnStop(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 3, 0, NewRunner(Options{}).executor)
	pool.Start()

	go func() {
		for i := 0; i < 10; i++ {
			if err := pool.Submit(i, Job{ID: fmt.Sprint(i), Operation: "kasiski", Input: "ABCXXABCYYABC"}); err != nil {
				t.Errorf("submit: %v", err)
			}
		}
		pool.Stop()
	}()

	count := 0
	for res := range pool.Results() {
		if res.Error != nil {
			t.Errorf("job %s failed: %v", res.JobID, res.Error)
		}
		count++
	}
	if count != 10 {
		t.Fatalf("expected 10 results, got %d", count)
	}
}
