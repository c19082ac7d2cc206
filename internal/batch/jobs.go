package batch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"
)

// DefaultMaxLineBytes bounds a single job line when no limit is configured.
const DefaultMaxLineBytes = 1 << 20

// Job is one analysis request read from a JSONL job file.
type Job struct {
	ID        string
	Line      int
	Operation string
	Input     string
	Params    map[string]any
}

// LineError reports a job line that could not be parsed.
type LineError struct {
	Line   int
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseJobs reads one JSON object per line:
//
//	{"id": "optional", "operation": "kasiski", "input": "...", "params": {...}}
//
// Blank lines and lines starting with '#' are skipped. Jobs without an id get
// a ULID.
func ParseJobs(r io.Reader, maxLineBytes int) ([]Job, error) {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(maxLineBytes, 64*1024)), maxLineBytes)

	var jobs []Job
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		job, err := parseJob(raw, line)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &LineError{Line: line + 1, Reason: fmt.Sprintf("exceeds %d bytes", maxLineBytes)}
		}
		return nil, fmt.Errorf("read jobs: %w", err)
	}
	return jobs, nil
}

func parseJob(raw []byte, line int) (Job, error) {
	if !gjson.ValidBytes(raw) {
		return Job{}, &LineError{Line: line, Reason: "invalid JSON"}
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Job{}, &LineError{Line: line, Reason: "job must be a JSON object"}
	}

	operation := doc.Get("operation")
	if operation.Type != gjson.String || strings.TrimSpace(operation.Str) == "" {
		return Job{}, &LineError{Line: line, Reason: "operation must be a non-empty string"}
	}
	input := doc.Get("input")
	if input.Type != gjson.String {
		return Job{}, &LineError{Line: line, Reason: "input must be a string"}
	}

	job := Job{
		ID:        strings.TrimSpace(doc.Get("id").String()),
		Line:      line,
		Operation: strings.TrimSpace(operation.Str),
		Input:     input.Str,
	}
	if params := doc.Get("params"); params.Exists() && params.Type != gjson.Null {
		if !params.IsObject() {
			return Job{}, &LineError{Line: line, Reason: "params must be an object"}
		}
		job.Params, _ = params.Value().(map[string]any)
	}
	if job.ID == "" {
		job.ID = ulid.Make().String()
	}
	return job, nil
}
