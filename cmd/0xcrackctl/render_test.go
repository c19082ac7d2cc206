package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/RowanDark/0xcrack/internal/cipher"
)

func renderOperation(t *testing.T, name, input string) string {
	t.Helper()
	op, ok := cipher.GetOperation(name)
	if !ok {
		t.Fatalf("operation %s not registered", name)
	}
	report, err := op.Execute(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	var buf bytes.Buffer
	renderReport(&buf, report)
	return buf.String()
}

func TestRenderReportAfterFrequencies(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		input     string
		want      []string
	}{
		{
			name:      "chi square",
			operation: "chi_square_shift",
			input:     "KHOOR ZRUOG",
			want:      []string{"total letters: 10", "shift: ", "chi-square: ", "plaintext: "},
		},
		{
			name:      "affine unsolvable",
			operation: "affine_recover",
			input:     "AAAA",
			want:      []string{"A     4 100.00%", cipher.UnsolvableMessage},
		},
		{
			name:      "affine solved",
			operation: "affine_recover",
			input:     "THE TREE SEES THE EEL",
			want:      []string{"total letters: ", "key: a=", "plaintext: "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderOperation(t, tt.operation, tt.input)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestRenderFrequencyStopsAtTable(t *testing.T) {
	out := renderOperation(t, "frequency", "AAB")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if last := lines[len(lines)-1]; last != "total letters: 3" {
		t.Fatalf("expected the table to end the output, got %q", last)
	}
}

func TestRenderAffineListsEachKeyOnce(t *testing.T) {
	out := renderOperation(t, "affine_recover", "THE TREE SEES THE EEL")
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "other keys: ") {
			continue
		}
		seen := make(map[string]bool)
		for _, key := range strings.Split(strings.TrimPrefix(line, "other keys: "), ", ") {
			if seen[key] {
				t.Fatalf("key %s listed twice: %q", key, line)
			}
			seen[key] = true
		}
	}
}
