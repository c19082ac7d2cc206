package env

import (
	"fmt"
	"testing"
)

func TestLookup(t *testing.T) {
	want := "127.0.0.1:9090"
	t.Setenv("OXCRACK_API_ADDR", want)

	got, ok := Lookup("OXCRACK_API_ADDR")
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLookupBlankIsUnset(t *testing.T) {
	t.Setenv("OXCRACK_API_ADDR", "   ")
	if _, ok := Lookup("OXCRACK_API_ADDR"); ok {
		t.Fatal("blank value should be treated as unset")
	}
}

func TestLookupLegacyWarnsOnce(t *testing.T) {
	ResetWarningsForTesting()
	var warnings []string
	restore := SetWarnLoggerForTesting(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})
	defer restore()

	t.Setenv("0XCRACK_AUTH_TOKEN", "legacy")

	for i := 0; i < 3; i++ {
		got, ok := LookupSuffix("AUTH_TOKEN")
		if !ok || got != "legacy" {
			t.Fatalf("expected legacy value, got %q (ok=%v)", got, ok)
		}
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d: %v", len(warnings), warnings)
	}
	if warnings[0] != "0XCRACK_AUTH_TOKEN is deprecated; use OXCRACK_AUTH_TOKEN" {
		t.Fatalf("unexpected warning %q", warnings[0])
	}
}

func TestLookupPrefersCurrentName(t *testing.T) {
	ResetWarningsForTesting()
	warned := false
	restore := SetWarnLoggerForTesting(func(string, ...any) { warned = true })
	defer restore()

	t.Setenv("OXCRACK_AUTH_TOKEN", "current")
	t.Setenv("0XCRACK_AUTH_TOKEN", "legacy")

	got, _ := LookupSuffix("AUTH_TOKEN")
	if got != "current" {
		t.Fatalf("expected current value, got %q", got)
	}
	if warned {
		t.Fatal("no warning expected when the current name is set")
	}
}
