package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RowanDark/0xcrack/internal/redact"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()

	homeDir := filepath.Join(tempDir, "home")
	if err := os.MkdirAll(filepath.Join(homeDir, ".0xcrack"), 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	homeConfig := []byte(`api:
  addr: 0.0.0.0:1111
  request_timeout: 5s
batch:
  workers: 2
grpc:
  addr: home-grpc:5000
`)
	if err := os.WriteFile(filepath.Join(homeDir, ".0xcrack", "config.yaml"), homeConfig, 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}

	// A local file overrides the home file.
	workDir := filepath.Join(tempDir, "work")
	if err := os.Mkdir(workDir, 0o755); err != nil {
		t.Fatalf("mkdir work: %v", err)
	}
	localConfig := []byte(`api:
  addr: 127.0.0.1:6500
tracing:
  enable: true
  sample_ratio: 0.25
`)
	if err := os.WriteFile(filepath.Join(workDir, "0xcrack.yml"), localConfig, 0o644); err != nil {
		t.Fatalf("write local config: %v", err)
	}

	// Env overrides beat file configuration.
	t.Setenv("OXCRACK_GRPC_ADDR", "env-grpc:5555")
	t.Setenv("OXCRACK_AUTH_TOKEN", "env-token")
	t.Setenv("OXCRACK_RECIPES_DIR", "/srv/recipes")

	chdir(t, workDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.API.Addr != "127.0.0.1:6500" {
		t.Fatalf("unexpected api addr: %s", cfg.API.Addr)
	}
	if cfg.API.RequestTimeout != 5*time.Second {
		t.Fatalf("expected home request timeout, got %s", cfg.API.RequestTimeout)
	}
	if cfg.Batch.Workers != 2 {
		t.Fatalf("expected home batch workers, got %d", cfg.Batch.Workers)
	}
	if !cfg.Tracing.Enable || cfg.Tracing.SampleRatio != 0.25 {
		t.Fatalf("expected tracing from local file, got %+v", cfg.Tracing)
	}
	if cfg.GRPC.Addr != "env-grpc:5555" {
		t.Fatalf("expected env override for grpc addr, got %s", cfg.GRPC.Addr)
	}
	if cfg.Auth.StaticToken != "env-token" {
		t.Fatalf("expected env token override, got %s", cfg.Auth.StaticToken)
	}
	if cfg.API.RecipesDir != "/srv/recipes" {
		t.Fatalf("expected env recipes dir, got %q", cfg.API.RecipesDir)
	}
	if cfg.Metrics != Default().Metrics {
		t.Fatalf("untouched sections should keep defaults, got %+v", cfg.Metrics)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg != Default() {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	chdir(t, t.TempDir())
	t.Setenv("0XCRACK_BATCH_WORKERS", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Batch.Workers != 9 {
		t.Fatalf("expected legacy env to apply, got %d", cfg.Batch.Workers)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad bool", "OXCRACK_GRPC_ENABLE", "maybe"},
		{"bad duration", "OXCRACK_TOKEN_TTL", "soon"},
		{"zero workers", "OXCRACK_BATCH_WORKERS", "0"},
		{"ratio above one", "OXCRACK_TRACE_SAMPLE_RATIO", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.val)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("api:\n  recipes_dir: /var/lib/0xcrack/recipes\nauth:\n  token_ttl: 15m\n  signing_key: \" k3y \"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Auth.TokenTTL != 15*time.Minute {
		t.Fatalf("expected 15m ttl, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.SigningKey != "k3y" {
		t.Fatalf("expected trimmed signing key, got %q", cfg.Auth.SigningKey)
	}
	if cfg.API.RecipesDir != "/var/lib/0xcrack/recipes" {
		t.Fatalf("expected recipes dir from file, got %q", cfg.API.RecipesDir)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("api: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMaskedYAML(t *testing.T) {
	cfg := Default()
	cfg.Auth.SigningKey = "very-secret-signing-key"

	out, err := cfg.Masked().YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	text := string(out)
	if strings.Contains(text, "supersecrettoken") || strings.Contains(text, "very-secret-signing-key") {
		t.Fatalf("credentials leaked:\n%s", text)
	}
	if !strings.Contains(text, redact.Secret) {
		t.Fatalf("expected masked placeholder:\n%s", text)
	}

	var decoded Config
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("rendered YAML should parse: %v", err)
	}
	if decoded.API != cfg.API || decoded.Batch != cfg.Batch {
		t.Fatalf("unexpected round trip: %+v", decoded)
	}
	if cfg.Auth.SigningKey != "very-secret-signing-key" {
		t.Fatal("Masked must not modify the receiver")
	}
}
