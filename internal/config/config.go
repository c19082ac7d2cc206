package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RowanDark/0xcrack/internal/env"
	"github.com/RowanDark/0xcrack/internal/redact"
)

const (
	homeDirName   = ".0xcrack"
	homeFileName  = "config.yaml"
	localFileName = "0xcrack.yml"
)

// Config captures the 0xcrack configuration resolved from defaults, optional
// files, and environment overrides.
type Config struct {
	API     APIConfig     `yaml:"api"`
	GRPC    GRPCConfig    `yaml:"grpc"`
	Metrics MetricsConfig `yaml:"metrics"`
	Auth    AuthConfig    `yaml:"auth"`
	Audit   AuditConfig   `yaml:"audit"`
	Tracing TracingConfig `yaml:"tracing"`
	Batch   BatchConfig   `yaml:"batch"`
}

// APIConfig controls the REST listener.
type APIConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	RecipesDir     string        `yaml:"recipes_dir"`
}

// GRPCConfig controls the gRPC listener.
type GRPCConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

// MetricsConfig controls the Prometheus exposition listener.
type MetricsConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

// AuthConfig holds the static bootstrap token and the JWT signing settings.
type AuthConfig struct {
	StaticToken string        `yaml:"static_token"`
	SigningKey  string        `yaml:"signing_key"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	Issuer      string        `yaml:"issuer"`
}

// AuditConfig selects where audit events are written.
type AuditConfig struct {
	Path   string `yaml:"path"`
	Stdout bool   `yaml:"stdout"`
}

// TracingConfig controls span export.
type TracingConfig struct {
	Enable      bool    `yaml:"enable"`
	ServiceName string  `yaml:"service_name"`
	FilePath    string  `yaml:"file_path"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// BatchConfig sizes the batch worker pool.
type BatchConfig struct {
	Workers      int           `yaml:"workers"`
	JobTimeout   time.Duration `yaml:"job_timeout"`
	MaxLineBytes int           `yaml:"max_line_bytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			Addr:           "127.0.0.1:8713",
			RequestTimeout: 30 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		GRPC: GRPCConfig{
			Enable: true,
			Addr:   "127.0.0.1:50061",
		},
		Metrics: MetricsConfig{
			Enable: true,
			Addr:   "127.0.0.1:9713",
		},
		Auth: AuthConfig{
			StaticToken: "supersecrettoken",
			SigningKey:  "",
			TokenTTL:    time.Hour,
			Issuer:      "0xcrackd",
		},
		Audit: AuditConfig{
			Path:   "",
			Stdout: true,
		},
		Tracing: TracingConfig{
			Enable:      false,
			ServiceName: "0xcrackd",
			FilePath:    "",
			SampleRatio: 1,
		},
		Batch: BatchConfig{
			Workers:      4,
			JobTimeout:   10 * time.Second,
			MaxLineBytes: 1 << 20,
		},
	}
}

// Load resolves the configuration using defaults, configuration files, and
// environment overrides. The lookup order for configuration files is:
//  1. ~/.0xcrack/config.yaml
//  2. ./0xcrack.yml
//
// Environment variables prefixed with OXCRACK_ have the highest precedence.
// The pre-rename 0XCRACK_ names are still honoured with a warning.
func Load() (Config, error) {
	cfg := Default()

	if err := loadHomeConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadLocalConfig(&cfg); err != nil {
		return Config{}, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile resolves the configuration like Load but reads only the file at
// path. A missing file is an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(&cfg, data); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the servers cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.API.Addr) == "" {
		errs = append(errs, errors.New("api.addr must be set"))
	}
	if c.API.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("api.max_body_bytes must be positive"))
	}
	if c.GRPC.Enable && strings.TrimSpace(c.GRPC.Addr) == "" {
		errs = append(errs, errors.New("grpc.addr must be set when grpc is enabled"))
	}
	if c.Metrics.Enable && strings.TrimSpace(c.Metrics.Addr) == "" {
		errs = append(errs, errors.New("metrics.addr must be set when metrics are enabled"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0,1], got %v", c.Tracing.SampleRatio))
	}
	if c.Batch.Workers <= 0 {
		errs = append(errs, fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers))
	}
	if c.Batch.MaxLineBytes <= 0 {
		errs = append(errs, errors.New("batch.max_line_bytes must be positive"))
	}
	return errors.Join(errs...)
}

// Masked returns a copy with credentials replaced, suitable for printing.
func (c Config) Masked() Config {
	if c.Auth.StaticToken != "" {
		c.Auth.StaticToken = redact.Secret
	}
	if c.Auth.SigningKey != "" {
		c.Auth.SigningKey = redact.Secret
	}
	return c
}

// YAML renders the configuration as a YAML document.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func loadHomeConfig(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("determine home directory: %w", err)
	}
	return loadOptional(cfg, filepath.Join(home, homeDirName, homeFileName))
}

func loadLocalConfig(cfg *Config) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	return loadOptional(cfg, filepath.Join(wd, localFileName))
}

func loadOptional(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(cfg, data); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

type fileConfig struct {
	API     *fileAPIConfig     `yaml:"api"`
	GRPC    *fileListener      `yaml:"grpc"`
	Metrics *fileListener      `yaml:"metrics"`
	Auth    *fileAuthConfig    `yaml:"auth"`
	Audit   *fileAuditConfig   `yaml:"audit"`
	Tracing *fileTracingConfig `yaml:"tracing"`
	Batch   *fileBatchConfig   `yaml:"batch"`
}

type fileAPIConfig struct {
	Addr           *string        `yaml:"addr"`
	RequestTimeout *time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   *int64         `yaml:"max_body_bytes"`
	RecipesDir     *string        `yaml:"recipes_dir"`
}

type fileListener struct {
	Enable *bool   `yaml:"enable"`
	Addr   *string `yaml:"addr"`
}

type fileAuthConfig struct {
	StaticToken *string        `yaml:"static_token"`
	SigningKey  *string        `yaml:"signing_key"`
	TokenTTL    *time.Duration `yaml:"token_ttl"`
	Issuer      *string        `yaml:"issuer"`
}

type fileAuditConfig struct {
	Path   *string `yaml:"path"`
	Stdout *bool   `yaml:"stdout"`
}

type fileTracingConfig struct {
	Enable      *bool    `yaml:"enable"`
	ServiceName *string  `yaml:"service_name"`
	FilePath    *string  `yaml:"file_path"`
	SampleRatio *float64 `yaml:"sample_ratio"`
}

type fileBatchConfig struct {
	Workers      *int           `yaml:"workers"`
	JobTimeout   *time.Duration `yaml:"job_timeout"`
	MaxLineBytes *int           `yaml:"max_line_bytes"`
}

func applyFileConfig(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.API != nil {
		setString(&cfg.API.Addr, fc.API.Addr)
		set(&cfg.API.RequestTimeout, fc.API.RequestTimeout)
		set(&cfg.API.MaxBodyBytes, fc.API.MaxBodyBytes)
		setString(&cfg.API.RecipesDir, fc.API.RecipesDir)
	}
	if fc.GRPC != nil {
		set(&cfg.GRPC.Enable, fc.GRPC.Enable)
		setString(&cfg.GRPC.Addr, fc.GRPC.Addr)
	}
	if fc.Metrics != nil {
		set(&cfg.Metrics.Enable, fc.Metrics.Enable)
		setString(&cfg.Metrics.Addr, fc.Metrics.Addr)
	}
	if fc.Auth != nil {
		setString(&cfg.Auth.StaticToken, fc.Auth.StaticToken)
		setString(&cfg.Auth.SigningKey, fc.Auth.SigningKey)
		set(&cfg.Auth.TokenTTL, fc.Auth.TokenTTL)
		setString(&cfg.Auth.Issuer, fc.Auth.Issuer)
	}
	if fc.Audit != nil {
		setString(&cfg.Audit.Path, fc.Audit.Path)
		set(&cfg.Audit.Stdout, fc.Audit.Stdout)
	}
	if fc.Tracing != nil {
		set(&cfg.Tracing.Enable, fc.Tracing.Enable)
		setString(&cfg.Tracing.ServiceName, fc.Tracing.ServiceName)
		setString(&cfg.Tracing.FilePath, fc.Tracing.FilePath)
		set(&cfg.Tracing.SampleRatio, fc.Tracing.SampleRatio)
	}
	if fc.Batch != nil {
		set(&cfg.Batch.Workers, fc.Batch.Workers)
		set(&cfg.Batch.JobTimeout, fc.Batch.JobTimeout)
		set(&cfg.Batch.MaxLineBytes, fc.Batch.MaxLineBytes)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyEnvOverrides(cfg *Config) error {
	var errs []error
	str := func(suffix string, dst *string) {
		if val, ok := env.LookupSuffix(suffix); ok {
			*dst = val
		}
	}
	boolean := func(suffix string, dst *bool) {
		if val, ok := env.LookupSuffix(suffix); ok {
			parsed, err := parseBool(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", env.Prefix, suffix, err))
				return
			}
			*dst = parsed
		}
	}
	duration := func(suffix string, dst *time.Duration) {
		if val, ok := env.LookupSuffix(suffix); ok {
			parsed, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", env.Prefix, suffix, err))
				return
			}
			*dst = parsed
		}
	}
	integer := func(suffix string, dst *int) {
		if val, ok := env.LookupSuffix(suffix); ok {
			parsed, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", env.Prefix, suffix, err))
				return
			}
			*dst = parsed
		}
	}

	str("API_ADDR", &cfg.API.Addr)
	duration("REQUEST_TIMEOUT", &cfg.API.RequestTimeout)
	str("RECIPES_DIR", &cfg.API.RecipesDir)
	boolean("GRPC_ENABLE", &cfg.GRPC.Enable)
	str("GRPC_ADDR", &cfg.GRPC.Addr)
	boolean("METRICS_ENABLE", &cfg.Metrics.Enable)
	str("METRICS_ADDR", &cfg.Metrics.Addr)
	str("AUTH_TOKEN", &cfg.Auth.StaticToken)
	str("SIGNING_KEY", &cfg.Auth.SigningKey)
	duration("TOKEN_TTL", &cfg.Auth.TokenTTL)
	str("AUDIT_LOG", &cfg.Audit.Path)
	boolean("AUDIT_STDOUT", &cfg.Audit.Stdout)
	boolean("TRACING_ENABLE", &cfg.Tracing.Enable)
	str("TRACE_FILE", &cfg.Tracing.FilePath)
	if val, ok := env.LookupSuffix("TRACE_SAMPLE_RATIO"); ok {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTRACE_SAMPLE_RATIO: %w", env.Prefix, err))
		} else {
			cfg.Tracing.SampleRatio = parsed
		}
	}
	integer("BATCH_WORKERS", &cfg.Batch.Workers)
	duration("BATCH_JOB_TIMEOUT", &cfg.Batch.JobTimeout)

	return errors.Join(errs...)
}

func parseBool(val string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(val)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %s", val)
	}
}
