package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/RowanDark/0xcrack/internal/api"
	"github.com/RowanDark/0xcrack/internal/config"
	"github.com/RowanDark/0xcrack/internal/logging"
	obsmetrics "github.com/RowanDark/0xcrack/internal/observability/metrics"
	"github.com/RowanDark/0xcrack/internal/observability/tracing"
	"github.com/RowanDark/0xcrack/internal/rpc"
)

var version = "dev"

const shutdownGrace = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "load configuration from this file instead of the default search path")
	apiAddr := flag.String("api-addr", "", "override api.addr")
	grpcAddr := flag.String("grpc-addr", "", "override grpc.addr")
	metricsAddr := flag.String("metrics-addr", "", "override metrics.addr")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("0xcrackd %s\n", version)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	if v := strings.TrimSpace(*apiAddr); v != "" {
		cfg.API.Addr = v
	}
	if v := strings.TrimSpace(*grpcAddr); v != "" {
		cfg.GRPC.Addr = v
	}
	if v := strings.TrimSpace(*metricsAddr); v != "" {
		cfg.Metrics.Addr = v
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if strings.TrimSpace(path) != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func run(ctx context.Context, cfg config.Config) error {
	d, err := start(ctx, cfg)
	if err != nil {
		return err
	}
	return d.wait()
}

// daemon holds the running listeners so tests can reach them.
type daemon struct {
	logger   *logging.AuditLogger
	apiAddr  string
	grpcAddr string
	metrics  string

	cancel    context.CancelFunc
	errCh     chan error
	running   int
	shutdowns []func(context.Context) error
}

func start(ctx context.Context, cfg config.Config) (*daemon, error) {
	coreLogger, err := newAuditLogger(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("configure audit logger: %w", err)
	}

	serviceCtx, cancel := context.WithCancel(ctx)
	d := &daemon{logger: coreLogger, cancel: cancel, errCh: make(chan error, 3)}
	fail := func(err error) (*daemon, error) {
		cancel()
		d.shutdown()
		d.drain()
		_ = coreLogger.Close()
		return nil, err
	}

	if cfg.Tracing.Enable {
		shutdownTracing, err := tracing.Setup(serviceCtx, tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			SampleRatio: cfg.Tracing.SampleRatio,
			FilePath:    cfg.Tracing.FilePath,
		})
		if err != nil {
			return fail(fmt.Errorf("configure tracing: %w", err))
		}
		d.shutdowns = append(d.shutdowns, shutdownTracing)
		emitAudit(coreLogger, logging.AuditEvent{
			EventType: logging.EventServerLifecycle,
			Decision:  logging.DecisionInfo,
			Metadata:  map[string]any{"phase": "tracing_ready", "file": cfg.Tracing.FilePath},
		})
	}

	secret, generated, err := signingSecret(cfg.Auth.SigningKey)
	if err != nil {
		return fail(err)
	}
	if generated {
		emitAudit(coreLogger, logging.AuditEvent{
			EventType: logging.EventServerLifecycle,
			Decision:  logging.DecisionInfo,
			Reason:    "auth.signing_key not set; tokens will not survive a restart",
			Metadata:  map[string]any{"phase": "ephemeral_signing_key"},
		})
	}

	apiServer, err := api.NewServer(api.Config{
		Addr:            cfg.API.Addr,
		StaticToken:     cfg.Auth.StaticToken,
		JWTSecret:       secret,
		JWTIssuer:       cfg.Auth.Issuer,
		DefaultTokenTTL: cfg.Auth.TokenTTL,
		RequestTimeout:  cfg.API.RequestTimeout,
		MaxBodyBytes:    cfg.API.MaxBodyBytes,
		RecipesDir:      cfg.API.RecipesDir,
		Logger:          coreLogger.WithComponent("api_server"),
	})
	if err != nil {
		return fail(fmt.Errorf("configure api server: %w", err))
	}
	apiLn, err := net.Listen("tcp", cfg.API.Addr)
	if err != nil {
		return fail(fmt.Errorf("failed to listen on %s: %w", cfg.API.Addr, err))
	}
	d.apiAddr = apiLn.Addr().String()
	d.launch(func() error { return apiServer.Serve(serviceCtx, apiLn) })

	if cfg.GRPC.Enable {
		rpcServer, err := rpc.NewServer(apiServer.Authenticator(), coreLogger.WithComponent("grpc_server"))
		if err != nil {
			return fail(fmt.Errorf("configure grpc server: %w", err))
		}
		grpcLn, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fail(fmt.Errorf("failed to listen on %s: %w", cfg.GRPC.Addr, err))
		}
		d.grpcAddr = grpcLn.Addr().String()
		d.launch(func() error { return rpcServer.Serve(serviceCtx, grpcLn) })
	}

	if cfg.Metrics.Enable {
		metricsLn, err := net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			return fail(fmt.Errorf("failed to listen on %s: %w", cfg.Metrics.Addr, err))
		}
		d.metrics = metricsLn.Addr().String()
		mux := http.NewServeMux()
		mux.Handle("/metrics", obsmetrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		metricsSrv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		d.launch(func() error {
			if err := metricsSrv.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		d.shutdowns = append([]func(context.Context) error{metricsSrv.Shutdown}, d.shutdowns...)
		emitAudit(coreLogger, logging.AuditEvent{
			EventType: logging.EventServerLifecycle,
			Decision:  logging.DecisionInfo,
			Metadata:  map[string]any{"phase": "metrics_ready", "address": d.metrics},
		})
	}

	emitAudit(coreLogger, logging.AuditEvent{
		EventType: logging.EventServerLifecycle,
		Decision:  logging.DecisionInfo,
		Metadata: map[string]any{
			"phase":   "ready",
			"version": version,
			"api":     d.apiAddr,
			"grpc":    d.grpcAddr,
			"metrics": d.metrics,
		},
	})
	return d, nil
}

func (d *daemon) launch(fn func() error) {
	d.running++
	go func() { d.errCh <- fn() }()
}

// wait blocks until the context ends or a listener fails, then stops the
// remaining servers.
func (d *daemon) wait() error {
	var first error
	if d.running > 0 {
		first = <-d.errCh
		d.running--
	}
	d.cancel()
	d.shutdown()
	if err := d.drain(); first == nil {
		first = err
	}
	emitAudit(d.logger, logging.AuditEvent{
		EventType: logging.EventServerLifecycle,
		Decision:  logging.DecisionInfo,
		Metadata:  map[string]any{"phase": "stopped"},
	})
	_ = d.logger.Close()
	return first
}

func (d *daemon) shutdown() {
	for _, fn := range d.shutdowns {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		if err := fn(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			emitAudit(d.logger, logging.AuditEvent{
				EventType: logging.EventServerLifecycle,
				Decision:  logging.DecisionError,
				Reason:    err.Error(),
				Metadata:  map[string]any{"phase": "shutdown"},
			})
		}
		cancel()
	}
}

func (d *daemon) drain() error {
	var first error
	for ; d.running > 0; d.running-- {
		if err := <-d.errCh; err != nil && first == nil {
			first = err
		}
	}
	return first
}

// signingSecret decodes the configured key or generates a random one.
func signingSecret(configured string) ([]byte, bool, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return []byte(key), false, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, false, fmt.Errorf("generate signing key: %w", err)
	}
	return []byte(hex.EncodeToString(buf)), true, nil
}

func newAuditLogger(cfg config.AuditConfig) (*logging.AuditLogger, error) {
	opts := []logging.Option{}
	if !cfg.Stdout {
		opts = append(opts, logging.WithoutStdout())
	}
	if path := strings.TrimSpace(cfg.Path); path != "" {
		opts = append(opts, logging.WithFile(path))
	}
	return logging.NewAuditLogger("0xcrackd", opts...)
}

func emitAudit(logger *logging.AuditLogger, event logging.AuditEvent) {
	if logger == nil {
		return
	}
	if err := logger.Emit(event); err != nil {
		fmt.Fprintf(os.Stderr, "audit log error: %v\n", err)
	}
}
