package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/RowanDark/0xcrack/internal/analysis"
	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/logging"
	"github.com/RowanDark/0xcrack/internal/observability/metrics"
	"github.com/RowanDark/0xcrack/internal/observability/tracing"
)

// StaticTokenHeader carries the bootstrap token accepted by the token endpoint.
const StaticTokenHeader = "X-0xcrack-Token"

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-Id"

// Config configures the REST API server.
type Config struct {
	Addr            string
	StaticToken     string
	JWTSecret       []byte
	JWTIssuer       string
	DefaultTokenTTL time.Duration
	RequestTimeout  time.Duration
	MaxBodyBytes    int64
	RecipesDir      string // empty keeps saved recipes in memory
	Logger          *logging.AuditLogger
}

// Server exposes the cryptanalysis operations over JSON.
type Server struct {
	cfg           Config
	httpServer    *http.Server
	authenticator *Authenticator
	executor      *analysis.Executor
	recipes       *cipher.RecipeManager
	staticToken   string
	logger        *logging.AuditLogger
}

// NewServer constructs a REST API server using the provided configuration.
func NewServer(cfg Config) (*Server, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("api address must be provided")
	}
	staticToken := strings.TrimSpace(cfg.StaticToken)
	if staticToken == "" {
		return nil, errors.New("static management token is required")
	}
	auth, err := NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.DefaultTokenTTL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	recipes := cipher.NewRecipeManager(strings.TrimSpace(cfg.RecipesDir))
	if err := recipes.LoadRecipes(); err != nil {
		return nil, err
	}
	return &Server{
		cfg:           cfg,
		authenticator: auth,
		executor:      analysis.NewExecutor(cfg.Logger),
		recipes:       recipes,
		staticToken:   staticToken,
		logger:        cfg.Logger,
	}, nil
}

// Authenticator exposes the token issuer so other listeners can share it.
func (s *Server) Authenticator() *Authenticator {
	return s.authenticator
}

// Handler returns the routed and instrumented handler. It speaks HTTP/1.1
// and cleartext HTTP/2.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/api/v1/api-tokens", http.HandlerFunc(s.handleTokenIssue))

	protected := map[string]http.HandlerFunc{
		"/api/v1/cipher/caesar/brute-force": s.analysisHandler("caesar_bruteforce"),
		"/api/v1/cipher/chi-square":         s.analysisHandler("chi_square_shift"),
		"/api/v1/cipher/affine":             s.analysisHandler("affine_recover"),
		"/api/v1/cipher/kasiski":            s.analysisHandler("kasiski"),
		"/api/v1/cipher/frequency":          s.analysisHandler("frequency"),
		"/api/v1/cipher/vigenere/decrypt":   s.keyedHandler("vigenere_decrypt"),
		"/api/v1/cipher/playfair/decrypt":   s.keyedHandler("playfair_decrypt"),
		"/api/v1/cipher/execute":            s.handleCipherExecute,
		"/api/v1/cipher/pipeline":           s.handleCipherPipeline,
		"/api/v1/cipher/operations":         s.handleCipherListOperations,
		"/api/v1/cipher/recipes/save":       s.handleRecipeSave,
		"/api/v1/cipher/recipes/list":       s.handleRecipeList,
		"/api/v1/cipher/recipes/load":       s.handleRecipeLoad,
		"/api/v1/cipher/recipes/delete":     s.handleRecipeDelete,
	}
	for pattern, handler := range protected {
		mux.Handle(pattern, s.requireJWT(handler))
	}

	return h2c.NewHandler(s.instrument(mux), &http2.Server{})
}

// Run starts the HTTP server and blocks until the provided context is cancelled or a fatal error occurs.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.emitLifecycle("api listening on " + ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = s.httpServer.Shutdown(shutdownCtx)
		s.emitLifecycle("api stopped")
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleTokenIssue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if token := strings.TrimSpace(r.Header.Get(StaticTokenHeader)); token != s.staticToken {
		s.denied(r, "static_token", "static token mismatch")
		http.Error(w, "unauthorised", http.StatusUnauthorized)
		return
	}
	var req struct {
		Subject    string  `json:"subject"`
		Audience   string  `json:"audience"`
		TTLSeconds float64 `json:"ttl_seconds"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	ttl := time.Duration(req.TTLSeconds * float64(time.Second))
	token, expires, err := s.authenticator.Mint(req.Subject, req.Audience, ttl)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.logger != nil {
		_ = s.logger.Emit(logging.AuditEvent{
			EventType: logging.EventTokenIssued,
			Decision:  logging.DecisionAllow,
			RequestID: requestIDFromContext(r.Context()),
			Metadata:  map[string]any{"subject": strings.TrimSpace(req.Subject), "expires_at": expires.Format(time.RFC3339)},
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

func (s *Server) requireJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			s.denied(r, "missing", "missing bearer token")
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(authHeader[7:])
		if _, err := s.authenticator.Validate(token); err != nil {
			s.denied(r, failureReason(err), err.Error())
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) denied(r *http.Request, reason, detail string) {
	metrics.RecordAuthFailure(reason)
	if s.logger == nil {
		return
	}
	_ = s.logger.Emit(logging.AuditEvent{
		EventType: logging.EventAuthDenied,
		Decision:  logging.DecisionDeny,
		RequestID: requestIDFromContext(r.Context()),
		Reason:    detail,
		Metadata:  map[string]any{"path": r.URL.Path, "reason": reason},
	})
}

func (s *Server) emitLifecycle(reason string) {
	if s.logger == nil {
		return
	}
	_ = s.logger.Emit(logging.AuditEvent{EventType: logging.EventServerLifecycle, Reason: reason})
}

type requestIDKey struct{}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// instrument assigns request IDs, bounds request bodies and durations, and
// records metrics and spans for every request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := tracing.ContextFromHTTP(r)
		ctx = context.WithValue(ctx, requestIDKey{}, requestID)
		if s.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
			defer cancel()
		}
		ctx, span := tracing.StartSpan(ctx, r.Method+" "+r.URL.Path, tracing.WithSpanKind(tracing.SpanKindServer), tracing.WithAttributes(map[string]any{
			"http.method": r.Method,
			"http.target": r.URL.Path,
			"request.id":  requestID,
		}))
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		code := strconv.Itoa(rec.status)
		route := r.URL.Path
		if rec.status == http.StatusNotFound {
			route = "unmatched"
		}
		metrics.RecordRPCRequest("api", route)
		if rec.status >= http.StatusBadRequest {
			metrics.RecordRPCError("api", route, code)
		}
		metrics.ObserveRPCLatency(ctx, "api", route, code, time.Since(start))
		span.SetAttribute("http.status_code", rec.status)
		if rec.status >= http.StatusInternalServerError {
			span.EndWithStatus(tracing.StatusError, http.StatusText(rec.status))
			return
		}
		span.End()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		if s.logger != nil {
			_ = s.logger.Emit(logging.AuditEvent{EventType: logging.EventRPCCall, Decision: logging.DecisionError, Reason: err.Error()})
		}
	}
}
