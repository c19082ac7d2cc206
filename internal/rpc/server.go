package rpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/RowanDark/0xcrack/internal/analysis"
	"github.com/RowanDark/0xcrack/internal/api"
	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/logging"
	"github.com/RowanDark/0xcrack/internal/observability/metrics"
	"github.com/RowanDark/0xcrack/internal/observability/tracing"
)

const (
	authorizationKey = "authorization"
	requestIDKey     = "x-request-id"
	errorDomain      = "0xcrack"
)

// TokenValidator checks bearer tokens presented in call metadata.
type TokenValidator interface {
	Validate(token string) (api.Claims, error)
}

// Server implements CryptanalysisServer on top of the operation registry.
type Server struct {
	executor  *analysis.Executor
	validator TokenValidator
	logger    *logging.AuditLogger
}

// NewServer returns a server that authenticates calls with validator.
func NewServer(validator TokenValidator, logger *logging.AuditLogger) (*Server, error) {
	if validator == nil {
		return nil, errors.New("token validator is required")
	}
	return &Server{
		executor:  analysis.NewExecutor(logger),
		validator: validator,
		logger:    logger,
	}, nil
}

// NewGRPCServer builds a grpc.Server with tracing, metrics, auth and this
// service registered.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		tracing.UnaryServerInterceptor(),
		s.observeInterceptor,
		s.authInterceptor,
	))
	srv := grpc.NewServer(opts...)
	RegisterCryptanalysisServer(srv, s)
	return srv
}

// Serve runs a gRPC server on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := s.NewGRPCServer()
	s.emit(logging.AuditEvent{EventType: logging.EventServerLifecycle, Reason: "grpc listening on " + ln.Addr().String()})

	go func() {
		<-ctx.Done()
		done := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			srv.Stop()
		}
	}()

	err := srv.Serve(ln)
	s.emit(logging.AuditEvent{EventType: logging.EventServerLifecycle, Reason: "grpc stopped"})
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Execute implements CryptanalysisServer.
func (s *Server) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	operation := strings.TrimSpace(fields["operation"].GetStringValue())
	if operation == "" {
		return nil, status.Error(codes.InvalidArgument, "operation field is required")
	}
	input := fields["input"].GetStringValue()
	var params map[string]any
	if p := fields["params"].GetStructValue(); p != nil {
		params = p.AsMap()
	}

	report, err := s.executor.Execute(ctx, requestIDFrom(ctx), operation, input, params)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := reportToStruct(report)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ListOperations implements CryptanalysisServer.
func (s *Server) ListOperations(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}
	out, err := operationsToStruct(cipher.ListOperationInfo())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus maps executor errors onto gRPC codes. Precondition failures carry
// their kind as an ErrorInfo reason.
func toStatus(err error) error {
	kind := analysis.Kind(err)
	var code codes.Code
	switch kind {
	case analysis.KindCanceled:
		code = codes.Canceled
	case analysis.KindDeadline:
		code = codes.DeadlineExceeded
	case analysis.KindUnknownOperation:
		code = codes.NotFound
	case analysis.KindInternal:
		code = codes.Internal
	default:
		code = codes.InvalidArgument
	}
	st := status.New(code, err.Error())
	if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: kind, Domain: errorDomain}); derr == nil {
		st = detailed
	}
	return st.Err()
}

func (s *Server) authInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(authorizationKey)
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		s.denied(ctx, info.FullMethod, "missing", "missing bearer token")
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	raw := strings.TrimSpace(values[0])
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if _, err := s.validator.Validate(raw); err != nil {
		s.denied(ctx, info.FullMethod, "invalid", err.Error())
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}
	return handler(ctx, req)
}

func (s *Server) observeInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	requestID := requestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = metadata.NewIncomingContext(ctx, metadata.Join(incoming(ctx), metadata.Pairs(requestIDKey, requestID)))
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, requestID))

	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	metrics.RecordRPCRequest("grpc", info.FullMethod)
	if err != nil {
		metrics.RecordRPCError("grpc", info.FullMethod, code.String())
	}
	metrics.ObserveRPCLatency(ctx, "grpc", info.FullMethod, code.String(), time.Since(start))

	event := logging.AuditEvent{
		EventType: logging.EventRPCCall,
		Decision:  logging.DecisionAllow,
		RequestID: requestID,
		Metadata:  map[string]any{"method": info.FullMethod, "code": code.String()},
	}
	if err != nil {
		event.Decision = logging.DecisionError
		event.Reason = status.Convert(err).Message()
	}
	s.emit(event)
	return resp, err
}

func (s *Server) denied(ctx context.Context, method, reason, detail string) {
	metrics.RecordAuthFailure(reason)
	s.emit(logging.AuditEvent{
		EventType: logging.EventAuthDenied,
		Decision:  logging.DecisionDeny,
		RequestID: requestIDFrom(ctx),
		Reason:    detail,
		Metadata:  map[string]any{"method": method, "reason": reason},
	})
}

func (s *Server) emit(event logging.AuditEvent) {
	if s.logger == nil {
		return
	}
	_ = s.logger.Emit(event)
}

func incoming(ctx context.Context) metadata.MD {
	md, _ := metadata.FromIncomingContext(ctx)
	return md
}

func requestIDFrom(ctx context.Context) string {
	if values := incoming(ctx).Get(requestIDKey); len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}
