package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/observability/tracing"
)

// RemoteError is a failed call decoded from its gRPC status.
type RemoteError struct {
	Code    codes.Code
	Reason  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Kind returns the error kind reported by the server.
func (e *RemoteError) Kind() string { return e.Reason }

// Client calls a remote Cryptanalysis service.
type Client struct {
	conn  *grpc.ClientConn
	token string
}

// Dial connects to addr without transport security. Extra options are
// appended after the defaults.
func Dial(addr, token string, opts ...grpc.DialOption) (*Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("remote address is required")
	}
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(tracing.UnaryClientInterceptor()),
	}
	conn, err := grpc.NewClient(addr, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, token: strings.TrimSpace(token)}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute runs operation remotely.
func (c *Client) Execute(ctx context.Context, operation, input string, params map[string]any) (*cipher.Report, error) {
	fields := map[string]any{
		"operation": operation,
		"input":     input,
	}
	if len(params) > 0 {
		fields["params"] = params
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), executeMethod, req, resp); err != nil {
		return nil, fromStatus(err)
	}
	return structToReport(resp)
}

// ListOperations describes the operations registered on the server.
func (c *Client) ListOperations(ctx context.Context) ([]cipher.OperationInfo, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), listOperationsMethod, &emptypb.Empty{}, resp); err != nil {
		return nil, fromStatus(err)
	}
	return structToOperations(resp)
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, authorizationKey, "Bearer "+c.token)
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	remote := &RemoteError{Code: st.Code(), Message: st.Message()}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			remote.Reason = info.GetReason()
		}
	}
	return remote
}
