package tracing

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryServerInterceptor instruments unary gRPC handlers with tracing spans.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = ContextWithMetadataSpan(ctx)
		ctx, span := StartSpan(ctx, info.FullMethod, WithSpanKind(SpanKindServer), WithAttributes(rpcAttributes(info.FullMethod)))
		resp, err := handler(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.End()
			return resp, err
		}
		span.EndWithStatus(StatusOK, "")
		return resp, nil
	}
}

// UnaryClientInterceptor starts a client span and forwards it as a
// traceparent header.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx, span := StartSpan(ctx, method, WithSpanKind(SpanKindClient), WithAttributes(rpcAttributes(method)))
		if sc := span.Context(); sc.Valid() {
			ctx = metadata.AppendToOutgoingContext(ctx, traceparentHeader, FormatTraceParent(sc))
		}
		err := invoker(ctx, method, req, reply, cc, opts...)
		if err != nil {
			span.RecordError(err)
			span.End()
			return err
		}
		span.EndWithStatus(StatusOK, "")
		return nil
	}
}

func rpcAttributes(fullMethod string) map[string]any {
	attrs := map[string]any{"rpc.system": "grpc"}
	service, method := splitMethod(fullMethod)
	if service != "" {
		attrs["rpc.service"] = service
	}
	if method != "" {
		attrs["rpc.method"] = method
	}
	return attrs
}

func splitMethod(full string) (string, string) {
	full = strings.TrimPrefix(full, "/")
	parts := strings.Split(full, "/")
	if len(parts) != 2 {
		return full, ""
	}
	return parts[0], parts[1]
}
