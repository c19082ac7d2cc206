// Package rpc exposes the operation registry over gRPC. Requests and
// responses are google.protobuf.Struct values so no generated stubs are
// needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "oxcrack.v1.Cryptanalysis"

const (
	executeMethod        = "/" + ServiceName + "/Execute"
	listOperationsMethod = "/" + ServiceName + "/ListOperations"
)

// CryptanalysisServer is the server API for the Cryptanalysis service.
type CryptanalysisServer interface {
	// Execute runs one operation. The request carries operation, input and
	// params fields; the response is the report.
	Execute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListOperations describes every registered operation.
	ListOperations(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterCryptanalysisServer registers srv with s.
func RegisterCryptanalysisServer(s grpc.ServiceRegistrar, srv CryptanalysisServer) {
	s.RegisterService(&CryptanalysisServiceDesc, srv)
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CryptanalysisServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CryptanalysisServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listOperationsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CryptanalysisServer).ListOperations(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listOperationsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CryptanalysisServer).ListOperations(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// CryptanalysisServiceDesc is the grpc.ServiceDesc for the Cryptanalysis service.
var CryptanalysisServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CryptanalysisServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
		{MethodName: "ListOperations", Handler: listOperationsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "oxcrack/v1/cryptanalysis.proto",
}
