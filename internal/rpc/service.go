// Package rpc exposes Encipher and Decipher over gRPC.
//
// Requests and replies are google.protobuf.Struct values, so the service
// needs no generated code. A request carries the string fields "key" and
// "text" and, for Decipher, an optional bool "allow_partial".
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "adfgvx.v1.Cipher"

	encipherMethod = "/" + ServiceName + "/Encipher"
	decipherMethod = "/" + ServiceName + "/Decipher"
)

// CipherServer is the server API for the adfgvx.v1.Cipher service.
type CipherServer interface {
	Encipher(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Decipher(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterCipherServer attaches srv to s.
func RegisterCipherServer(s grpc.ServiceRegistrar, srv CipherServer) {
	s.RegisterService(&CipherServiceDesc, srv)
}

func encipherHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CipherServer).Encipher(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: encipherMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CipherServer).Encipher(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func decipherHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CipherServer).Decipher(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: decipherMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CipherServer).Decipher(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// CipherServiceDesc describes the adfgvx.v1.Cipher service.
var CipherServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CipherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Encipher", Handler: encipherHandler},
		{MethodName: "Decipher", Handler: decipherHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "adfgvx/v1/cipher.proto",
}
