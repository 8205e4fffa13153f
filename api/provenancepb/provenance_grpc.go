package provenancepb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ProvenanceService_WhereIsOne_FullMethodName  = "/provenancepb.ProvenanceService/WhereIsOne"
	ProvenanceService_WhereAreOne_FullMethodName = "/provenancepb.ProvenanceService/WhereAreOne"
)

// ProvenanceServiceClient is the client API for ProvenanceService.
type ProvenanceServiceClient interface {
	WhereIsOne(ctx context.Context, in *WhereIsOneRequest, opts ...grpc.CallOption) (*WhereIsOneResult, error)
	WhereAreOne(ctx context.Context, in *WhereAreOneRequest, opts ...grpc.CallOption) (ProvenanceService_WhereAreOneClient, error)
}

type provenanceServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProvenanceServiceClient wraps an established connection as a
// ProvenanceServiceClient.
func NewProvenanceServiceClient(cc grpc.ClientConnInterface) ProvenanceServiceClient {
	return &provenanceServiceClient{cc}
}

func (c *provenanceServiceClient) WhereIsOne(ctx context.Context, in *WhereIsOneRequest, opts ...grpc.CallOption) (*WhereIsOneResult, error) {
	out := new(WhereIsOneResult)
	if err := c.cc.Invoke(ctx, ProvenanceService_WhereIsOne_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *provenanceServiceClient) WhereAreOne(ctx context.Context, in *WhereAreOneRequest, opts ...grpc.CallOption) (ProvenanceService_WhereAreOneClient, error) {
	stream, err := c.cc.NewStream(ctx, &ProvenanceService_ServiceDesc.Streams[0], ProvenanceService_WhereAreOne_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &provenanceServiceWhereAreOneClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// ProvenanceService_WhereAreOneClient is the stream handle returned by
// WhereAreOne: callers call Recv repeatedly until io.EOF.
type ProvenanceService_WhereAreOneClient interface {
	Recv() (*WhereIsOneResult, error)
	grpc.ClientStream
}

type provenanceServiceWhereAreOneClient struct {
	grpc.ClientStream
}

func (x *provenanceServiceWhereAreOneClient) Recv() (*WhereIsOneResult, error) {
	m := new(WhereIsOneResult)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ProvenanceServiceServer is the server API for ProvenanceService.
// Implementations must embed UnimplementedProvenanceServiceServer for
// forward compatibility with future RPCs.
type ProvenanceServiceServer interface {
	WhereIsOne(context.Context, *WhereIsOneRequest) (*WhereIsOneResult, error)
	WhereAreOne(*WhereAreOneRequest, ProvenanceService_WhereAreOneServer) error
	mustEmbedUnimplementedProvenanceServiceServer()
}

// UnimplementedProvenanceServiceServer must be embedded by every server
// implementation.
type UnimplementedProvenanceServiceServer struct{}

func (UnimplementedProvenanceServiceServer) WhereIsOne(context.Context, *WhereIsOneRequest) (*WhereIsOneResult, error) {
	return nil, status.Error(codes.Unimplemented, "method WhereIsOne not implemented")
}

func (UnimplementedProvenanceServiceServer) WhereAreOne(*WhereAreOneRequest, ProvenanceService_WhereAreOneServer) error {
	return status.Error(codes.Unimplemented, "method WhereAreOne not implemented")
}

func (UnimplementedProvenanceServiceServer) mustEmbedUnimplementedProvenanceServiceServer() {}

// ProvenanceService_WhereAreOneServer is the server-side stream handle for
// WhereAreOne.
type ProvenanceService_WhereAreOneServer interface {
	Send(*WhereIsOneResult) error
	grpc.ServerStream
}

type provenanceServiceWhereAreOneServer struct {
	grpc.ServerStream
}

func (x *provenanceServiceWhereAreOneServer) Send(m *WhereIsOneResult) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterProvenanceServiceServer registers srv with s.
func RegisterProvenanceServiceServer(s grpc.ServiceRegistrar, srv ProvenanceServiceServer) {
	s.RegisterService(&ProvenanceService_ServiceDesc, srv)
}

func _ProvenanceService_WhereIsOne_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(WhereIsOneRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProvenanceServiceServer).WhereIsOne(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ProvenanceService_WhereIsOne_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProvenanceServiceServer).WhereIsOne(ctx, req.(*WhereIsOneRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProvenanceService_WhereAreOne_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(WhereAreOneRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ProvenanceServiceServer).WhereAreOne(m, &provenanceServiceWhereAreOneServer{stream})
}

// ProvenanceService_ServiceDesc is the grpc.ServiceDesc for
// ProvenanceService, the same shape protoc-gen-go-grpc emits.
var ProvenanceService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "provenancepb.ProvenanceService",
	HandlerType: (*ProvenanceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "WhereIsOne",
			Handler:    _ProvenanceService_WhereIsOne_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WhereAreOne",
			Handler:       _ProvenanceService_WhereAreOne_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "provenance.proto",
}
