package grpcpeer

import (
	"context"

	"google.golang.org/grpc"
)

// PeerServer is implemented by the type registered to handle incoming
// Exchange and Contribute calls on one rank's gRPC server.
type PeerServer interface {
	Exchange(ctx context.Context, req *ExchangeRequest) (*ExchangeResponse, error)
	Contribute(ctx context.Context, req *ContributeRequest) (*ContributeResponse, error)
}

// serviceDesc is hand-written in place of a protoc-generated one: the
// messages above are plain structs marshaled with the gob codec, so
// there is no .proto schema to compile.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "ccl.transport.Peer",
	HandlerType: (*PeerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Exchange", Handler: exchangeHandler},
		{MethodName: "Contribute", Handler: contributeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ccl/transport/peer",
}

func exchangeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExchangeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PeerServer).Exchange(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/ccl.transport.Peer/Exchange"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PeerServer).Exchange(ctx, req.(*ExchangeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func contributeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ContributeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PeerServer).Contribute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/ccl.transport.Peer/Contribute"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PeerServer).Contribute(ctx, req.(*ContributeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterPeerServer registers srv to handle Peer RPCs on s.
func RegisterPeerServer(s *grpc.Server, srv PeerServer) {
	s.RegisterService(&serviceDesc, srv)
}

// peerClient is the hand-written counterpart of a protoc-generated
// client stub, calling through a plain grpc.ClientConnInterface.
type peerClient struct {
	cc grpc.ClientConnInterface
}

func newPeerClient(cc grpc.ClientConnInterface) *peerClient {
	return &peerClient{cc: cc}
}

func (c *peerClient) Exchange(ctx context.Context, req *ExchangeRequest, opts ...grpc.CallOption) (*ExchangeResponse, error) {
	out := new(ExchangeResponse)
	if err := c.cc.Invoke(ctx, "/ccl.transport.Peer/Exchange", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *peerClient) Contribute(ctx context.Context, req *ContributeRequest, opts ...grpc.CallOption) (*ContributeResponse, error) {
	out := new(ContributeResponse)
	if err := c.cc.Invoke(ctx, "/ccl.transport.Peer/Contribute", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
